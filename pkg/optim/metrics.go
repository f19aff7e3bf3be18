package optim

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts what the optimizer did. A nil *Metrics is fine and
// does nothing.
type Metrics struct {
	trials   prometheus.Counter
	improved prometheus.Counter
	levels   prometheus.Counter
	best     prometheus.Gauge
}

// NewMetrics registers the optimizer metrics with reg.
// Registering twice with the same registry panics, as in promauto.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		trials: f.NewCounter(prometheus.CounterOpts{
			Namespace: "dock",
			Subsystem: "optim",
			Name:      "trials_total",
			Help:      "Candidate poses scored.",
		}),
		improved: f.NewCounter(prometheus.CounterOpts{
			Namespace: "dock",
			Subsystem: "optim",
			Name:      "improvements_total",
			Help:      "Candidate poses that beat the incumbent.",
		}),
		levels: f.NewCounter(prometheus.CounterOpts{
			Namespace: "dock",
			Subsystem: "optim",
			Name:      "levels_total",
			Help:      "Refinement levels completed.",
		}),
		best: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "dock",
			Subsystem: "optim",
			Name:      "best_score",
			Help:      "Best score of the most recent level.",
		}),
	}
}

func (m *Metrics) addTrials(n int) {
	if m != nil {
		m.trials.Add(float64(n))
	}
}

func (m *Metrics) addImproved(n int) {
	if m != nil && n > 0 {
		m.improved.Add(float64(n))
	}
}

func (m *Metrics) levelDone(best float64) {
	if m != nil {
		m.levels.Inc()
		m.best.Set(best)
	}
}
