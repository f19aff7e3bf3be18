// Package dock is the front door. Load chains from a file, score one
// against another, move one to lower the score, and write the result.
//
//	chains, _ := dock.LoadChains("2PWS.xbgf", xbgf.Options{})
//	protein, ligand := chains[0], chains[1]
//	fmt.Println(protein.ScoreAgainst(ligand, energy.DefaultRadius))
//	ligand.RotateY(1)
//	fmt.Println(protein.ScoreAgainst(ligand, energy.DefaultRadius))
package dock

import (
	"context"
	"io"
	"log/slog"

	"github.com/lukfugl/docking/pkg/chain"
	"github.com/lukfugl/docking/pkg/energy"
	"github.com/lukfugl/docking/pkg/optim"
	"github.com/lukfugl/docking/pkg/xbgf"
)

// Chain is a chain.Chain with the scoring and optimising attached.
// Translate, RotateX/Y/Z and ResetBasis come from the embedded chain.
type Chain struct {
	*chain.Chain
}

func wrap(s *xbgf.Structure) []*Chain {
	ret := make([]*Chain, len(s.Chains))
	for i, c := range s.Chains {
		ret[i] = &Chain{c}
	}
	return ret
}

// LoadChains reads every chain in an xbgf file.
func LoadChains(fname string, opts xbgf.Options) ([]*Chain, error) {
	s, err := xbgf.ReadFile(fname, opts)
	if err != nil {
		return nil, err
	}
	return wrap(s), nil
}

// LoadChainsFrom is LoadChains for an open stream.
func LoadChainsFrom(r io.Reader, opts xbgf.Options) ([]*Chain, error) {
	s, err := xbgf.Read(r, opts)
	if err != nil {
		return nil, err
	}
	return wrap(s), nil
}

// ScoreAgainst is the interaction energy of c and other, both where
// they are now, with the default engine.
func (c *Chain) ScoreAgainst(other *Chain, radius float64) float64 {
	return energy.Default.Committed(c.Chain, other.Chain, radius)
}

type settings struct {
	seed    int64
	seedSet bool
	workers int
	budget  int
	logger  *slog.Logger
	metrics *optim.Metrics
	engine  energy.Engine
}

// Option changes how OptimizeAgainst runs.
type Option func(*settings)

func WithSeed(seed int64) Option {
	return func(s *settings) { s.seed, s.seedSet = seed, true }
}

func WithWorkers(n int) Option { return func(s *settings) { s.workers = n } }

// WithBudget stops the search after n scored moves.
func WithBudget(n int) Option { return func(s *settings) { s.budget = n } }

func WithLogger(l *slog.Logger) Option { return func(s *settings) { s.logger = l } }

func WithMetrics(m *optim.Metrics) Option { return func(s *settings) { s.metrics = m } }

// WithEngine scores with something other than energy.Default.
func WithEngine(e energy.Engine) Option { return func(s *settings) { s.engine = e } }

// OptimizeAgainst moves c to lower its energy with other, which stays
// put. The best pose found is made c's pose, but only if it is better
// than where c started.
// Use ctx to put a time limit on it.
func (c *Chain) OptimizeAgainst(ctx context.Context, other *Chain, maxLevel, trials, coverage int,
	radius float64, opts ...Option) *optim.Result {
	s := settings{workers: 1, engine: energy.Default}
	for _, o := range opts {
		o(&s)
	}
	ctrl := optim.NewCtrl(optim.ChainCost(c.Chain, other.Chain, s.engine, radius))
	ctrl.MaxLevel(maxLevel)
	ctrl.Trials(trials)
	ctrl.Coverage(coverage)
	if s.seedSet {
		ctrl.Seed(s.seed)
	}
	ctrl.Workers(s.workers)
	ctrl.Budget(s.budget)
	ctrl.Logger(s.logger)
	ctrl.Metrics(s.metrics)
	return optim.OptimizeChain(ctx, ctrl, c.Chain)
}

type counter struct {
	w io.Writer
	n int64
}

func (c *counter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// WriteTo writes c at its current pose in xbgf form, for viewing or
// for reading back in. It makes Chain an io.WriterTo.
func (c *Chain) WriteTo(w io.Writer) (int64, error) {
	cw := counter{w: w}
	err := xbgf.Write(&cw, c.Chain)
	return cw.n, err
}

// WriteAll writes several chains to one file.
func WriteAll(w io.Writer, chains ...*Chain) error {
	cs := make([]*chain.Chain, len(chains))
	for i, c := range chains {
		cs[i] = c.Chain
	}
	return xbgf.Write(w, cs...)
}
