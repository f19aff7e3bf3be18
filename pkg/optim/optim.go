// 19 Oct 2026

// Package optim searches for a pose that lowers an energy.
// It is a randomised local search that runs over a series of levels.
// At level n, moves are scaled by 0.5^n, so the first levels take big
// steps and the later ones polish. At each level the search is repeated
// coverage times. Each repetition tries a number of random moves away
// from the best pose so far and keeps the best of them, but only if it
// is strictly better. The best score can therefore never get worse.
// It is not a global optimiser.
//
// Moves are
//   - with probability 0.2, a shift of the pivot by a point from the
//     unit ball times the scale
//   - otherwise, a pair of rotations about x then y, with angles from
//     PolarCap with cap angle equal to the scale.
//
// All random numbers come from one generator with a fixed seed, and the
// moves for a repetition are drawn before any of them are scored. This
// means the result does not depend on the number of worker goroutines.
package optim

import (
	"context"
	"io"
	"log/slog"
	"math"
	"math/rand"

	"github.com/andrew-torda/matrix"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/lukfugl/docking/pkg/basis"
	"github.com/lukfugl/docking/pkg/chain"
	"github.com/lukfugl/docking/pkg/energy"
)

const (
	randSeed   = 1637 // default seed
	pTranslate = 0.2  // probability of a shift rather than a rotation
)

// CostFun scores a pose. Lower is better. It will be called from more
// than one goroutine if there is more than one worker.
type CostFun func(b basis.Basis) float64

// StopReason says why a run finished.
type StopReason uint8

const (
	Completed   StopReason = iota // all levels were done
	Noop                          // nothing to do, pose unchanged
	Deadline                      // context cancelled or timed out
	BudgetSpent                   // trial budget used up
)

func (s StopReason) String() string {
	switch s {
	case Completed:
		return "completed"
	case Noop:
		return "noop"
	case Deadline:
		return "deadline"
	case BudgetSpent:
		return "budget"
	}
	return "unknown"
}

// Ctrl holds the settings for an optimisation.
type Ctrl struct {
	maxLevel int     // levels run from 0 to maxLevel inclusive
	trials   int     // moves per repetition
	coverage int     // repetitions per level
	seed     int64   // for the random number generator
	workers  int     // goroutines scoring moves
	budget   int     // max moves scored over the run, 0 for no limit
	cost     CostFun // function to be minimised
	logger   *slog.Logger
	metrics  *Metrics
}

// NewCtrl gives us a Ctrl with default values. The cost function must
// be given.
func NewCtrl(cost CostFun) *Ctrl {
	return &Ctrl{
		maxLevel: 8,
		trials:   100,
		coverage: 1,
		seed:     randSeed,
		workers:  1,
		cost:     cost,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// MaxLevel sets the last level. Levels run from 0 to i.
func (c *Ctrl) MaxLevel(i int) { c.maxLevel = i }

// Trials sets the number of moves tried in each repetition.
func (c *Ctrl) Trials(i int) { c.trials = i }

// Coverage sets the number of repetitions at each level.
func (c *Ctrl) Coverage(i int) { c.coverage = i }

// Seed sets the seed for the random number generator.
func (c *Ctrl) Seed(i int64) { c.seed = i }

// Workers sets the number of goroutines used for scoring. Less than one
// is taken as one.
func (c *Ctrl) Workers(i int) { c.workers = i }

// Budget limits the total number of moves scored. Zero means no limit.
func (c *Ctrl) Budget(i int) { c.budget = i }

// Logger sets where progress is logged. nil leaves it alone.
func (c *Ctrl) Logger(l *slog.Logger) {
	if l != nil {
		c.logger = l
	}
}

// Metrics sets the counters to update. nil means none.
func (c *Ctrl) Metrics(m *Metrics) { c.metrics = m }

// Result is what came out of a run.
type Result struct {
	RunID      string
	Start      basis.Basis
	Best       basis.Basis
	StartScore float64
	BestScore  float64
	LevelBest  []float64        // best score at the end of each level
	Trace      *matrix.FMatrix2d // [level][repetition] best score, NaN if not reached
	NTrial     int              // moves scored
	NImprove   int              // moves that were accepted
	Stopped    StopReason
}

// perturb makes one random move away from b.
func perturb(rnd *rand.Rand, b basis.Basis, scale float64) basis.Basis {
	if rnd.Float64() < pTranslate {
		v := UnitBall(rnd)
		v.X, v.Y, v.Z = v.X*scale, v.Y*scale, v.Z*scale
		return b.Translate(v)
	}
	phi, theta := PolarCap(rnd, scale)
	return b.RotateX(phi).RotateY(theta)
}

// score fills in scores for cands. If ctx is cancelled part way, it
// gives up and returns the context's error.
func (c *Ctrl) score(ctx context.Context, cands []basis.Basis, scores []float64) error {
	workers := min(c.workers, len(cands))
	if workers < 1 {
		workers = 1
	}
	chunk := (len(cands) + workers - 1) / workers
	g, gctx := errgroup.WithContext(ctx)
	for lo := 0; lo < len(cands); lo += chunk {
		hi := min(lo+chunk, len(cands))
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				scores[i] = c.cost(cands[i])
			}
			return nil
		})
	}
	return g.Wait()
}

// newTrace makes the level x repetition table, full of NaN.
func newTrace(nlevel, ncover int) *matrix.FMatrix2d {
	tr := matrix.NewFMatrix2d(nlevel, ncover)
	nan := float32(math.NaN())
	for _, row := range tr.Mat {
		for j := range row {
			row[j] = nan
		}
	}
	return tr
}

// Run searches, starting from start. It never returns a pose that
// scores worse than start.
// If trials, coverage or maxLevel make no sense, nothing is done and
// the result holds start, with Stopped set to Noop.
// ctx is checked between repetitions and while scoring. If it is
// cancelled, the repetition in progress is thrown away and the best
// pose so far is returned.
func (c *Ctrl) Run(ctx context.Context, start basis.Basis) *Result {
	res := &Result{RunID: uuid.NewString(), Start: start, Best: start}
	log := c.logger.With("run", res.RunID)
	if c.trials <= 0 || c.coverage <= 0 || c.maxLevel < 0 {
		res.Stopped = Noop
		log.Debug("nothing to do", "trials", c.trials,
			"coverage", c.coverage, "max_level", c.maxLevel)
		return res
	}

	rnd := rand.New(rand.NewSource(c.seed))
	res.StartScore = c.cost(start)
	res.BestScore = res.StartScore
	res.Trace = newTrace(c.maxLevel+1, c.coverage)
	cands := make([]basis.Basis, c.trials)
	scores := make([]float64, c.trials)
	log.Info("optimising", "start", res.StartScore, "max_level", c.maxLevel,
		"trials", c.trials, "coverage", c.coverage, "seed", c.seed)

	scale := 1.0
levels:
	for level := 0; level <= c.maxLevel; level++ {
		for rep := 0; rep < c.coverage; rep++ {
			if ctx.Err() != nil {
				res.Stopped = Deadline
				break levels
			}
			n := c.trials
			if c.budget > 0 {
				n = min(n, c.budget-res.NTrial)
				if n <= 0 {
					res.Stopped = BudgetSpent
					break levels
				}
			}
			from := res.Best
			for t := 0; t < n; t++ {
				cands[t] = perturb(rnd, from, scale)
			}
			if err := c.score(ctx, cands[:n], scores[:n]); err != nil {
				res.Stopped = Deadline
				break levels
			}
			nimp := 0
			for t := 0; t < n; t++ {
				if scores[t] < res.BestScore {
					res.BestScore = scores[t]
					res.Best = cands[t]
					nimp++
				}
			}
			res.NTrial += n
			res.NImprove += nimp
			c.metrics.addTrials(n)
			c.metrics.addImproved(nimp)
			res.Trace.Mat[level][rep] = float32(res.BestScore)
		}
		res.LevelBest = append(res.LevelBest, res.BestScore)
		c.metrics.levelDone(res.BestScore)
		log.Debug("level done", "level", level, "scale", scale, "best", res.BestScore)
		scale /= 2
	}
	log.Info("finished", "best", res.BestScore, "trials", res.NTrial,
		"improvements", res.NImprove, "stopped", res.Stopped)
	return res
}

// ChainCost scores mobile, placed by the pose being tried, against
// target in its current pose.
func ChainCost(mobile, target *chain.Chain, eng energy.Engine, radius float64) CostFun {
	return func(b basis.Basis) float64 {
		return eng.Chains(mobile, target, radius, b)
	}
}

// OptimizeChain runs ctrl from the current pose of mobile and makes the
// best pose found the pose of mobile. ctrl's cost function should be
// about mobile, as from ChainCost.
func OptimizeChain(ctx context.Context, ctrl *Ctrl, mobile *chain.Chain) *Result {
	res := ctrl.Run(ctx, mobile.Basis())
	if res.Best != mobile.Basis() {
		mobile.SetBasis(res.Best)
	}
	return res
}
