// 19 Oct 2026

package dock

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/lukfugl/docking/pkg/common"
	"github.com/lukfugl/docking/pkg/config"
	"github.com/lukfugl/docking/pkg/energy"
	"github.com/lukfugl/docking/pkg/optim"
	"github.com/lukfugl/docking/pkg/plot"
	"github.com/lukfugl/docking/pkg/xbgf"
)

// usageError is for mistakes on the command line.
type usageError struct{ error }

func (u usageError) Unwrap() error { return u.error }

func nArgs(lo, hi int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) < lo || len(args) > hi {
			return usageError{fmt.Errorf("%s wants %d to %d files, got %d", cmd.Name(), lo, hi, len(args))}
		}
		return nil
	}
}

// app is what the subcommands share once the flags and the config file
// have been looked at.
type app struct {
	stdout io.Writer
	cfg    config.Config
	eng    energy.Engine
	log    *slog.Logger
	closer io.Closer

	// flags
	cfgFile, logDest, logLevel, terms string
	strict                            bool
	radius                            float64
	maxLevel, trials, coverage        int
	workers, budget                   int
	seed                              int64
	timeout                           time.Duration
	rx, ry, rz                        float64
	out, plotFile                     string
}

// setup loads the config and lets any flags that were given override it.
func (a *app) setup(cmd *cobra.Command) error {
	cfg := config.Default()
	if a.cfgFile != "" {
		var err error
		if cfg, err = config.Load(a.cfgFile); err != nil {
			return err
		}
	}
	fl := cmd.Flags()
	if fl.Changed("log") {
		cfg.Log.Dest = a.logDest
	}
	if fl.Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if fl.Changed("strict") {
		cfg.Strict = a.strict
	}
	if fl.Changed("radius") {
		cfg.Radius = a.radius
	}
	if fl.Changed("terms") {
		cfg.Terms = a.terms
	}
	if fl.Changed("max-level") {
		cfg.MaxLevel = a.maxLevel
	}
	if fl.Changed("trials") {
		cfg.Trials = a.trials
	}
	if fl.Changed("coverage") {
		cfg.Coverage = a.coverage
	}
	if fl.Changed("seed") {
		cfg.Seed = a.seed
	}
	if fl.Changed("workers") {
		cfg.Workers = a.workers
	}
	if fl.Changed("budget") {
		cfg.Budget = a.budget
	}
	if fl.Changed("timeout") {
		cfg.Timeout = a.timeout
	}
	if err := cfg.Validate(); err != nil {
		return usageError{err}
	}
	var err error
	if a.eng, err = cfg.Engine(); err != nil {
		return err
	}
	if a.log, a.closer, err = cfg.Logger(); err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

func (a *app) opts() xbgf.Options {
	return xbgf.Options{Strict: a.cfg.Strict, Logger: a.log}
}

// pair picks the chains to work on. The target is the first chain in
// the first file. The mobile chain is the first chain of the second
// file or, if there is only one file, the second chain of the first.
func (a *app) pair(args []string) (target, mobile *Chain, all []*Chain, err error) {
	chains, err := LoadChains(args[0], a.opts())
	if err != nil {
		return nil, nil, nil, err
	}
	if len(args) == 1 {
		if len(chains) < 2 {
			return nil, nil, nil, fmt.Errorf("%s has %d chain, need two", args[0], len(chains))
		}
		return chains[0], chains[1], chains, nil
	}
	other, err := LoadChains(args[1], a.opts())
	if err != nil {
		return nil, nil, nil, err
	}
	return chains[0], other[0], []*Chain{chains[0], other[0]}, nil
}

func (a *app) score(cmd *cobra.Command, args []string) error {
	target, mobile, _, err := a.pair(args)
	if err != nil {
		return err
	}
	mobile.RotateX(a.rx)
	mobile.RotateY(a.ry)
	mobile.RotateZ(a.rz)
	e := a.eng.Committed(mobile.Chain, target.Chain, a.cfg.Radius)
	a.log.Debug("score", "target", target.Name(), "mobile", mobile.Name(), "terms", a.eng.Terms)
	fmt.Fprintf(a.stdout, "%.6g\n", e)
	return nil
}

func writeFile(fname string, chains []*Chain) error {
	fp, err := os.Create(fname)
	if err != nil {
		return err
	}
	if err := WriteAll(fp, chains...); err != nil {
		fp.Close()
		return err
	}
	return fp.Close()
}

// logMetrics puts the final value of each optimiser metric in the log.
func logMetrics(log *slog.Logger, reg *prometheus.Registry) {
	mfs, err := reg.Gather()
	if err != nil {
		log.Warn("gathering metrics", "error", err)
		return
	}
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				log.Debug("metric", "name", mf.GetName(), "value", m.GetCounter().GetValue())
			case m.GetGauge() != nil:
				log.Debug("metric", "name", mf.GetName(), "value", m.GetGauge().GetValue())
			}
		}
	}
}

func (a *app) optimize(cmd *cobra.Command, args []string) error {
	target, mobile, all, err := a.pair(args)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if a.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Timeout)
		defer cancel()
	}
	reg := prometheus.NewRegistry()
	res := mobile.OptimizeAgainst(ctx, target, a.cfg.MaxLevel, a.cfg.Trials, a.cfg.Coverage,
		a.cfg.Radius, WithSeed(a.cfg.Seed), WithWorkers(a.cfg.Workers), WithBudget(a.cfg.Budget),
		WithLogger(a.log), WithEngine(a.eng), WithMetrics(optim.NewMetrics(reg)))
	logMetrics(a.log, reg)

	fmt.Fprintf(a.stdout, "start %g\nbest %g\ntrials %d\nstopped %s\n",
		res.StartScore, res.BestScore, res.NTrial, res.Stopped)
	if a.out != "" {
		if err := writeFile(a.out, all); err != nil {
			return err
		}
	}
	if a.plotFile != "" {
		if len(res.LevelBest) == 0 {
			a.log.Warn("no levels finished, no plot", "file", a.plotFile)
			return nil
		}
		fp, err := os.Create(a.plotFile)
		if err != nil {
			return err
		}
		title := fmt.Sprintf("%s against %s", mobile.Name(), target.Name())
		if err := plot.Trace(fp, res.LevelBest, title); err != nil {
			fp.Close()
			return err
		}
		return fp.Close()
	}
	return nil
}

func (a *app) write(cmd *cobra.Command, args []string) error {
	chains, err := LoadChains(args[0], a.opts())
	if err != nil {
		return err
	}
	if a.out != "" {
		return writeFile(a.out, chains)
	}
	return WriteAll(a.stdout, chains...)
}

func newRoot(a *app) *cobra.Command {
	def := config.Default()
	root := &cobra.Command{
		Use:           "dock",
		Short:         "Score and rigidly dock charged chains from xbgf files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error { return usageError{err} })
	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "yaml config file")
	pf.StringVar(&a.logDest, "log", def.Log.Dest, `log to "" (nowhere), stdout, stderr or a file`)
	pf.StringVar(&a.logLevel, "log-level", def.Log.Level, "debug, info, warn or error")
	pf.BoolVar(&a.strict, "strict", def.Strict, "stop at the first bad record")
	pf.Float64Var(&a.radius, "radius", def.Radius, "interaction cutoff")
	pf.StringVar(&a.terms, "terms", def.Terms, "coulomb, vdw or coulomb+vdw")

	score := &cobra.Command{
		Use:   "score FILE [PARTNER]",
		Short: "Print the interaction energy of two chains",
		Args:  nArgs(1, 2),
		RunE:  a.score,
	}
	score.Flags().Float64Var(&a.rx, "rx", 0, "rotate the mobile chain about x first (radians)")
	score.Flags().Float64Var(&a.ry, "ry", 0, "then about y")
	score.Flags().Float64Var(&a.rz, "rz", 0, "then about z")

	opt := &cobra.Command{
		Use:   "optimize FILE [PARTNER]",
		Short: "Move the mobile chain to lower the energy",
		Args:  nArgs(1, 2),
		RunE:  a.optimize,
	}
	of := opt.Flags()
	of.IntVar(&a.maxLevel, "max-level", def.MaxLevel, "last refinement level")
	of.IntVar(&a.trials, "trials", def.Trials, "moves per repetition")
	of.IntVar(&a.coverage, "coverage", def.Coverage, "repetitions per level")
	of.Int64Var(&a.seed, "seed", def.Seed, "random number seed")
	of.IntVar(&a.workers, "workers", def.Workers, "goroutines scoring moves")
	of.IntVar(&a.budget, "budget", def.Budget, "stop after this many moves, 0 for no limit")
	of.DurationVar(&a.timeout, "timeout", def.Timeout, "stop after this long, 0 for no limit")
	of.StringVarP(&a.out, "out", "o", "", "write both chains here after docking")
	of.StringVar(&a.plotFile, "plot", "", "write a PNG of the best score per level here")

	wrt := &cobra.Command{
		Use:   "write FILE",
		Short: "Read a file and write it out again",
		Args:  nArgs(1, 1),
		RunE:  a.write,
	}
	wrt.Flags().StringVarP(&a.out, "out", "o", "", "output file instead of standard output")

	root.AddCommand(score, opt, wrt)
	return root
}

// MyMain is the top level main. It returns the exit code.
func MyMain(args []string, stdout, stderr io.Writer) int {
	a := &app{stdout: stdout}
	root := newRoot(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.ExecuteContext(context.Background())
	if a.closer != nil {
		if cerr := a.closer.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	if err == nil {
		return common.ExitSuccess
	}
	fmt.Fprintln(stderr, "dock:", err)
	var ue usageError
	if errors.As(err, &ue) || strings.HasPrefix(err.Error(), "unknown command") {
		fmt.Fprintln(stderr, "see: dock --help")
		return common.ExitUsageError
	}
	return common.ExitFailure
}
