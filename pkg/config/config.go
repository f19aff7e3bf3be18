// Package config holds the settings for a docking run. They come from
// a yaml file and are then overridden from the command line.
//
// An example file, with the default values:
//
//	radius: 12
//	max_level: 8
//	trials: 100
//	coverage: 1
//	seed: 1637
//	workers: 1
//	budget: 0        # 0 means no limit
//	timeout: 0s      # 0 means no limit
//	strict: false
//	terms: coulomb+vdw
//	log:
//	  dest: stderr   # "" throws logging away, stdout, stderr or a file name
//	  level: info
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lukfugl/docking/pkg/energy"
)

// Log says where logging goes and how much of it.
type Log struct {
	Dest  string `yaml:"dest"`
	Level string `yaml:"level"`
}

// Config is everything a run needs apart from the input files.
type Config struct {
	Radius   float64       `yaml:"radius"`
	MaxLevel int           `yaml:"max_level"`
	Trials   int           `yaml:"trials"`
	Coverage int           `yaml:"coverage"`
	Seed     int64         `yaml:"seed"`
	Workers  int           `yaml:"workers"`
	Budget   int           `yaml:"budget"`
	Timeout  time.Duration `yaml:"timeout"`
	Strict   bool          `yaml:"strict"`
	Terms    string        `yaml:"terms"`
	Log      Log           `yaml:"log"`
}

// Default returns the settings used when nothing else is said.
func Default() Config {
	return Config{
		Radius:   energy.DefaultRadius,
		MaxLevel: 8,
		Trials:   100,
		Coverage: 1,
		Seed:     1637,
		Workers:  1,
		Terms:    energy.All.String(),
		Log:      Log{Dest: "stderr", Level: "info"},
	}
}

// Load reads fname on top of the defaults. Unknown keys are an error.
// An empty file gives the defaults.
func Load(fname string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(fname)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parsing config %s: %w", fname, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", fname, err)
	}
	return cfg, nil
}

// Validate checks values that would make a run meaningless. Zero or
// negative trials, coverage or levels are allowed. They give a run
// that does nothing.
func (c Config) Validate() error {
	if !(c.Radius > 0) || math.IsInf(c.Radius, 0) {
		return fmt.Errorf("radius %g must be positive and finite", c.Radius)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers %d is negative", c.Workers)
	}
	if c.Budget < 0 {
		return fmt.Errorf("budget %d is negative", c.Budget)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout %v is negative", c.Timeout)
	}
	if _, err := energy.ParseTerms(c.Terms); err != nil {
		return err
	}
	if _, err := c.level(); err != nil {
		return err
	}
	return nil
}

// Engine returns the energy function the config asks for.
func (c Config) Engine() (energy.Engine, error) {
	t, err := energy.ParseTerms(c.Terms)
	if err != nil {
		return energy.Engine{}, err
	}
	return energy.Engine{Terms: t}, nil
}

func (c Config) level() (slog.Level, error) {
	var lvl slog.Level
	if c.Log.Level == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return lvl, fmt.Errorf("log level %q: %w", c.Log.Level, err)
	}
	return lvl, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Logger decides where to send the logged output. An empty destination
// throws it away, "stdout" and "stderr" are text, anything else is a
// file that we append json lines to. The caller should Close what
// comes back when finished.
func (c Config) Logger() (*slog.Logger, io.Closer, error) {
	lvl, err := c.level()
	if err != nil {
		return nil, nil, err
	}
	opts := &slog.HandlerOptions{Level: lvl}
	switch c.Log.Dest {
	case "":
		return slog.New(slog.NewTextHandler(io.Discard, opts)), nopCloser{}, nil
	case "stdout":
		return slog.New(slog.NewTextHandler(os.Stdout, opts)), nopCloser{}, nil
	case "stderr":
		return slog.New(slog.NewTextHandler(os.Stderr, opts)), nopCloser{}, nil
	}
	fp, err := os.OpenFile(c.Log.Dest, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("log file: %w", err)
	}
	return slog.New(slog.NewJSONHandler(fp, opts)), fp, nil
}
