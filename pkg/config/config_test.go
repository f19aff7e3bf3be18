package config_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lukfugl/docking/pkg/config"
	"github.com/lukfugl/docking/pkg/energy"
)

func writeTmp(t *testing.T, text string) string {
	t.Helper()
	fname := filepath.Join(t.TempDir(), "dock.yaml")
	require.NoError(t, os.WriteFile(fname, []byte(text), 0o644))
	return fname
}

func TestDefaultIsValid(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.Validate())
	eng, err := cfg.Engine()
	require.NoError(t, err)
	assert.Equal(t, energy.Default, eng)
	assert.Equal(t, energy.DefaultRadius, cfg.Radius)
}

func TestLoad(t *testing.T) {
	fname := writeTmp(t, `
radius: 8.5
trials: 40
timeout: 2m30s
terms: coulomb
log:
  level: debug
`)
	cfg, err := config.Load(fname)
	require.NoError(t, err)
	assert.Equal(t, 8.5, cfg.Radius)
	assert.Equal(t, 40, cfg.Trials)
	assert.Equal(t, 150*time.Second, cfg.Timeout)
	assert.Equal(t, "debug", cfg.Log.Level)
	// untouched keys keep their defaults
	assert.Equal(t, 8, cfg.MaxLevel)
	assert.Equal(t, "stderr", cfg.Log.Dest)
	eng, err := cfg.Engine()
	require.NoError(t, err)
	assert.Equal(t, energy.Coulomb, eng.Terms)
}

func TestLoadEmpty(t *testing.T) {
	cfg, err := config.Load(writeTmp(t, ""))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

var badconfigs = []struct {
	name, text string
}{
	{"unknown key", "trails: 3\n"},
	{"zero radius", "radius: 0\n"},
	{"negative workers", "workers: -2\n"},
	{"negative budget", "budget: -1\n"},
	{"negative timeout", "timeout: -1s\n"},
	{"bad terms", "terms: gravity\n"},
	{"bad level", "log:\n  level: loud\n"},
	{"not yaml", "radius: [\n"},
}

func TestLoadBad(t *testing.T) {
	for _, tt := range badconfigs {
		_, err := config.Load(writeTmp(t, tt.text))
		assert.Error(t, err, tt.name)
	}
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

// TestNoopSettingsAreValid: a run that does nothing is allowed.
func TestNoopSettingsAreValid(t *testing.T) {
	cfg := config.Default()
	cfg.Trials, cfg.Coverage, cfg.MaxLevel = 0, 0, -1
	assert.NoError(t, cfg.Validate())
}

func TestLoggerFile(t *testing.T) {
	cfg := config.Default()
	cfg.Log.Dest = filepath.Join(t.TempDir(), "dock.log")
	cfg.Log.Level = "warn"
	log, closer, err := cfg.Logger()
	require.NoError(t, err)
	log.Info("quiet")
	log.Warn("loud", "n", 3)
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(cfg.Log.Dest)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "loud", rec["msg"])
	assert.Equal(t, 3.0, rec["n"])
}

func TestLoggerDiscard(t *testing.T) {
	cfg := config.Default()
	cfg.Log.Dest = ""
	log, closer, err := cfg.Logger()
	require.NoError(t, err)
	log.Error("nobody hears this")
	assert.NoError(t, closer.Close())
}
