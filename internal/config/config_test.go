package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultEngine_IsValid(t *testing.T) {
	engine := DefaultEngine()
	require.NoError(t, engine.Validate())
	assert.Equal(t, 30, engine.LookbackDays)
	assert.Equal(t, 24.0, engine.MaxRatePerDay)
	assert.Equal(t, 100.0, engine.NearDueThreshold)
	assert.Equal(t, 1000.0, engine.FarFutureThreshold)
	assert.Equal(t, 30*24*time.Hour, engine.Lookback())
}

func TestEngineConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*EngineConfig)
	}{
		{"negative lookback", func(e *EngineConfig) { e.LookbackDays = -1 }},
		{"validation lookback shorter", func(e *EngineConfig) { e.ValidationLookbackDays = 10 }},
		{"zero rate", func(e *EngineConfig) { e.MaxRatePerDay = 0 }},
		{"zero long gap", func(e *EngineConfig) { e.LongGapDays = 0 }},
		{"negative reset tolerance", func(e *EngineConfig) { e.ResetTolerance = -5 }},
		{"zero far future", func(e *EngineConfig) { e.FarFutureThreshold = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := DefaultEngine()
			tt.mutate(&engine)
			assert.Error(t, engine.Validate())
		})
	}
}

func TestLoadEngine_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.yaml")
	content := "max_rate_per_day: 20\nnear_due_threshold: 50\nmin_pair_elapsed: 30m\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	engine, err := LoadEngine(path)
	require.NoError(t, err)
	assert.Equal(t, 20.0, engine.MaxRatePerDay)
	assert.Equal(t, 50.0, engine.NearDueThreshold)
	assert.Equal(t, 30*time.Minute, engine.MinPairElapsed)
	assert.Equal(t, 30, engine.LookbackDays)
	assert.Equal(t, 1000.0, engine.FarFutureThreshold)
}

func TestLoadEngine_MissingFile(t *testing.T) {
	_, err := LoadEngine(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("REPORT_WORKERS", "3")
	t.Setenv("COST_TIMEOUT", "2s")
	t.Setenv("RATE_LIMIT_PER_SEC", "1.5")
	t.Setenv("ENGINE_CONFIG", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, 2*time.Second, cfg.CostTimeout)
	assert.Equal(t, 1.5, cfg.RateLimitPerSec)
	assert.Equal(t, DefaultEngine(), cfg.Engine)
}

func TestLoad_InvalidWorkersFallsBack(t *testing.T) {
	t.Setenv("REPORT_WORKERS", "0")
	t.Setenv("ENGINE_CONFIG", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Workers)
}

func TestLoad_InvalidEngineFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_rate_per_day: -1\n"), 0o600))
	t.Setenv("ENGINE_CONFIG", path)

	_, err := Load()
	assert.Error(t, err)
}
