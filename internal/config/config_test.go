package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenEnvUnset(t *testing.T) {
	for _, key := range envBindings {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "scenarios/", cfg.ScenariosDir)
	assert.Equal(t, 4, cfg.TraceNumWorkers)
	assert.Nil(t, cfg.RngSeed)
}

func TestLoadOverridesFromEnv(t *testing.T) {
	t.Setenv("SCENARIOS_DIR", "/tmp/scenarios")
	t.Setenv("TRACE_INTERVAL_MIN", "0.1")
	t.Setenv("TRACE_INTERVAL_MAX", "0.5")
	t.Setenv("TRACE_NUM_WORKERS", "8")
	t.Setenv("RNG_SEED", "42")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/scenarios", cfg.ScenariosDir)
	assert.Equal(t, 100*time.Millisecond, cfg.TraceIntervalMin)
	assert.Equal(t, 500*time.Millisecond, cfg.TraceIntervalMax)
	assert.Equal(t, 8, cfg.TraceNumWorkers)
	require.NotNil(t, cfg.RngSeed)
	assert.Equal(t, uint64(42), *cfg.RngSeed)
}

func TestLoadParsesFractionalSecondsInterval(t *testing.T) {
	t.Setenv("TRACE_INTERVAL_MIN", "0.25")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, cfg.TraceIntervalMin)
}

func TestLoadContextStoreMaxSizeAutoSentinel(t *testing.T) {
	t.Setenv("CONTEXT_STORE_MAX_SIZE", "auto")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.ContextStoreAutoSize)
}

func TestLoadContextStoreMaxSizeNumeric(t *testing.T) {
	t.Setenv("CONTEXT_STORE_MAX_SIZE", "250")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.ContextStoreAutoSize)
	assert.Equal(t, 250, cfg.ContextStoreMaxSize)
}

func TestLoadRejectsInvalidDuration(t *testing.T) {
	t.Setenv("TRACE_INTERVAL_MIN", "not-a-number")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsInvalidWorkerCount(t *testing.T) {
	t.Setenv("TRACE_NUM_WORKERS", "not-a-number")

	_, err := Load()
	assert.Error(t, err)
}
