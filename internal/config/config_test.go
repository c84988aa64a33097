package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"icrank/domain/stats"
	"icrank/internal"
	"icrank/internal/errors"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvMetric, EnvNFeatures, EnvAscending, EnvNSamplings, EnvConfidence,
		EnvNPerms, EnvDirection, EnvSortReference, EnvReferenceAscending, EnvSeed, EnvWorkers, EnvLogLevel} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, stats.DefaultConfig(), cfg.Ranking)
	assert.Equal(t, internal.LogLevelInfo, cfg.Log.Level)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv(EnvMetric, "pearson")
	t.Setenv(EnvNFeatures, "10")
	t.Setenv(EnvAscending, "true")
	t.Setenv(EnvNSamplings, "0")
	t.Setenv(EnvConfidence, "0.99")
	t.Setenv(EnvNPerms, "100")
	t.Setenv(EnvDirection, "less_is_better")
	t.Setenv(EnvSortReference, "false")
	t.Setenv(EnvSeed, "7")
	t.Setenv(EnvWorkers, "3")
	t.Setenv(EnvLogLevel, "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "pearson", cfg.Ranking.Metric)
	assert.Equal(t, 10.0, cfg.Ranking.NFeatures)
	assert.True(t, cfg.Ranking.Ascending)
	assert.Equal(t, 0, cfg.Ranking.NSamplings)
	assert.Equal(t, 0.99, cfg.Ranking.Confidence)
	assert.Equal(t, 100, cfg.Ranking.NPerms)
	assert.Equal(t, stats.LessIsBetter, cfg.Ranking.Direction)
	assert.False(t, cfg.Ranking.SortReference)
	assert.Equal(t, int64(7), cfg.Ranking.Seed)
	assert.Equal(t, 3, cfg.Ranking.Workers)
	assert.Equal(t, internal.LogLevelDebug, cfg.Log.Level)
}

func TestLoad_MalformedNumberFallsBack(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvNPerms, "lots")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, stats.DefaultConfig().NPerms, cfg.Ranking.NPerms)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"confidence out of range", EnvConfidence, "1.5"},
		{"quantile zero", EnvNFeatures, "0"},
		{"no permutations", EnvNPerms, "0"},
		{"bad direction", EnvDirection, "sideways"},
		{"negative workers", EnvWorkers, "-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
		})
	}
}
