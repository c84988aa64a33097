package config

import (
	"os"
	"strconv"

	"icrank/domain/stats"
	"icrank/internal"
	"icrank/internal/errors"
)

// Environment keys
const (
	EnvMetric             = "ICRANK_METRIC"
	EnvNFeatures          = "ICRANK_N_FEATURES"
	EnvAscending          = "ICRANK_ASCENDING"
	EnvNSamplings         = "ICRANK_N_SAMPLINGS"
	EnvConfidence         = "ICRANK_CONFIDENCE"
	EnvNPerms             = "ICRANK_N_PERMS"
	EnvDirection          = "ICRANK_DIRECTION"
	EnvSortReference      = "ICRANK_SORT_REFERENCE"
	EnvReferenceAscending = "ICRANK_REFERENCE_ASCENDING"
	EnvSeed               = "ICRANK_SEED"
	EnvWorkers            = "ICRANK_WORKERS"
	EnvLogLevel           = "LOG_LEVEL"
)

// Config represents the complete application configuration
type Config struct {
	Ranking stats.Config
	Log     LogConfig
}

// LogConfig holds logging settings
type LogConfig struct {
	Level   internal.LogLevel
	NoColor bool
}

// Load reads configuration from environment variables and validates it.
// Unset keys keep the defaults of stats.DefaultConfig.
func Load() (*Config, error) {
	config := &Config{
		Ranking: loadRankingConfig(),
		Log:     loadLogConfig(),
	}

	if err := Validate(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func loadRankingConfig() stats.Config {
	d := stats.DefaultConfig()
	return stats.Config{
		Metric:             getEnvOrDefault(EnvMetric, d.Metric),
		NFeatures:          getEnvFloatOrDefault(EnvNFeatures, d.NFeatures),
		Ascending:          getEnvBoolOrDefault(EnvAscending, d.Ascending),
		NSamplings:         getEnvIntOrDefault(EnvNSamplings, d.NSamplings),
		Confidence:         getEnvFloatOrDefault(EnvConfidence, d.Confidence),
		NPerms:             getEnvIntOrDefault(EnvNPerms, d.NPerms),
		Direction:          stats.Direction(getEnvOrDefault(EnvDirection, string(d.Direction))),
		SortReference:      getEnvBoolOrDefault(EnvSortReference, d.SortReference),
		ReferenceAscending: getEnvBoolOrDefault(EnvReferenceAscending, d.ReferenceAscending),
		Seed:               int64(getEnvIntOrDefault(EnvSeed, int(d.Seed))),
		Workers:            getEnvIntOrDefault(EnvWorkers, d.Workers),
	}
}

func loadLogConfig() LogConfig {
	level, ok := internal.ParseLogLevel(getEnvOrDefault(EnvLogLevel, "info"))
	if !ok {
		level = internal.LogLevelInfo
	}
	_, noColor := os.LookupEnv("NO_COLOR")
	return LogConfig{Level: level, NoColor: noColor}
}

// Validate checks the ranking parameters and returns CONFIG_INVALID errors
func Validate(config *Config) error {
	if err := config.Ranking.Validate(); err != nil {
		return errors.Wrap(err, "invalid ranking parameters")
	}
	if config.Ranking.Workers < 0 {
		return errors.ConfigInvalid("workers must be >= 0")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
