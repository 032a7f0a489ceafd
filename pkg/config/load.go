package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads configuration from a YAML file, applies defaults, applies
// AIGATE_* environment variable overrides and validates the result.
// Environment variables always take precedence over file values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// Default returns the built-in configuration, with environment
// overrides applied, for running without a config file.
func Default() (*Config, error) {
	var cfg Config
	ApplyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// applyEnvOverrides applies AIGATE_SECTION_FIELD environment variable
// overrides.
func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("AIGATE_STORE_BACKEND"); val != "" {
		cfg.Store.Backend = val
	}
	if val := os.Getenv("AIGATE_REDIS_ADDRESS"); val != "" {
		cfg.Store.Redis.Address = val
	}
	if val := os.Getenv("AIGATE_REDIS_PASSWORD"); val != "" {
		cfg.Store.Redis.Password = val
	}
	if val := os.Getenv("AIGATE_REDIS_DB"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Store.Redis.DB = i
		}
	}
	if val := os.Getenv("AIGATE_REDIS_KEY_PREFIX"); val != "" {
		cfg.Store.Redis.KeyPrefix = val
	}
	if val := os.Getenv("AIGATE_REDIS_DIAL_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Store.Redis.DialTimeout = d
		}
	}
	if val := os.Getenv("AIGATE_SQLITE_PATH"); val != "" {
		cfg.Store.SQLite.Path = val
	}

	if val := os.Getenv("AIGATE_WARNINGS_COST_THRESHOLD"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Warnings.CostThreshold = f
		}
	}
	if val := os.Getenv("AIGATE_WARNINGS_USAGE_THRESHOLD"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Warnings.UsageThreshold = f
		}
	}

	if val := os.Getenv("AIGATE_SWEEP_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Sweep.Enabled = b
		}
	}
	if val := os.Getenv("AIGATE_SWEEP_SCHEDULE"); val != "" {
		cfg.Sweep.Schedule = val
	}

	if val := os.Getenv("AIGATE_LOGGING_LEVEL"); val != "" {
		cfg.Logging.Level = val
	}
	if val := os.Getenv("AIGATE_LOGGING_FORMAT"); val != "" {
		cfg.Logging.Format = val
	}

	if val := os.Getenv("AIGATE_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("AIGATE_METRICS_LISTEN_ADDRESS"); val != "" {
		cfg.Metrics.ListenAddress = val
	}
}
