package config

import (
	"time"

	"saharasprout/aigate/pkg/policy"
)

// Default values applied to unset fields.
const (
	DefaultStoreBackend = "memory"

	DefaultRedisAddress     = "localhost:6379"
	DefaultRedisDialTimeout = 5 * time.Second

	DefaultSQLitePath = "aigate.db"

	DefaultCostThreshold  = 0.8
	DefaultUsageThreshold = 0.9

	// DefaultSweepSchedule runs the cache sweep every six hours.
	DefaultSweepSchedule = "0 */6 * * *"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultMetricsListenAddress = ":9464"
)

// ApplyDefaults fills unset fields with default values. Empty
// capability or tier maps are replaced with the built-in tables.
func ApplyDefaults(cfg *Config) {
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = DefaultStoreBackend
	}
	if cfg.Store.Redis.Address == "" {
		cfg.Store.Redis.Address = DefaultRedisAddress
	}
	if cfg.Store.Redis.DialTimeout == 0 {
		cfg.Store.Redis.DialTimeout = DefaultRedisDialTimeout
	}
	if cfg.Store.SQLite.Path == "" {
		cfg.Store.SQLite.Path = DefaultSQLitePath
	}

	if len(cfg.Capabilities) == 0 {
		cfg.Capabilities = defaultCapabilities()
	}
	if len(cfg.Tiers) == 0 {
		cfg.Tiers = defaultTiers()
	}

	if cfg.Warnings.CostThreshold == 0 {
		cfg.Warnings.CostThreshold = DefaultCostThreshold
	}
	if cfg.Warnings.UsageThreshold == 0 {
		cfg.Warnings.UsageThreshold = DefaultUsageThreshold
	}

	if cfg.Sweep.Schedule == "" {
		cfg.Sweep.Schedule = DefaultSweepSchedule
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLogFormat
	}

	if cfg.Metrics.ListenAddress == "" {
		cfg.Metrics.ListenAddress = DefaultMetricsListenAddress
	}
}

// defaultCapabilities exposes the built-in capability table in config
// form.
func defaultCapabilities() map[string]CapabilityConfig {
	caps := policy.DefaultCapabilities()
	out := make(map[string]CapabilityConfig, len(caps))
	for _, c := range caps {
		out[c.ID] = CapabilityConfig{
			Window:         c.Window,
			MaxRequests:    c.MaxRequests,
			CostPerRequest: c.CostPerRequest,
		}
	}
	return out
}

// defaultTiers exposes the built-in tier table in config form.
func defaultTiers() map[string]TierConfig {
	tiers := policy.DefaultTiers()
	out := make(map[string]TierConfig, len(tiers))
	for _, t := range tiers {
		out[string(t.Tier)] = TierConfig{
			RequestMultiplier: t.RequestMultiplier,
			DailyCostCeiling:  t.DailyCostCeiling,
		}
	}
	return out
}
