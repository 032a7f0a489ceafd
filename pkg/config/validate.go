package config

import (
	"fmt"

	"github.com/robfig/cron/v3"

	"saharasprout/aigate/pkg/policy"
)

// Validate checks the configuration for consistency. It is called after
// defaults and environment overrides have been applied.
func Validate(cfg *Config) error {
	switch cfg.Store.Backend {
	case "redis":
		if cfg.Store.Redis.Address == "" {
			return fmt.Errorf("store.redis.address cannot be empty")
		}
		if cfg.Store.Redis.DialTimeout <= 0 {
			return fmt.Errorf("store.redis.dial_timeout must be positive")
		}
	case "sqlite":
		if cfg.Store.SQLite.Path == "" {
			return fmt.Errorf("store.sqlite.path cannot be empty")
		}
	case "memory":
	default:
		return fmt.Errorf("store.backend must be one of redis, memory, sqlite, got %q", cfg.Store.Backend)
	}

	if len(cfg.Capabilities) == 0 {
		return fmt.Errorf("capabilities cannot be empty")
	}
	for id, c := range cfg.Capabilities {
		if id == "" {
			return fmt.Errorf("capability identifier cannot be empty")
		}
		if c.Window <= 0 {
			return fmt.Errorf("capability %q: window must be positive", id)
		}
		if c.MaxRequests <= 0 {
			return fmt.Errorf("capability %q: max_requests must be positive", id)
		}
		if c.CostPerRequest < 0 {
			return fmt.Errorf("capability %q: cost_per_request cannot be negative", id)
		}
	}

	for _, tier := range policy.Tiers {
		if _, ok := cfg.Tiers[string(tier)]; !ok {
			return fmt.Errorf("tiers: missing tier %q", tier)
		}
	}
	for name, t := range cfg.Tiers {
		if t.RequestMultiplier <= 0 {
			return fmt.Errorf("tier %q: request_multiplier must be positive", name)
		}
		if t.DailyCostCeiling <= 0 {
			return fmt.Errorf("tier %q: daily_cost_ceiling must be positive", name)
		}
	}
	for i := 1; i < len(policy.Tiers); i++ {
		lower := cfg.Tiers[string(policy.Tiers[i-1])]
		higher := cfg.Tiers[string(policy.Tiers[i])]
		if higher.RequestMultiplier <= lower.RequestMultiplier {
			return fmt.Errorf("tier %q: request_multiplier must exceed tier %q's", policy.Tiers[i], policy.Tiers[i-1])
		}
		if higher.DailyCostCeiling <= lower.DailyCostCeiling {
			return fmt.Errorf("tier %q: daily_cost_ceiling must exceed tier %q's", policy.Tiers[i], policy.Tiers[i-1])
		}
	}

	if cfg.Warnings.CostThreshold <= 0 || cfg.Warnings.CostThreshold > 1 {
		return fmt.Errorf("warnings.cost_threshold must be in (0, 1], got %v", cfg.Warnings.CostThreshold)
	}
	if cfg.Warnings.UsageThreshold <= 0 || cfg.Warnings.UsageThreshold > 1 {
		return fmt.Errorf("warnings.usage_threshold must be in (0, 1], got %v", cfg.Warnings.UsageThreshold)
	}

	if cfg.Sweep.Enabled {
		if _, err := cron.ParseStandard(cfg.Sweep.Schedule); err != nil {
			return fmt.Errorf("sweep.schedule: %w", err)
		}
	}

	if cfg.Metrics.Enabled && cfg.Metrics.ListenAddress == "" {
		return fmt.Errorf("metrics.listen_address cannot be empty when metrics are enabled")
	}

	return nil
}
