// Package config defines the YAML configuration surface and its
// loading pipeline: parse, apply defaults, apply environment overrides,
// validate.
package config

import (
	"fmt"
	"sort"
	"time"

	"saharasprout/aigate/pkg/policy"
)

// Config is the root configuration structure.
type Config struct {
	// Store selects and configures the shared counter store backend.
	Store StoreConfig `yaml:"store"`

	// Capabilities maps capability identifiers to their quota policies.
	// Empty means the built-in capability table.
	Capabilities map[string]CapabilityConfig `yaml:"capabilities"`

	// Tiers maps tier names to their policies. Empty means the
	// built-in tier table.
	Tiers map[string]TierConfig `yaml:"tiers"`

	// Warnings configures the proximity-to-limit thresholds.
	Warnings WarningsConfig `yaml:"warnings"`

	// Sweep configures the periodic cache sweep.
	Sweep SweepConfig `yaml:"sweep"`

	// Logging configures the structured logger.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics configures the Prometheus exposition endpoint.
	Metrics MetricsConfig `yaml:"metrics"`
}

// StoreConfig selects the store backend.
type StoreConfig struct {
	// Backend is one of "redis", "memory", "sqlite".
	Backend string `yaml:"backend"`

	Redis  RedisConfig  `yaml:"redis"`
	SQLite SQLiteConfig `yaml:"sqlite"`
}

// RedisConfig configures the Redis backend.
type RedisConfig struct {
	Address     string        `yaml:"address"`
	Password    string        `yaml:"password"`
	DB          int           `yaml:"db"`
	KeyPrefix   string        `yaml:"key_prefix"`
	DialTimeout time.Duration `yaml:"dial_timeout"`
}

// SQLiteConfig configures the SQLite backend.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// CapabilityConfig is one capability's quota policy.
type CapabilityConfig struct {
	Window         time.Duration `yaml:"window"`
	MaxRequests    int           `yaml:"max_requests"`
	CostPerRequest float64       `yaml:"cost_per_request"`
}

// TierConfig is one subscription tier's policy.
type TierConfig struct {
	RequestMultiplier float64 `yaml:"request_multiplier"`
	DailyCostCeiling  float64 `yaml:"daily_cost_ceiling"`
}

// WarningsConfig holds the warning thresholds as fractions of the
// respective ceilings.
type WarningsConfig struct {
	CostThreshold  float64 `yaml:"cost_threshold"`
	UsageThreshold float64 `yaml:"usage_threshold"`
}

// SweepConfig configures the periodic cache sweep.
type SweepConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Schedule string `yaml:"schedule"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level     string `yaml:"level"`
	Format    string `yaml:"format"`
	AddSource bool   `yaml:"add_source"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled       bool   `yaml:"enabled"`
	ListenAddress string `yaml:"listen_address"`
}

// PolicyTable converts the configured capability and tier maps into an
// immutable policy table. The table performs its own structural
// validation; Validate should have been run first for the richer config
// diagnostics.
func (c *Config) PolicyTable() (*policy.Table, error) {
	capIDs := make([]string, 0, len(c.Capabilities))
	for id := range c.Capabilities {
		capIDs = append(capIDs, id)
	}
	sort.Strings(capIDs)

	capabilities := make([]policy.CapabilityPolicy, 0, len(capIDs))
	for _, id := range capIDs {
		cc := c.Capabilities[id]
		capabilities = append(capabilities, policy.CapabilityPolicy{
			ID:             id,
			Window:         cc.Window,
			MaxRequests:    cc.MaxRequests,
			CostPerRequest: cc.CostPerRequest,
		})
	}

	tiers := make([]policy.TierPolicy, 0, len(c.Tiers))
	for name, tc := range c.Tiers {
		tiers = append(tiers, policy.TierPolicy{
			Tier:              policy.Tier(name),
			RequestMultiplier: tc.RequestMultiplier,
			DailyCostCeiling:  tc.DailyCostCeiling,
		})
	}

	table, err := policy.NewTable(capabilities, tiers)
	if err != nil {
		return nil, fmt.Errorf("invalid policy configuration: %w", err)
	}
	return table, nil
}
