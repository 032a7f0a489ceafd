package ledger

import "saharasprout/aigate/pkg/policy"

// Default warning thresholds, as fractions of the respective ceilings.
const (
	// DefaultCostThreshold triggers a cost warning at 80% of the daily
	// cost ceiling.
	DefaultCostThreshold = 0.8

	// DefaultUsageThreshold triggers a usage warning at 90% of a
	// capability's effective request ceiling.
	DefaultUsageThreshold = 0.9
)

// ReasonCostLimitExceeded is the machine-readable reason code for a
// daily cost ceiling rejection.
const ReasonCostLimitExceeded = "daily_cost_limit_exceeded"

// BudgetStatus is the outcome of a pre-call budget check.
type BudgetStatus struct {
	// WithinBudget indicates whether the user is under their daily
	// cost ceiling.
	WithinBudget bool

	// Current is today's accumulated estimated spend in USD.
	Current float64

	// Ceiling is the tier's daily cost ceiling in USD.
	Ceiling float64

	// Remaining is the budget left today in USD (zero when exceeded).
	Remaining float64

	// Tier is the tier the ceiling was taken from.
	Tier policy.Tier
}

// WarningType distinguishes cost warnings from per-capability usage
// warnings.
type WarningType string

const (
	// WarningCost means the daily spend is approaching the cost ceiling.
	WarningCost WarningType = "cost"

	// WarningUsage means a capability's request count is approaching
	// its effective ceiling.
	WarningUsage WarningType = "usage"
)

// Warning is one proximity-to-limit warning. Warnings are computed on
// demand; callers poll them.
type Warning struct {
	// Type is the warning kind.
	Type WarningType

	// Capability is the capability concerned (usage warnings only).
	Capability string

	// Message is a human-readable summary.
	Message string

	// Current is the current value (USD for cost, calls for usage).
	Current float64

	// Limit is the ceiling the warning is measured against.
	Limit float64

	// Ratio is Current / Limit.
	Ratio float64
}

// UsageStats reports a user's usage for one UTC day.
type UsageStats struct {
	// Date is the UTC day in YYYY-MM-DD form.
	Date string

	// DailyCost is the accumulated estimated spend in USD.
	DailyCost float64

	// UsageByCapability maps capability identifiers to call counts.
	// Capabilities with no calls today are present with a zero count.
	UsageByCapability map[string]int
}
