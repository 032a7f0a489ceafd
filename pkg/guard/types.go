package guard

import (
	"time"

	"saharasprout/aigate/pkg/ledger"
	"saharasprout/aigate/pkg/policy"
)

// Decision is the outcome of one Authorize call. It carries enough
// detail for the caller to build a self-explanatory rejection payload
// without a follow-up call.
type Decision struct {
	// Allowed indicates whether the call may proceed.
	Allowed bool

	// Capability is the capability identifier that was checked.
	Capability string

	// Tier is the subscription tier the ceilings were computed for.
	Tier policy.Tier

	// Ceiling is the tier-scaled request ceiling for the window.
	Ceiling int

	// Remaining is how many calls are left in the current window.
	Remaining int

	// WindowEnds is when the current quota window expires.
	WindowEnds time.Time

	// RetryAfter is the remaining window duration (if Allowed=false
	// for a quota rejection).
	RetryAfter time.Duration

	// Reason is the machine-readable rejection code (if Allowed=false):
	// quota_exceeded, daily_cost_limit_exceeded or store_unavailable.
	Reason string

	// CostPerRequest is the capability's estimated per-call cost.
	CostPerRequest float64

	// Budget is today's budget status. Nil when the admission check
	// already rejected the call.
	Budget *ledger.BudgetStatus
}
