package admission

import (
	"time"

	"saharasprout/aigate/pkg/policy"
)

// ReasonQuotaExceeded is the machine-readable reason code carried by a
// quota rejection.
const ReasonQuotaExceeded = "quota_exceeded"

// ReasonStoreUnavailable is the reason code for a denial caused by an
// unreachable store under FailClosed, so callers can distinguish an
// outage from a genuine quota rejection.
const ReasonStoreUnavailable = "store_unavailable"

// Result is the outcome of one admission check.
//
// A rejection carries enough detail for the caller to build a
// self-explanatory error payload without a follow-up call: the
// capability, the tier-scaled ceiling, and the remaining window.
type Result struct {
	// Allowed indicates whether the call may proceed.
	Allowed bool

	// Capability is the capability identifier that was checked.
	Capability string

	// Tier is the subscription tier the ceiling was computed for.
	Tier policy.Tier

	// Ceiling is the effective request ceiling for this tier
	// (floor of base ceiling x tier multiplier).
	Ceiling int

	// Remaining is how many calls are left in the current window.
	// Zero when rejected.
	Remaining int

	// WindowEnds is when the current window expires.
	WindowEnds time.Time

	// RetryAfter is the remaining window duration (if Allowed=false).
	RetryAfter time.Duration

	// Reason is the machine-readable rejection code (if Allowed=false).
	Reason string

	// CostPerRequest is the capability's estimated per-call cost,
	// echoed so rejection payloads can show what a call would cost.
	CostPerRequest float64
}
