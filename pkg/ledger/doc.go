// Package ledger accumulates per-user daily spend estimates for AI
// capabilities and reports proximity-to-limit warnings.
//
// # Overview
//
// Every successful capability call is charged its policy's static
// estimated cost. The ledger keeps two kinds of daily records in the
// shared store, both keyed by the UTC calendar date:
//
//   - a per-user cost accumulator (float, monotonically non-decreasing)
//   - a per-user, per-capability usage counter (used for warnings and
//     reporting, never for admission decisions)
//
// Because the date is part of the key, day rollover is implicit: the
// first write after midnight creates a fresh key with a fresh 24-hour
// TTL. There is no reset job and therefore no reset race.
//
// # Failure semantics
//
// Cost accounting is advisory. The budget pre-check fails open by
// default: an unreachable store must not take every AI capability down
// with it. Post-call recording failures are logged and dropped, never
// surfaced to the request path.
package ledger
