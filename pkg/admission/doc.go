// Package admission decides whether a user may invoke an AI capability
// under the rolling-window request quota for their subscription tier.
//
// # Overview
//
// Each capability has a base request ceiling per rolling window; the
// user's tier multiplies that ceiling. The window starts on the first
// call and expires via store TTL, so there is no calendar alignment and
// no reset job.
//
// A check consumes quota: the controller atomically increments the
// window counter and compares the post-increment count against the
// effective ceiling. Rejected calls are terminal for that attempt; the
// controller never retries, and a retried request re-consumes quota
// (an accepted over-count risk).
//
// # Failure semantics
//
// Quota is a hard safety property. By default the controller fails
// closed: if the store is unreachable, the call is denied. The mode is
// configurable for deployments that prefer availability.
package admission
