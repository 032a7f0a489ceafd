// Package policy defines the static quota policies for AI capabilities
// and subscription tiers.
//
// A capability is a distinct kind of AI-backed operation (description
// generation, crop analysis, translation, ...) with its own rolling
// request window and estimated per-call cost. A tier scales the request
// ceiling of every capability and sets a daily spend ceiling.
//
// Policies are loaded once at startup into an immutable Table and passed
// by reference into the admission controller and cost ledger. The Table
// is never mutated at runtime; tests construct synthetic tables directly.
package policy
