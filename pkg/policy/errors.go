package policy

import "errors"

// ErrUnknownCapability reports a capability identifier with no policy
// entry. This is a configuration error, surfaced before any store
// access, and must never be retried or treated as a quota rejection.
var ErrUnknownCapability = errors.New("unknown capability")

// ErrUnknownTier reports a tier with no policy entry.
var ErrUnknownTier = errors.New("unknown tier")
