package store

import (
	"context"
	"time"
)

// FailMode declares how a component behaves when the store is
// unreachable. Quota enforcement fails closed (a hard safety property
// must not be bypassed by an outage); cost accounting and caching fail
// open (advisory properties must not take capabilities down with them).
// The mode is an explicit per-component parameter so the tradeoff stays
// visible and testable; the empty value means "use the component's
// default".
type FailMode string

const (
	// FailClosed denies the operation when the store is unreachable.
	FailClosed FailMode = "fail-closed"

	// FailOpen allows the operation when the store is unreachable.
	FailOpen FailMode = "fail-open"
)

// Entry is one key-value pair in a batched write.
type Entry struct {
	Key   string
	Value []byte
}

// Store is the shared counter store interface.
// Implementations must be safe for concurrent use.
type Store interface {
	// Incr atomically increments the integer counter at key by one and
	// returns the post-increment value. A missing key counts from zero.
	// The increment must be a true atomic operation in the backend, not
	// a read-then-write pair.
	Incr(ctx context.Context, key string) (int64, error)

	// IncrByFloat atomically adds delta to the float accumulator at key
	// and returns the post-increment value. A missing key counts from
	// zero.
	IncrByFloat(ctx context.Context, key string, delta float64) (float64, error)

	// Expire sets the TTL for an existing key. Expired keys behave as
	// absent. No-op if the key does not exist.
	Expire(ctx context.Context, key string, ttl time.Duration) error

	// Get returns the value at key. The second return value reports
	// whether the key exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set writes value at key with the given TTL. A zero TTL means no
	// expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// SetBatch writes all entries with the given TTL in one batched
	// operation.
	SetBatch(ctx context.Context, entries []Entry, ttl time.Duration) error

	// Delete removes the given keys. Missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error

	// Keys enumerates keys matching a glob pattern (e.g. "market:*").
	// The result is one enumeration snapshot; keys created or expired
	// afterwards are not reflected.
	Keys(ctx context.Context, pattern string) ([]string, error)

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error

	// Close releases resources held by the store.
	Close() error
}
