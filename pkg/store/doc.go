// Package store defines the shared counter store boundary.
//
// # Overview
//
// The admission controller, cost ledger, and cache guard coordinate
// entirely through a low-latency key-value store. The store must provide
// five primitives:
//
//   - atomic integer increment
//   - atomic float increment
//   - expiry-on-write (TTL)
//   - key enumeration by glob pattern
//   - multi-key batched writes
//
// plus point get/set/delete. All cross-request coordination is delegated
// to the store's atomic increments; callers never implement
// read-compare-write against it.
//
// # Backends
//
//   - RedisStore: production backend for multi-instance deployments.
//     Increments map directly to INCR/INCRBYFLOAT.
//   - MemoryStore: single-process backend with lazy TTL enforcement and
//     a background janitor. Used by tests and embedded deployments.
//   - SQLiteStore: durable single-node backend. TTLs are an expires_at
//     column filtered on read and purged by the janitor; increments are
//     single upsert statements.
//
// # Value encoding
//
// Values are byte strings. Counters are stored as their decimal string
// representation, matching Redis semantics, so a key incremented by
// Incr can be read back with Get by any backend.
package store
