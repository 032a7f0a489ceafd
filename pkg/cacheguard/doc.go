// Package cacheguard keeps semantically empty AI results out of the
// cache.
//
// Generation backends return well-formed but useless payloads far more
// often than they return hard errors. A naive "cache whatever came
// back" policy poisons the cache with empty entries that are then
// served repeatedly for their whole TTL. The guard classifies every
// payload with content-type-specific heuristics and gates both paths:
//
//   - writes refuse invalid payloads instead of persisting them
//   - reads re-validate and drop entries that fail current rules, so
//     every read is self-healing
//
// A periodic Sweep applies the same rules to the whole cache, removing
// entries that were valid when written but fail after a rule change.
//
// # Content types
//
// The content type of an entry is recovered from its key prefix:
// "market:" for market analysis, "ai:" for generated content, "image:"
// for image analysis, anything else falls back to a generic emptiness
// check.
//
// # Failure behavior
//
// The guard is advisory. Reads fail open (a store error is a cache
// miss) and writes fail silent (logged and dropped), so a cache outage
// never takes an AI capability down with it.
package cacheguard
