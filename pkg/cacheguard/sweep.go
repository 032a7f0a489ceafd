package cacheguard

import (
	"context"
	"encoding/json"
	"fmt"
)

// sweepPatterns covers the known content-type prefixes.
var sweepPatterns = []string{aiPrefix + "*", marketPrefix + "*", imagePrefix + "*"}

// SweepReport summarizes one sweep pass.
type SweepReport struct {
	// Scanned is how many entries were enumerated and re-validated.
	Scanned int

	// Removed is how many entries failed current rules (or could not
	// be decoded) and were deleted.
	Removed int
}

// Sweep enumerates all entries under the known content-type prefixes,
// re-validates each stored payload against current rules and deletes
// failures. Entries whose payload no longer decodes are deleted too.
//
// The pass is O(total cache size); run it on a schedule, not per
// request.
func (g *Guard) Sweep(ctx context.Context) (*SweepReport, error) {
	report := &SweepReport{}

	for _, pattern := range sweepPatterns {
		keys, err := g.store.Keys(ctx, pattern)
		if err != nil {
			return report, fmt.Errorf("failed to enumerate %q: %w", pattern, err)
		}

		var stale []string
		for _, key := range keys {
			raw, ok, err := g.store.Get(ctx, key)
			if err != nil {
				return report, fmt.Errorf("failed to read %q: %w", key, err)
			}
			if !ok {
				// Expired between enumeration and read.
				continue
			}
			report.Scanned++

			var payload any
			if err := json.Unmarshal(raw, &payload); err != nil {
				stale = append(stale, key)
				continue
			}
			if !IsValid(payload, ContentTypeForKey(key)) {
				stale = append(stale, key)
			}
		}

		if len(stale) > 0 {
			if err := g.store.Delete(ctx, stale...); err != nil {
				return report, fmt.Errorf("failed to delete stale entries under %q: %w", pattern, err)
			}
			report.Removed += len(stale)
		}
	}

	g.metrics.observeSweep(report.Removed)
	g.logger.Info("cache sweep completed",
		"scanned", report.Scanned, "removed", report.Removed)

	return report, nil
}

// PrefixStats counts the entries under one content-type prefix by
// validity under current rules.
type PrefixStats struct {
	Total   int
	Valid   int
	Invalid int
}

// Stats reports entry counts per content-type prefix, classifying each
// stored payload with the current rules. Read-only; nothing is deleted.
func (g *Guard) Stats(ctx context.Context) (map[string]PrefixStats, error) {
	stats := make(map[string]PrefixStats, len(sweepPatterns))

	for _, pattern := range sweepPatterns {
		prefix := pattern[:len(pattern)-1]

		keys, err := g.store.Keys(ctx, pattern)
		if err != nil {
			return nil, fmt.Errorf("failed to enumerate %q: %w", pattern, err)
		}

		var ps PrefixStats
		for _, key := range keys {
			raw, ok, err := g.store.Get(ctx, key)
			if err != nil {
				return nil, fmt.Errorf("failed to read %q: %w", key, err)
			}
			if !ok {
				continue
			}
			ps.Total++

			var payload any
			if err := json.Unmarshal(raw, &payload); err != nil {
				ps.Invalid++
				continue
			}
			if IsValid(payload, ContentTypeForKey(key)) {
				ps.Valid++
			} else {
				ps.Invalid++
			}
		}
		stats[prefix] = ps
	}

	return stats, nil
}
