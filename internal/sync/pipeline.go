package sync

import (
	"slices"

	"github.com/lhs-project/libre-health-sync/internal/llu"
	"github.com/lhs-project/libre-health-sync/internal/timestamp"
)

// compareReadings orders readings by parsed timestamp. Readings whose
// timestamp does not parse compare equal to everything, so a stable sort
// leaves them where they were.
func compareReadings(a, b llu.Reading) int {
	switch {
	case timestamp.Less(a.FactoryTimestamp, b.FactoryTimestamp):
		return -1
	case timestamp.Less(b.FactoryTimestamp, a.FactoryTimestamp):
		return 1
	default:
		return 0
	}
}

// SortReadings returns a copy of readings stable-sorted ascending by timestamp
func SortReadings(readings []llu.Reading) []llu.Reading {
	sorted := slices.Clone(readings)
	if sorted == nil {
		sorted = []llu.Reading{}
	}
	slices.SortStableFunc(sorted, compareReadings)
	return sorted
}

// sameInstant compares parsed timestamps, falling back to the raw strings
// when either side does not parse.
func sameInstant(a, b string) bool {
	ta, errA := timestamp.Parse(a)
	tb, errB := timestamp.Parse(b)
	if errA != nil || errB != nil {
		return a == b
	}
	return ta.Equal(tb)
}

// Candidates merges the current reading into the sorted history. The current
// reading is added once, only when it carries a timestamp that history does not
// already contain.
func Candidates(history []llu.Reading, current *llu.Reading) []llu.Reading {
	if current == nil || !current.HasTimestamp() {
		return slices.Clone(history)
	}
	for _, r := range history {
		if sameInstant(r.FactoryTimestamp, current.FactoryTimestamp) {
			return slices.Clone(history)
		}
	}
	merged := make([]llu.Reading, 0, len(history)+1)
	merged = append(merged, history...)
	merged = append(merged, *current)
	slices.SortStableFunc(merged, compareReadings)
	return merged
}

// FilterNew keeps the candidates strictly after the watermark. With no
// watermark, or one that does not parse, every candidate is new. Candidates
// that do not parse are never new once a usable watermark exists.
func FilterNew(candidates []llu.Reading, watermark string, hasWatermark bool) []llu.Reading {
	if !hasWatermark {
		return slices.Clone(candidates)
	}
	if _, err := timestamp.Parse(watermark); err != nil {
		return slices.Clone(candidates)
	}

	fresh := make([]llu.Reading, 0, len(candidates))
	for _, r := range candidates {
		if after, ok := timestamp.After(r.FactoryTimestamp, watermark); ok && after {
			fresh = append(fresh, r)
		}
	}
	return fresh
}

// AdvanceWatermark returns the watermark to store after forwarding readings:
// the latest parseable forwarded timestamp, as sent by the service. ok is false
// when nothing parses or the result would not move a usable watermark forward.
func AdvanceWatermark(forwarded []llu.Reading, watermark string, hasWatermark bool) (string, bool) {
	latest := ""
	for _, r := range forwarded {
		if _, err := r.ParsedTime(); err != nil {
			continue
		}
		if latest == "" || timestamp.Less(latest, r.FactoryTimestamp) {
			latest = r.FactoryTimestamp
		}
	}
	if latest == "" {
		return "", false
	}
	if hasWatermark {
		if after, ok := timestamp.After(latest, watermark); ok && !after {
			return "", false
		}
	}
	return latest, true
}
