// Package timestamp converts between the remote service's textual reading timestamps and
// time.Time instants.
//
// The service emits timestamps such as "10/18/2026 3:04:05 PM" in UTC. Some deployments
// emit the 24-hour variant "10/18/2026 15:04:05", which is accepted as a fallback.
package timestamp

import (
	"errors"
	"fmt"
	"time"
)

const (
	// Layout is the canonical 12-hour layout used by the service (M/d/yyyy h:mm:ss a)
	Layout = "1/2/2006 3:04:05 PM"

	// FallbackLayout is the 24-hour layout accepted when Layout does not match
	FallbackLayout = "1/2/2006 15:04:05"
)

// ErrFormat is returned when a string matches neither supported layout
var ErrFormat = errors.New("unrecognised timestamp format")

// Parse interprets text in UTC, trying Layout first and FallbackLayout second.
func Parse(text string) (time.Time, error) {
	if t, err := time.ParseInLocation(Layout, text, time.UTC); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(FallbackLayout, text, time.UTC); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrFormat, text)
}

// Format renders t in the canonical layout in UTC.
func Format(t time.Time) string {
	return t.UTC().Format(Layout)
}

// Less reports whether a is strictly earlier than b.
// Values that do not parse are not comparable and never sort before anything.
func Less(a, b string) bool {
	ta, err := Parse(a)
	if err != nil {
		return false
	}
	tb, err := Parse(b)
	if err != nil {
		return false
	}
	return ta.Before(tb)
}

// After reports whether candidate is strictly later than watermark.
// The second return value is false when either string does not parse.
func After(candidate, watermark string) (bool, bool) {
	tc, err := Parse(candidate)
	if err != nil {
		return false, false
	}
	tw, err := Parse(watermark)
	if err != nil {
		return false, false
	}
	return tc.After(tw), true
}
