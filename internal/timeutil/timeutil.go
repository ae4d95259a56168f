// Package timeutil provides utility functions and types for working with
// time-related operations.
package timeutil

import (
	"fmt"
	"strings"
	"time"

	"github.com/markusmobius/go-dateparser"
)

const millisPerSecond = 1000

// keyLayout is a fixed width variant of RFC3339Nano. RFC3339Nano trims
// trailing zeros which breaks lexical ordering of keys.
const keyLayout = "2006-01-02T15:04:05.000000000Z07:00"

// FloorSeconds converts d to whole seconds, rounding towards negative
// infinity. Sub-second precision is discarded, never rounded up.
func FloorSeconds(d time.Duration) int64 {
	ms := d.Milliseconds()

	secs := ms / millisPerSecond
	if ms%millisPerSecond < 0 {
		secs--
	}

	return secs
}

// CeilSeconds converts d to whole seconds, rounding towards positive
// infinity.
func CeilSeconds(d time.Duration) int64 {
	ms := d.Milliseconds()

	secs := ms / millisPerSecond
	if ms%millisPerSecond > 0 {
		secs++
	}

	return secs
}

// SecondsBetween returns the floored number of seconds from start to end.
// A zero start or end yields 0.
func SecondsBetween(start, end time.Time) int64 {
	if start.IsZero() || end.IsZero() {
		return 0
	}

	return FloorSeconds(end.Sub(start))
}

// SaturatingSub returns a - b, or 0 if the result would be negative.
func SaturatingSub(a, b int64) int64 {
	if b >= a {
		return 0
	}

	return a - b
}

// RoundToStart resets the given time to the start of the day.
func RoundToStart(t time.Time) time.Time {
	return time.Date(
		t.Year(),
		t.Month(),
		t.Day(),
		0,
		0,
		0,
		0,
		t.Location(),
	)
}

// ToKey converts a time value to a database key for Bolt. Keys sort
// lexically in chronological order.
func ToKey(t time.Time) []byte {
	return []byte(t.UTC().Format(keyLayout))
}

// FormatSeconds renders a seconds value as 1h02m03s style text.
func FormatSeconds(secs int64) string {
	if secs <= 0 {
		return "0s"
	}

	d := time.Duration(secs) * time.Second

	h := int64(d / time.Hour)
	m := int64(d % time.Hour / time.Minute)
	s := int64(d % time.Minute / time.Second)

	switch {
	case h > 0:
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm%02ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

// FromStr parses an absolute or relative date string such as
// "2025-01-02 10:00" or "3 hours ago" relative to now. Dates in the future
// are rejected.
func FromStr(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return now, nil
	}

	cfg := &dateparser.Configuration{
		CurrentTime: now,
	}

	dt, err := dateparser.Parse(cfg, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unable to parse %q: %w", s, err)
	}

	if dt.Time.After(now) {
		return time.Time{}, fmt.Errorf("%q is in the future", s)
	}

	return dt.Time, nil
}
