// Package civiltime handles the zone-less wall clock timestamps sensors report
// ("2025-01-01T08:00:00"). Parsed values are time.Time in UTC whose fields equal the
// reported wall clock, so they order and compare like the original strings.
package civiltime

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Layout is the canonical fixed-width rendering.
const Layout = "2006-01-02T15:04:05"

const (
	dateLayout   = "2006-01-02"
	clockLayout  = "15:04:05"
	shortClock   = "15:04"
	zonedLayout  = "2006-01-02T15:04:05Z07:00"
	spacedLayout = "2006-01-02 15:04:05"
	spacedZoned  = "2006-01-02 15:04:05Z07:00"
	startOfDay   = "00:00:00"
	endOfDay     = "23:59:59"
)

// ErrInvalid is wrapped by every parse failure in this package.
var ErrInvalid = errors.New("civiltime: invalid value")

var timestampLayouts = []string{Layout, zonedLayout, spacedLayout, spacedZoned}

// Parse reads a timestamp, keeping its wall clock and discarding any zone suffix.
// Fractional seconds are accepted.
func Parse(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return wallClock(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: timestamp %q", ErrInvalid, value)
}

// Format renders t's wall clock in the canonical layout.
func Format(t time.Time) string {
	return t.Format(Layout)
}

// FromInstant converts an absolute instant into the wall clock of loc.
func FromInstant(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return wallClock(t.In(loc))
}

// Bound resolves a date plus optional clock into a wall clock instant. An empty date
// yields ok=false (no bound). An empty clock takes fallback.
func Bound(date, clock, fallback string) (t time.Time, ok bool, err error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return time.Time{}, false, nil
	}

	d, err := time.Parse(dateLayout, date)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: date %q", ErrInvalid, date)
	}

	clock = strings.TrimSpace(clock)
	if clock == "" {
		clock = fallback
	}
	c, err := parseClock(clock)
	if err != nil {
		return time.Time{}, false, err
	}

	return time.Date(d.Year(), d.Month(), d.Day(), c.Hour(), c.Minute(), c.Second(), 0, time.UTC), true, nil
}

// StartBound resolves the lower bound of a window, defaulting the clock to 00:00:00.
func StartBound(date, clock string) (time.Time, bool, error) {
	return Bound(date, clock, startOfDay)
}

// EndBound resolves the upper bound of a window, defaulting the clock to 23:59:59.
func EndBound(date, clock string) (time.Time, bool, error) {
	return Bound(date, clock, endOfDay)
}

func parseClock(clock string) (time.Time, error) {
	if t, err := time.Parse(clockLayout, clock); err == nil {
		return t, nil
	}
	if t, err := time.Parse(shortClock, clock); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: time %q", ErrInvalid, clock)
}

func wallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}
