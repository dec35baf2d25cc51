// Package datetime provides calendar date utility functions.
package datetime

import (
	"fmt"
	"strings"
	"time"

	"github.com/iwvelando/installment-adjust/pkg/constants"
)

const (
	// DateLayout is the format expected in config files and is also the output
	// date format.
	DateLayout = constants.DateLayout

	hoursPerDay = 24
)

// MustParseTime parses a date string using the given layout and panics on error.
// This is intended for use in tests where the date string is known to be valid.
func MustParseTime(layout, dateStr string) time.Time {
	t, err := time.Parse(layout, dateStr)
	if err != nil {
		panic(err)
	}
	return t
}

// MustDate parses a YYYY-MM-DD date and panics on error.
func MustDate(dateStr string) time.Time {
	return MustParseTime(DateLayout, dateStr)
}

// ParseDate parses a YYYY-MM-DD date. An empty string yields the zero time and
// ok == false.
func ParseDate(dateStr string) (t time.Time, ok bool, err error) {
	trimmed := strings.TrimSpace(dateStr)
	if trimmed == "" {
		return time.Time{}, false, nil
	}
	t, err = time.Parse(DateLayout, trimmed)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("invalid date %q: %w", dateStr, err)
	}
	return t, true, nil
}

// Truncate drops the clock and location of t, keeping the calendar date in UTC.
func Truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddDays returns the date offset by the given number of days.
func AddDays(t time.Time, days int) time.Time {
	return Truncate(t).AddDate(0, 0, days)
}

// DaysBetween returns the number of calendar days from start to end. The
// result is negative when end is before start.
func DaysBetween(start, end time.Time) int {
	return int(Truncate(end).Sub(Truncate(start)).Hours() / hoursPerDay)
}

// Later returns whichever of the two dates is later.
func Later(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}

// Format renders a date in DateLayout, or "-" for the zero time.
func Format(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(DateLayout)
}
