package utils

import (
	"fmt"
	"time"
)

// DateLayout is the calendar-date wire format used throughout the data
// documents (FRED convention).
const DateLayout = "2006-01-02"

// ParseDate parses a calendar-date string. It accepts the plain
// YYYY-MM-DD form first and falls back to common timestamp layouts,
// truncating any time-of-day component.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range []string{
		DateLayout,
		"2006-01-02T15:04:05",
		time.RFC3339,
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOnly(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid calendar date %q", s)
}

// DateOnly truncates a time to midnight UTC, keeping only the calendar
// date. All range comparisons in the pipeline operate on these values.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDate renders a time as a YYYY-MM-DD calendar-date string.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}
