package actual

import (
	"fmt"
	"time"
)

// Date layouts accepted at the store boundary. The API returns date-only
// strings, but imported data occasionally carries a time component; window
// and same-day checks must still compare correctly when it does.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseDate parses a boundary date string in UTC.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// FormatYMD renders a time as a date-only string in UTC.
func FormatYMD(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// SameDay reports whether two date strings fall on the same UTC calendar
// day. Unparseable dates never compare equal.
func SameDay(a, b string) bool {
	ta, err := ParseDate(a)
	if err != nil {
		return false
	}
	tb, err := ParseDate(b)
	if err != nil {
		return false
	}
	ay, am, ad := ta.Date()
	by, bm, bd := tb.Date()
	return ay == by && am == bm && ad == bd
}

// WithinWindow reports whether two date strings are no more than
// windowHours apart, comparing full timestamps when present.
func WithinWindow(a, b string, windowHours int) bool {
	ta, err := ParseDate(a)
	if err != nil {
		return false
	}
	tb, err := ParseDate(b)
	if err != nil {
		return false
	}
	diff := ta.Sub(tb)
	if diff < 0 {
		diff = -diff
	}
	return diff <= time.Duration(windowHours)*time.Hour
}
