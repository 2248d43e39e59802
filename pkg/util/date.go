package util

import (
	"strconv"
	"time"
)

// DayLayout is the calendar-day format used on the wire and in cache keys.
const DayLayout = "2006-01-02"

// TruncateDay returns midnight UTC of t's UTC calendar day.
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDay renders t's UTC calendar day as YYYY-MM-DD.
func FormatDay(t time.Time) string {
	return t.UTC().Format(DayLayout)
}

// ParseDay tries YYYY-MM-DD, RFC3339 and unix seconds. Returns (day, true) if any worked.
func ParseDay(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(DayLayout, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return TruncateDay(t), true
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return TruncateDay(time.Unix(ts, 0)), true
	}
	return time.Time{}, false
}
