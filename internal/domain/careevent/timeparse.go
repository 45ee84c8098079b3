package careevent

import (
	"fmt"
	"strings"
	"time"
)

var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

var clockLayouts = []string{"15:04:05", "15:04"}

// ParseInstant parses an RFC 3339 timestamp, or a zone-less date-time read
// as wall-clock time in loc.
func ParseInstant(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return t, nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, v, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date/time %q: use YYYY-MM-DDTHH:MM:SS", v)
}

// CombineDateTime joins a calendar date (YYYY-MM-DD, optionally followed by
// a time part which is ignored) and a wall-clock time (HH:MM or HH:MM:SS)
// into an instant in loc.
func CombineDateTime(date, clock string, loc *time.Location) (time.Time, error) {
	date = strings.TrimSpace(date)
	if len(date) > 10 && (date[10] == 'T' || date[10] == ' ') {
		date = date[:10]
	}
	day, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD", date)
	}

	clock = strings.TrimSpace(clock)
	for _, layout := range clockLayouts {
		if c, err := time.Parse(layout, clock); err == nil {
			return time.Date(day.Year(), day.Month(), day.Day(), c.Hour(), c.Minute(), c.Second(), 0, loc), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q: use HH:MM or HH:MM:SS", clock)
}
