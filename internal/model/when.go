package model

import (
	"fmt"
	"strings"
	"time"
)

// Input layouts accepted for dates and reminder times.
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04"
	ClockLayout    = "15:04"
)

// ParseDate parses a YYYY-MM-DD due date in loc and returns it in UTC.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, use YYYY-MM-DD", s)
	}
	return t.UTC(), nil
}

// ParseRemindAt parses a reminder time in loc. It accepts RFC 3339,
// "YYYY-MM-DD HH:MM", or a bare date, which is given defaultClock
// ("HH:MM"). The result is in UTC.
func ParseRemindAt(s, defaultClock string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.ParseInLocation(DateTimeLayout, s, loc); err == nil {
		return t.UTC(), nil
	}
	day, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid reminder time %q, use YYYY-MM-DD [HH:MM]", s)
	}
	clock, err := time.Parse(ClockLayout, defaultClock)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid default reminder time %q: %w", defaultClock, err)
	}
	at := time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), 0, 0, loc)
	return at.UTC(), nil
}
