package daygate

import (
	"fmt"
	"time"
)

// DayKeyLayout is the layout of day keys.
const DayKeyLayout = "2006-01-02"

// DefaultEpoch is the calendar day the fallback rotation index counts from.
var DefaultEpoch = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

// DayKey formats t as YYYY-MM-DD in loc. A nil loc means time.Local.
func DayKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(DayKeyLayout)
}

// ParseDayKey parses a YYYY-MM-DD key back into midnight UTC of that date.
func ParseDayKey(key string) (time.Time, error) {
	t, err := time.Parse(DayKeyLayout, key)
	if err != nil {
		return time.Time{}, fmt.Errorf("daygate: parse day key %q: %w", key, err)
	}
	return t, nil
}

// DaysSince returns floor((local midnight of now − local midnight of the
// epoch date) / 24h) in loc. Only the year, month and day of epoch are used.
//
// The difference is in elapsed time, so between a spring-forward and the
// matching fall-back a DST zone counts one day fewer than the calendar does.
func DaysSince(epoch, now time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.Local
	}
	ny, nm, nd := now.In(loc).Date()
	ey, em, ed := epoch.Date()
	d := time.Date(ny, nm, nd, 0, 0, 0, 0, loc).Sub(time.Date(ey, em, ed, 0, 0, 0, 0, loc))
	days := int(d / (24 * time.Hour))
	if d < 0 && d%(24*time.Hour) != 0 {
		days--
	}
	return days
}

// pick maps a possibly negative index onto [0, n).
func pick(index, n int) int {
	return ((index % n) + n) % n
}
