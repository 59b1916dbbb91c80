// utils/dates.go
package utils

import "time"

const DateLayout = "2006-01-02"

func BeginningOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// AtClock returns hour:minute on the calendar date of t, in t's location.
func AtClock(t time.Time, hour, minute int) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, hour, minute, 0, 0, t.Location())
}

// SameMinute compares a and b down to the minute after converting both to loc.
func SameMinute(a, b time.Time, loc *time.Location) bool {
	return a.In(loc).Truncate(time.Minute).Equal(b.In(loc).Truncate(time.Minute))
}
