package services

import (
	"time"

	"reminder-bot/models"
	"reminder-bot/utils"
)

// ReminderWindow is the half-width of the band around an explicit
// "remind at" timestamp.
const ReminderWindow = 5 * time.Minute

// Events without an explicit reminder time go out at 08:00 reference time.
const (
	defaultReminderHour   = 8
	defaultReminderMinute = 0
)

// Eligible reports whether event should be notified at now.
//
// An explicit RemindAt wins outright: the event is due while RemindAt lies in
// [now-ReminderWindow, now+ReminderWindow]. Otherwise it is due only during
// the 08:00 minute of the current day in loc. ScheduledDate is not consulted.
func Eligible(event models.Event, now time.Time, loc *time.Location) bool {
	if event.Sent {
		return false
	}

	if event.RemindAt != nil {
		lower := now.Add(-ReminderWindow)
		upper := now.Add(ReminderWindow)
		return !event.RemindAt.Before(lower) && !event.RemindAt.After(upper)
	}

	local := now.In(loc)
	return utils.SameMinute(local, utils.AtClock(local, defaultReminderHour, defaultReminderMinute), loc)
}
