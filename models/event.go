package models

import "time"

// Event is one scheduled reminder. Records are created outside this system;
// the reminder pipeline only ever flips Sent to true.
type Event struct {
	ID            string     `gorm:"type:varchar(64);primary_key" json:"id"`
	RecipientRef  string     `gorm:"column:recipient_id;type:varchar(64);index" json:"recipientId,omitempty"` // empty when the event links no recipient
	Name          string     `gorm:"type:text" json:"name"`
	Voice         string     `gorm:"type:text" json:"voice,omitempty"`
	Note          string     `gorm:"type:text" json:"note,omitempty"`
	ScheduledDate string     `gorm:"type:varchar(40);index" json:"scheduledDate,omitempty"` // ISO 8601, date or date-time
	RemindAt      *time.Time `gorm:"index" json:"remindAt,omitempty"`
	Sent          bool       `gorm:"default:false;index" json:"sent"`
}

// HasRecipient reports whether the event links a recipient record.
func (e *Event) HasRecipient() bool {
	return e.RecipientRef != ""
}
