// models/reminder_log.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ReminderStatusSent   = "sent"
	ReminderStatusFailed = "failed"
)

// ReminderLog is an append-only audit row for every dispatch attempt.
type ReminderLog struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key"`
	RunID        uuid.UUID `gorm:"type:uuid;index;not null"`
	EventID      string    `gorm:"type:varchar(64);index;not null"`
	RecipientID  string    `gorm:"type:varchar(64);index"`
	PhoneNumber  string    `gorm:"type:varchar(32)"`
	Message      string    `gorm:"type:text"`
	Status       string    `gorm:"type:varchar(20)"` // sent, failed
	ErrorMessage string    `gorm:"type:text"`
	MessageSID   string    `gorm:"type:varchar(64)"`
	SentAt       time.Time
	CreatedAt    time.Time
}

func (r *ReminderLog) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}
