package services

import (
	"context"

	"reminder-bot/models"

	"gorm.io/gorm"
)

// AuditLog records dispatch attempts. It is write-mostly and never consulted
// when deciding what to send.
type AuditLog interface {
	Record(ctx context.Context, entry *models.ReminderLog) error
	Recent(ctx context.Context, limit int) ([]models.ReminderLog, error)
}

type GormAuditLog struct {
	db *gorm.DB
}

func NewGormAuditLog(db *gorm.DB) *GormAuditLog {
	return &GormAuditLog{db: db}
}

func (a *GormAuditLog) Record(ctx context.Context, entry *models.ReminderLog) error {
	return a.db.WithContext(ctx).Create(entry).Error
}

func (a *GormAuditLog) Recent(ctx context.Context, limit int) ([]models.ReminderLog, error) {
	var logs []models.ReminderLog
	err := a.db.WithContext(ctx).
		Order("sent_at DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}

// NopAuditLog is used when no database is configured.
type NopAuditLog struct{}

func (NopAuditLog) Record(context.Context, *models.ReminderLog) error { return nil }

func (NopAuditLog) Recent(context.Context, int) ([]models.ReminderLog, error) { return nil, nil }
