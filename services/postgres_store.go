package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reminder-bot/models"
	"reminder-bot/utils"

	"gorm.io/gorm"
)

// PostgresStore keeps events and recipients in the `events` and `recipients`
// tables. scheduled_date holds ISO 8601 text, so its first ten characters
// are the calendar date.
type PostgresStore struct {
	db *gorm.DB
}

func NewPostgresStore(db *gorm.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) QueryCandidates(ctx context.Context, today time.Time) ([]models.Event, error) {
	var events []models.Event
	err := s.db.WithContext(ctx).
		Where("sent = ? AND (LEFT(scheduled_date, 10) = ? OR remind_at >= ?)",
			false, today.Format(utils.DateLayout), utils.BeginningOfDay(today)).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	return events, nil
}

func (s *PostgresStore) MarkSent(ctx context.Context, eventID string) error {
	result := s.db.WithContext(ctx).
		Model(&models.Event{}).
		Where("id = ?", eventID).
		Update("sent", true)
	if result.Error != nil {
		return fmt.Errorf("mark event %s sent: %w", eventID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrEventNotFound, eventID)
	}
	return nil
}

func (s *PostgresStore) GetRecipient(ctx context.Context, recipientID string) (models.Recipient, error) {
	var recipient models.Recipient
	err := s.db.WithContext(ctx).First(&recipient, "id = ?", recipientID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Recipient{}, fmt.Errorf("%w: %s", ErrRecipientNotFound, recipientID)
	}
	if err != nil {
		return models.Recipient{}, fmt.Errorf("load recipient %s: %w", recipientID, err)
	}
	return recipient, nil
}
