// services/reminder_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"reminder-bot/models"
	"reminder-bot/utils"

	"github.com/google/uuid"
)

var (
	ErrRunInProgress     = errors.New("reminder run already in progress")
	ErrRecipientNotFound = errors.New("recipient not found")
	ErrEventNotFound     = errors.New("event not found")
)

// Placeholders used when an event or recipient field carries no value.
const (
	unknownRecipientName = "Unknown"
	unnamedEvent         = "No Event Name"
)

// EventStore is the structured store holding events and recipients.
type EventStore interface {
	// QueryCandidates returns unsent events scheduled on today's date or
	// with a reminder time on or after today's midnight.
	QueryCandidates(ctx context.Context, today time.Time) ([]models.Event, error)
	// MarkSent flips the event's sent flag. Marking twice is not an error.
	MarkSent(ctx context.Context, eventID string) error
	GetRecipient(ctx context.Context, recipientID string) (models.Recipient, error)
}

// MessageRequest carries the fields a reminder message is written from.
type MessageRequest struct {
	RecipientName string
	EventName     string
	EventDateTime string
	Voice         string
	Note          string
}

type Composer interface {
	Compose(ctx context.Context, req MessageRequest) (string, error)
}

// Dispatcher delivers a text message and returns the gateway's message id.
type Dispatcher interface {
	Send(ctx context.Context, to, body string) (string, error)
}

// RunSummary describes one pipeline run.
type RunSummary struct {
	RunID      uuid.UUID `json:"runId"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	Candidates int       `json:"candidates"`
	Eligible   int       `json:"eligible"`
	Sent       int       `json:"sent"`
	Skipped    int       `json:"skipped"`
	Error      string    `json:"error,omitempty"`
}

type ReminderService struct {
	store      EventStore
	composer   Composer
	dispatcher Dispatcher
	audit      AuditLog
	location   *time.Location
	logger     *slog.Logger

	// Now returns the current time; injectable for testing.
	Now func() time.Time

	running atomic.Bool

	mu      sync.Mutex
	lastRun *RunSummary
}

func NewReminderService(store EventStore, composer Composer, dispatcher Dispatcher, audit AuditLog, loc *time.Location, logger *slog.Logger) *ReminderService {
	if audit == nil {
		audit = NopAuditLog{}
	}
	return &ReminderService{
		store:      store,
		composer:   composer,
		dispatcher: dispatcher,
		audit:      audit,
		location:   loc,
		logger:     logger,
		Now:        time.Now,
	}
}

// Run performs one pass over today's candidate events. Events are handled
// one at a time in the order the store returned them; the first external
// failure ends the run and is returned. Only one run may be active at a time.
func (s *ReminderService) Run(ctx context.Context) (RunSummary, error) {
	if !s.running.CompareAndSwap(false, true) {
		runsTotal.WithLabelValues(runResultSkipped).Inc()
		return RunSummary{}, ErrRunInProgress
	}
	defer s.running.Store(false)

	summary := RunSummary{
		RunID:     uuid.New(),
		StartedAt: s.Now(),
	}
	logger := s.logger.With("run", summary.RunID)
	logger.Info("Starting reminder run.")

	err := s.run(ctx, logger, &summary)

	summary.FinishedAt = s.Now()
	runDuration.Observe(summary.FinishedAt.Sub(summary.StartedAt).Seconds())
	if err != nil {
		summary.Error = err.Error()
		runsTotal.WithLabelValues(runResultFailed).Inc()
	} else {
		runsTotal.WithLabelValues(runResultOK).Inc()
	}

	s.mu.Lock()
	last := summary
	s.lastRun = &last
	s.mu.Unlock()

	logger.Info("Reminder run finished.",
		"candidates", summary.Candidates,
		"eligible", summary.Eligible,
		"sent", summary.Sent,
		"skipped", summary.Skipped)
	return summary, err
}

// LastRun returns the summary of the most recent completed run.
func (s *ReminderService) LastRun() (RunSummary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastRun == nil {
		return RunSummary{}, false
	}
	return *s.lastRun, true
}

// EventPreview is a candidate event together with its eligibility at the
// time Preview was called.
type EventPreview struct {
	Event    models.Event `json:"event"`
	Eligible bool         `json:"eligible"`
}

// Preview runs the candidate query and the window check without contacting
// recipients or sending anything.
func (s *ReminderService) Preview(ctx context.Context) ([]EventPreview, error) {
	now := s.Now().In(s.location)
	events, err := s.store.QueryCandidates(ctx, utils.BeginningOfDay(now))
	if err != nil {
		return nil, fmt.Errorf("failed to query candidate events: %w", err)
	}
	previews := make([]EventPreview, 0, len(events))
	for _, event := range events {
		previews = append(previews, EventPreview{Event: event, Eligible: Eligible(event, now, s.location)})
	}
	return previews, nil
}

func (s *ReminderService) Running() bool {
	return s.running.Load()
}

func (s *ReminderService) run(ctx context.Context, logger *slog.Logger, summary *RunSummary) error {
	now := s.Now().In(s.location)
	today := utils.BeginningOfDay(now)

	events, err := s.store.QueryCandidates(ctx, today)
	if err != nil {
		return fmt.Errorf("failed to query candidate events: %w", err)
	}
	summary.Candidates = len(events)
	logger.Debug("Fetched candidate events.", "count", len(events), "today", today.Format(utils.DateLayout))

	for _, event := range events {
		if !Eligible(event, now, s.location) {
			continue
		}
		summary.Eligible++

		if err := s.processEvent(ctx, logger, summary, event); err != nil {
			return err
		}
	}
	return nil
}

func (s *ReminderService) processEvent(ctx context.Context, logger *slog.Logger, summary *RunSummary, event models.Event) error {
	if !event.HasRecipient() {
		logger.Error("No recipient found for event", "event", event.ID)
		summary.Skipped++
		remindersSkipped.WithLabelValues(skipNoRecipient).Inc()
		return nil
	}

	recipient, err := s.store.GetRecipient(ctx, event.RecipientRef)
	if err != nil {
		return fmt.Errorf("failed to resolve recipient %s for event %s: %w", event.RecipientRef, event.ID, err)
	}

	if !recipient.HasPhone() {
		logger.Info("Recipient has no phone number, leaving event unsent.", "event", event.ID, "recipient", recipient.ID)
		summary.Skipped++
		remindersSkipped.WithLabelValues(skipNoPhone).Inc()
		return nil
	}
	if !utils.ValidatePhone(recipient.PhoneNumber) {
		logger.Warn("Phone number is not in international format, sending anyway.", "event", event.ID, "phone", recipient.PhoneNumber)
	}

	message, err := s.composer.Compose(ctx, MessageRequest{
		RecipientName: valueOr(recipient.Name, unknownRecipientName),
		EventName:     valueOr(event.Name, unnamedEvent),
		EventDateTime: event.ScheduledDate,
		Voice:         event.Voice,
		Note:          event.Note,
	})
	if err != nil {
		return fmt.Errorf("failed to compose message for event %s: %w", event.ID, err)
	}

	entry := &models.ReminderLog{
		RunID:       summary.RunID,
		EventID:     event.ID,
		RecipientID: recipient.ID,
		PhoneNumber: recipient.PhoneNumber,
		Message:     message,
		SentAt:      s.Now(),
	}

	sid, err := s.dispatcher.Send(ctx, recipient.PhoneNumber, message)
	if err != nil {
		entry.Status = models.ReminderStatusFailed
		entry.ErrorMessage = err.Error()
		s.recordAudit(ctx, logger, entry)
		remindersFailed.Inc()
		return fmt.Errorf("failed to send message for event %s: %w", event.ID, err)
	}
	entry.Status = models.ReminderStatusSent
	entry.MessageSID = sid
	s.recordAudit(ctx, logger, entry)
	remindersSent.Inc()
	logger.Info("Message sent.", "event", event.ID, "phone", recipient.PhoneNumber, "sid", sid)

	// The text is already out; if this fails the next run sends it again.
	if err := s.store.MarkSent(ctx, event.ID); err != nil {
		return fmt.Errorf("message sent but failed to mark event %s as sent: %w", event.ID, err)
	}
	summary.Sent++
	return nil
}

func (s *ReminderService) recordAudit(ctx context.Context, logger *slog.Logger, entry *models.ReminderLog) {
	if err := s.audit.Record(ctx, entry); err != nil {
		logger.Error("Failed to log reminder", "event", entry.EventID, "error", err)
	}
}

func valueOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
