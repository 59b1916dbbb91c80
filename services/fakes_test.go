package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"reminder-bot/models"

	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newYork(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	return loc
}

// fakeStore keeps events in insertion order and mimics the candidate query
// by returning every unsent event.
type fakeStore struct {
	mu         sync.Mutex
	order      []string
	events     map[string]*models.Event
	recipients map[string]models.Recipient

	queryErr      error
	recipientErrs map[string]error
	// markSentFailures makes the next N MarkSent calls fail.
	markSentFailures int

	queries       int
	markSentCalls []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		events:        map[string]*models.Event{},
		recipients:    map[string]models.Recipient{},
		recipientErrs: map[string]error{},
	}
}

func (f *fakeStore) addEvent(e models.Event) {
	f.order = append(f.order, e.ID)
	f.events[e.ID] = &e
}

func (f *fakeStore) addRecipient(r models.Recipient) {
	f.recipients[r.ID] = r
}

func (f *fakeStore) event(id string) models.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.events[id]
}

func (f *fakeStore) QueryCandidates(_ context.Context, _ time.Time) ([]models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries++
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	var out []models.Event
	for _, id := range f.order {
		if e := f.events[id]; !e.Sent {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakeStore) MarkSent(_ context.Context, eventID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markSentCalls = append(f.markSentCalls, eventID)
	if f.markSentFailures > 0 {
		f.markSentFailures--
		return errors.New("store unavailable")
	}
	e, ok := f.events[eventID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrEventNotFound, eventID)
	}
	e.Sent = true
	return nil
}

func (f *fakeStore) GetRecipient(_ context.Context, recipientID string) (models.Recipient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.recipientErrs[recipientID]; err != nil {
		return models.Recipient{}, err
	}
	r, ok := f.recipients[recipientID]
	if !ok {
		return models.Recipient{}, fmt.Errorf("%w: %s", ErrRecipientNotFound, recipientID)
	}
	return r, nil
}

type fakeComposer struct {
	mu       sync.Mutex
	requests []MessageRequest
	err      error
	// block, when set, holds Compose until it is closed.
	block   chan struct{}
	entered chan struct{}
}

func (f *fakeComposer) Compose(_ context.Context, req MessageRequest) (string, error) {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return "", f.err
	}
	return "Hi " + req.RecipientName + ", don't forget " + req.EventName, nil
}

type sentMessage struct {
	To   string
	Body string
}

type fakeDispatcher struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (f *fakeDispatcher) Send(_ context.Context, to, body string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, sentMessage{To: to, Body: body})
	return fmt.Sprintf("SM%03d", len(f.sent)), nil
}

type fakeAudit struct {
	mu      sync.Mutex
	entries []models.ReminderLog
	err     error
}

func (f *fakeAudit) Record(_ context.Context, entry *models.ReminderLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, *entry)
	return f.err
}

func (f *fakeAudit) Recent(context.Context, int) ([]models.ReminderLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.ReminderLog(nil), f.entries...), nil
}
