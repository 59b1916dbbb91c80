package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"reminder-bot/models"
	"reminder-bot/utils"

	"github.com/jomei/notionapi"
)

// Property names in the events and recipients databases.
const (
	propRecipient = "Recipient"
	propName      = "Name"
	propVoice     = "Voice"
	propNote      = "Note"
	propDate      = "Date"
	propSent      = "Sent"
	propRemindAt  = "Remind at"
	propPhone     = "Phone"
)

// NotionStore reads events and recipients from Notion databases.
type NotionStore struct {
	client     *notionapi.Client
	databaseID notionapi.DatabaseID
	location   *time.Location
	logger     *slog.Logger
}

func NewNotionStore(apiKey, databaseID string, loc *time.Location, logger *slog.Logger) *NotionStore {
	return &NotionStore{
		client:     notionapi.NewClient(notionapi.Token(apiKey)),
		databaseID: notionapi.DatabaseID(databaseID),
		location:   loc,
		logger:     logger,
	}
}

func (s *NotionStore) QueryCandidates(ctx context.Context, today time.Time) ([]models.Event, error) {
	resp, err := s.client.Database.Query(ctx, s.databaseID, &notionapi.DatabaseQueryRequest{
		Filter: candidateFilter(today),
	})
	if err != nil {
		return nil, fmt.Errorf("notion database query: %w", err)
	}
	if resp.HasMore {
		s.logger.Warn("Notion query has more results than one page; only the first page is processed.")
	}

	events := make([]models.Event, 0, len(resp.Results))
	for _, page := range resp.Results {
		events = append(events, eventFromPage(page, s.location))
	}
	return events, nil
}

func (s *NotionStore) MarkSent(ctx context.Context, eventID string) error {
	_, err := s.client.Page.Update(ctx, notionapi.PageID(eventID), &notionapi.PageUpdateRequest{
		Properties: notionapi.Properties{
			propSent: &notionapi.CheckboxProperty{Checkbox: true},
		},
	})
	if err != nil {
		return fmt.Errorf("notion mark event %s sent: %w", eventID, err)
	}
	return nil
}

func (s *NotionStore) GetRecipient(ctx context.Context, recipientID string) (models.Recipient, error) {
	page, err := s.client.Page.Get(ctx, notionapi.PageID(recipientID))
	if err != nil {
		var apiErr *notionapi.Error
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return models.Recipient{}, fmt.Errorf("%w: %s", ErrRecipientNotFound, recipientID)
		}
		return models.Recipient{}, fmt.Errorf("notion retrieve recipient %s: %w", recipientID, err)
	}
	return recipientFromPage(*page), nil
}

// candidateFilter selects unsent events dated today, plus unsent events
// whose reminder time is on or after today.
func candidateFilter(today time.Time) notionapi.Filter {
	day := utils.BeginningOfDay(today).Format(utils.DateLayout)
	unsent := notionapi.PropertyFilter{
		Property: propSent,
		Checkbox: &notionapi.CheckboxFilterCondition{DoesNotEqual: true},
	}
	return notionapi.OrCompoundFilter{
		notionapi.AndCompoundFilter{
			newDayFilter(propDate, "equals", day),
			unsent,
		},
		notionapi.AndCompoundFilter{
			newDayFilter(propRemindAt, "on_or_after", day),
			unsent,
		},
	}
}

// dayFilter is a date condition whose operand goes out as a plain
// YYYY-MM-DD value. notionapi.Date always marshals as RFC 3339, and a full
// timestamp would not match timed events on equals.
type dayFilter struct {
	notionapi.PropertyFilter
	Operator string
	Day      string
}

func newDayFilter(property, operator, day string) dayFilter {
	return dayFilter{
		PropertyFilter: notionapi.PropertyFilter{Property: property},
		Operator:       operator,
		Day:            day,
	}
}

func (f dayFilter) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Property string            `json:"property"`
		Date     map[string]string `json:"date"`
	}{
		Property: f.Property,
		Date:     map[string]string{f.Operator: f.Day},
	})
}

func eventFromPage(page notionapi.Page, loc *time.Location) models.Event {
	props := page.Properties
	event := models.Event{
		ID:           string(page.ID),
		RecipientRef: firstRelation(props[propRecipient]),
		Name:         firstPlainText(props[propName]),
		Voice:        firstPlainText(props[propVoice]),
		Note:         firstPlainText(props[propNote]),
		Sent:         checkbox(props[propSent]),
	}
	if start, ok := dateStart(props[propDate]); ok {
		event.ScheduledDate = formatISO(start)
	}
	if start, ok := dateStart(props[propRemindAt]); ok {
		remindAt := inLocationIfDateOnly(start, loc)
		event.RemindAt = &remindAt
	}
	return event
}

func recipientFromPage(page notionapi.Page) models.Recipient {
	props := page.Properties
	recipient := models.Recipient{
		ID:   string(page.ID),
		Name: firstPlainText(props[propName]),
	}
	if p, ok := props[propPhone].(*notionapi.PhoneNumberProperty); ok {
		recipient.PhoneNumber = p.PhoneNumber
	}
	return recipient
}

func firstPlainText(prop notionapi.Property) string {
	var parts []notionapi.RichText
	switch p := prop.(type) {
	case *notionapi.TitleProperty:
		parts = p.Title
	case *notionapi.RichTextProperty:
		parts = p.RichText
	}
	if len(parts) == 0 {
		return ""
	}
	return parts[0].PlainText
}

func firstRelation(prop notionapi.Property) string {
	p, ok := prop.(*notionapi.RelationProperty)
	if !ok || len(p.Relation) == 0 {
		return ""
	}
	return string(p.Relation[0].ID)
}

func checkbox(prop notionapi.Property) bool {
	p, ok := prop.(*notionapi.CheckboxProperty)
	return ok && p.Checkbox
}

func dateStart(prop notionapi.Property) (time.Time, bool) {
	p, ok := prop.(*notionapi.DateProperty)
	if !ok || p.Date == nil || p.Date.Start == nil {
		return time.Time{}, false
	}
	return time.Time(*p.Date.Start), true
}

// Notion returns all-day dates without a zone; they decode as UTC midnight.
// A date-time written exactly as midnight Zulu decodes the same way and is
// treated as all-day too.
func isDateOnly(t time.Time) bool {
	return t.Location() == time.UTC && t.Equal(utils.BeginningOfDay(t))
}

func inLocationIfDateOnly(t time.Time, loc *time.Location) time.Time {
	if !isDateOnly(t) {
		return t
	}
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

func formatISO(t time.Time) string {
	if isDateOnly(t) {
		return t.Format(utils.DateLayout)
	}
	return t.Format(time.RFC3339)
}
