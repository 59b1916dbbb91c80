package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// messageCreator is the slice of the Twilio REST API this package uses.
type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// TwilioDispatcher sends reminders as plain SMS from a single sender number.
type TwilioDispatcher struct {
	api    messageCreator
	from   string
	logger *slog.Logger
}

func NewTwilioDispatcher(accountSid, authToken, from string, logger *slog.Logger) *TwilioDispatcher {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSid,
		Password: authToken,
	})
	return &TwilioDispatcher{api: client.Api, from: from, logger: logger}
}

// Send does not honour cancellation once the request is issued; twilio-go
// has no context-aware API.
func (d *TwilioDispatcher) Send(ctx context.Context, to, body string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(d.from)
	params.SetBody(body)

	resp, err := d.api.CreateMessage(params)
	if err != nil {
		return "", fmt.Errorf("twilio create message to %s: %w", to, err)
	}
	if resp == nil || resp.Sid == nil {
		d.logger.Warn("Message sent, but no SID returned", "to", to)
		return "", nil
	}
	return *resp.Sid, nil
}
