package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

type fakeMessageCreator struct {
	params []*twilioApi.CreateMessageParams
	sid    *string
	err    error
}

func (f *fakeMessageCreator) CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error) {
	f.params = append(f.params, params)
	if f.err != nil {
		return nil, f.err
	}
	return &twilioApi.ApiV2010Message{Sid: f.sid}, nil
}

func TestTwilioDispatcher_Send(t *testing.T) {
	sid := "SM123"
	api := &fakeMessageCreator{sid: &sid}
	d := &TwilioDispatcher{api: api, from: "+15550009999", logger: discardLogger()}

	got, err := d.Send(context.Background(), "+15551234567", "Hi Ada")
	require.NoError(t, err)
	assert.Equal(t, "SM123", got)

	require.Len(t, api.params, 1)
	p := api.params[0]
	require.NotNil(t, p.To)
	require.NotNil(t, p.From)
	require.NotNil(t, p.Body)
	assert.Equal(t, "+15551234567", *p.To)
	assert.Equal(t, "+15550009999", *p.From)
	assert.Equal(t, "Hi Ada", *p.Body)
}

func TestTwilioDispatcher_PropagatesErrors(t *testing.T) {
	api := &fakeMessageCreator{err: errors.New("Status: 400 - ApiError 21211: Invalid 'To' Phone Number")}
	d := &TwilioDispatcher{api: api, from: "+15550009999", logger: discardLogger()}

	_, err := d.Send(context.Background(), "+1", "Hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "21211")
}

func TestTwilioDispatcher_MissingSID(t *testing.T) {
	d := &TwilioDispatcher{api: &fakeMessageCreator{}, from: "+15550009999", logger: discardLogger()}

	got, err := d.Send(context.Background(), "+15551234567", "Hi")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestTwilioDispatcher_CancelledContext(t *testing.T) {
	api := &fakeMessageCreator{}
	d := &TwilioDispatcher{api: api, from: "+15550009999", logger: discardLogger()}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.Send(ctx, "+15551234567", "Hi")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, api.params)
}
