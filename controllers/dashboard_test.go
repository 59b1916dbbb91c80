package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"reminder-bot/models"
	"reminder-bot/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPreviewer struct {
	previews []services.EventPreview
	err      error
}

func (s stubPreviewer) Preview(context.Context) ([]services.EventPreview, error) {
	return s.previews, s.err
}

func newDashboardRouter(runner ReminderRunner, previewer CandidatePreviewer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	dc := DashboardController{Runner: runner, Previewer: previewer}
	r := gin.New()
	r.GET("/dashboard", dc.GetDashboardOverview)
	return r
}

func TestGetDashboardOverview(t *testing.T) {
	runID := uuid.New()
	runner := &stubRunner{last: &services.RunSummary{RunID: runID, Sent: 1}}
	previewer := stubPreviewer{previews: []services.EventPreview{
		{Event: models.Event{ID: "evt-1", Name: "Dentist"}, Eligible: true},
		{Event: models.Event{ID: "evt-2", Name: "Lunch"}, Eligible: false},
	}}

	w := serve(newDashboardRouter(runner, previewer), http.MethodGet, "/dashboard")
	require.Equal(t, http.StatusOK, w.Code)

	var overview DashboardOverview
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &overview))
	assert.Equal(t, 2, overview.Candidates)
	assert.Equal(t, 1, overview.DueNow)
	require.NotNil(t, overview.LastRun)
	assert.Equal(t, runID, overview.LastRun.RunID)
	require.Len(t, overview.Events, 2)
	assert.Equal(t, "Dentist", overview.Events[0].Event.Name)
}

func TestGetDashboardOverview_StoreError(t *testing.T) {
	w := serve(newDashboardRouter(&stubRunner{}, stubPreviewer{err: errors.New("notion: 502")}), http.MethodGet, "/dashboard")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}
