package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"reminder-bot/models"
	"reminder-bot/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRunner struct {
	summary services.RunSummary
	err     error
	last    *services.RunSummary
	running bool
	calls   int
}

func (s *stubRunner) Run(context.Context) (services.RunSummary, error) {
	s.calls++
	return s.summary, s.err
}

func (s *stubRunner) LastRun() (services.RunSummary, bool) {
	if s.last == nil {
		return services.RunSummary{}, false
	}
	return *s.last, true
}

func (s *stubRunner) Running() bool { return s.running }

type stubAudit struct {
	logs  []models.ReminderLog
	err   error
	limit int
}

func (s *stubAudit) Recent(_ context.Context, limit int) ([]models.ReminderLog, error) {
	s.limit = limit
	return s.logs, s.err
}

func newRunRouter(runner ReminderRunner, audit AuditReader) *gin.Engine {
	gin.SetMode(gin.TestMode)
	rc := RunController{
		Runner: runner,
		Audit:  audit,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	r := gin.New()
	r.GET("/runs/last", rc.GetLastRun)
	r.POST("/runs", rc.TriggerRun)
	r.GET("/logs", rc.GetRecentLogs)
	return r
}

func serve(r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestTriggerRun(t *testing.T) {
	runID := uuid.New()
	runner := &stubRunner{summary: services.RunSummary{RunID: runID, Sent: 2}}
	r := newRunRouter(runner, &stubAudit{})

	w := serve(r, http.MethodPost, "/runs")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Run services.RunSummary `json:"run"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, runID, body.Run.RunID)
	assert.Equal(t, 2, body.Run.Sent)
	assert.Equal(t, 1, runner.calls)
}

func TestTriggerRun_Conflict(t *testing.T) {
	r := newRunRouter(&stubRunner{err: services.ErrRunInProgress}, &stubAudit{})

	w := serve(r, http.MethodPost, "/runs")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestTriggerRun_Failure(t *testing.T) {
	r := newRunRouter(&stubRunner{err: errors.New("twilio down")}, &stubAudit{})

	w := serve(r, http.MethodPost, "/runs")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "twilio down")
}

func TestGetLastRun(t *testing.T) {
	runner := &stubRunner{}
	r := newRunRouter(runner, &stubAudit{})

	w := serve(r, http.MethodGet, "/runs/last")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"running":false,"lastRun":null}`, w.Body.String())

	runner.last = &services.RunSummary{RunID: uuid.New(), Candidates: 3}
	runner.running = true
	w = serve(r, http.MethodGet, "/runs/last")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"candidates":3`)
	assert.Contains(t, w.Body.String(), `"running":true`)
}

func TestGetRecentLogs(t *testing.T) {
	audit := &stubAudit{logs: []models.ReminderLog{{EventID: "evt-1", Status: models.ReminderStatusSent}}}
	r := newRunRouter(&stubRunner{}, audit)

	w := serve(r, http.MethodGet, "/logs")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, defaultLogLimit, audit.limit)
	assert.Contains(t, w.Body.String(), "evt-1")

	w = serve(r, http.MethodGet, "/logs?limit=10000")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, maxLogLimit, audit.limit)

	w = serve(r, http.MethodGet, "/logs?limit=-1")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetRecentLogs_EmptyIsArray(t *testing.T) {
	r := newRunRouter(&stubRunner{}, &stubAudit{})

	w := serve(r, http.MethodGet, "/logs")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestGetRecentLogs_Error(t *testing.T) {
	r := newRunRouter(&stubRunner{}, &stubAudit{err: errors.New("db down")})

	w := serve(r, http.MethodGet, "/logs")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
