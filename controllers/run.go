package controllers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"reminder-bot/models"
	"reminder-bot/services"
	"reminder-bot/utils"

	"github.com/gin-gonic/gin"
)

const (
	defaultLogLimit = 50
	maxLogLimit     = 500
)

// ReminderRunner is the part of services.ReminderService the API drives.
type ReminderRunner interface {
	Run(ctx context.Context) (services.RunSummary, error)
	LastRun() (services.RunSummary, bool)
	Running() bool
}

// AuditReader lists recent dispatch attempts.
type AuditReader interface {
	Recent(ctx context.Context, limit int) ([]models.ReminderLog, error)
}

type RunController struct {
	Runner ReminderRunner
	Audit  AuditReader
	Logger *slog.Logger
}

// GetLastRun returns the most recent run summary.
func (r RunController) GetLastRun(c *gin.Context) {
	summary, ok := r.Runner.LastRun()
	if !ok {
		c.JSON(http.StatusOK, gin.H{"running": r.Runner.Running(), "lastRun": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"running": r.Runner.Running(), "lastRun": summary})
}

// TriggerRun performs a run right away and waits for it to finish.
func (r RunController) TriggerRun(c *gin.Context) {
	// a dropped connection must not cut a run short
	ctx := context.WithoutCancel(c.Request.Context())

	summary, err := r.Runner.Run(ctx)
	switch {
	case errors.Is(err, services.ErrRunInProgress):
		utils.RespondWithError(c, http.StatusConflict, "A reminder run is already in progress")
	case err != nil:
		r.Logger.Error("Manual reminder run failed", "run", summary.RunID, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "run": summary})
	default:
		c.JSON(http.StatusOK, gin.H{"run": summary})
	}
}

// GetRecentLogs lists dispatch attempts, newest first.
func (r RunController) GetRecentLogs(c *gin.Context) {
	limit := defaultLogLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			utils.RespondWithError(c, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxLogLimit)
	}

	logs, err := r.Audit.Recent(c.Request.Context(), limit)
	if err != nil {
		r.Logger.Error("Failed to load reminder logs", "error", err)
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve logs")
		return
	}
	if logs == nil {
		logs = []models.ReminderLog{}
	}
	c.JSON(http.StatusOK, logs)
}
