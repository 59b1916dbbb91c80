package controllers

import (
	"context"
	"net/http"

	"reminder-bot/services"
	"reminder-bot/utils"

	"github.com/gin-gonic/gin"
)

// CandidatePreviewer lists today's candidate events with their eligibility.
type CandidatePreviewer interface {
	Preview(ctx context.Context) ([]services.EventPreview, error)
}

type DashboardOverview struct {
	Running    bool                    `json:"running"`
	LastRun    *services.RunSummary    `json:"lastRun"`
	Candidates int                     `json:"candidates"`
	DueNow     int                     `json:"dueNow"`
	Events     []services.EventPreview `json:"events"`
}

type DashboardController struct {
	Runner    ReminderRunner
	Previewer CandidatePreviewer
}

// GetDashboardOverview shows what the next run would pick up. Nothing is sent.
func (d DashboardController) GetDashboardOverview(c *gin.Context) {
	previews, err := d.Previewer.Preview(c.Request.Context())
	if err != nil {
		utils.RespondWithError(c, http.StatusBadGateway, "Failed to query events: "+err.Error())
		return
	}

	overview := DashboardOverview{
		Running:    d.Runner.Running(),
		Candidates: len(previews),
		Events:     previews,
	}
	if last, ok := d.Runner.LastRun(); ok {
		overview.LastRun = &last
	}
	for _, p := range previews {
		if p.Eligible {
			overview.DueNow++
		}
	}

	c.JSON(http.StatusOK, overview)
}
