package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/groupparlay/coordinator/internal/domain"
	"github.com/groupparlay/coordinator/internal/service"
)

// DashboardHandler serves the /admin/dashboard endpoint.
type DashboardHandler struct {
	weekSvc    *service.WeekService
	legSvc     *service.LegService
	parlaySvc  *service.ParlayService
	profileSvc *service.ProfileService
}

// NewDashboardHandler creates a DashboardHandler.
func NewDashboardHandler(
	weekSvc *service.WeekService,
	legSvc *service.LegService,
	parlaySvc *service.ParlayService,
	profileSvc *service.ProfileService,
) *DashboardHandler {
	return &DashboardHandler{
		weekSvc:    weekSvc,
		legSvc:     legSvc,
		parlaySvc:  parlaySvc,
		profileSvc: profileSvc,
	}
}

// Dashboard godoc
// GET /admin/dashboard
// Summarizes the current week for the commissioner. "current_week" is null
// between weeks.
func (h *DashboardHandler) Dashboard(c *gin.Context) {
	ctx := c.Request.Context()

	// ── Members ──────────────────────────────────────────────────────────────
	_, members, err := h.profileSvc.List(ctx, 1, 0)
	if err != nil {
		writeServiceError(c, err, "load the dashboard")
		return
	}

	// ── Whole-league review queue ────────────────────────────────────────────
	_, needsReview, err := h.legSvc.ListForReview(ctx, domain.FilterNeedsReview, nil, 1, 0)
	if err != nil {
		writeServiceError(c, err, "load the dashboard")
		return
	}

	data := gin.H{
		"timestamp":    time.Now().UTC(),
		"members":      members,
		"needs_review": needsReview,
		"current_week": nil,
	}

	// ── Current week ─────────────────────────────────────────────────────────
	week, err := h.weekSvc.Current(ctx)
	switch {
	case errors.Is(err, domain.ErrNoOpenWeek):
		respondSuccess(c, http.StatusOK, data)
		return
	case err != nil:
		writeServiceError(c, err, "load the dashboard")
		return
	}

	legs, err := h.legSvc.ListByWeek(ctx, week.ID, nil)
	if err != nil {
		writeServiceError(c, err, "load the dashboard")
		return
	}
	byStatus := make(map[domain.LegStatus]int)
	for _, l := range legs {
		byStatus[l.Status]++
	}

	preview, err := h.parlaySvc.Preview(ctx, week.ID)
	if err != nil {
		writeServiceError(c, err, "load the dashboard")
		return
	}

	data["current_week"] = gin.H{
		"week":           h.weekSvc.View(week),
		"legs_submitted": len(legs),
		"legs_missing":   max(members-len(legs), 0),
		"legs_by_status": byStatus,
		"parlay_preview": preview.View(true),
	}
	respondSuccess(c, http.StatusOK, data)
}
