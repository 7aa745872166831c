package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/groupparlay/coordinator/internal/domain"
	"github.com/groupparlay/coordinator/internal/service"
)

// WeekHandler serves week, parlay and week-leg read endpoints.
type WeekHandler struct {
	weekSvc   *service.WeekService
	parlaySvc *service.ParlayService
	legSvc    *service.LegService
}

// NewWeekHandler creates a WeekHandler.
func NewWeekHandler(weekSvc *service.WeekService, parlaySvc *service.ParlayService, legSvc *service.LegService) *WeekHandler {
	return &WeekHandler{weekSvc: weekSvc, parlaySvc: parlaySvc, legSvc: legSvc}
}

// Current godoc
// GET /api/weeks/current
func (h *WeekHandler) Current(c *gin.Context) {
	w, err := h.weekSvc.Current(c.Request.Context())
	if err != nil {
		writeServiceError(c, err, "load the current week")
		return
	}
	respondSuccess(c, http.StatusOK, h.weekSvc.View(w))
}

// List godoc
// GET /api/weeks?status=OPEN&season_id=uuid&page=1&limit=20
func (h *WeekHandler) List(c *gin.Context) {
	seasonID, ok := queryID(c, "season_id")
	if !ok {
		return
	}
	page, limit := parsePagination(c)
	offset := (page - 1) * limit

	weeks, total, err := h.weekSvc.List(c.Request.Context(), limit, offset, c.Query("status"), seasonID)
	if err != nil {
		writeServiceError(c, err, "list weeks")
		return
	}
	respondList(c, h.weekSvc.Views(weeks), total, page, limit)
}

// Get godoc
// GET /api/weeks/:id
func (h *WeekHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "week")
	if !ok {
		return
	}
	w, err := h.weekSvc.Get(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err, "load the week")
		return
	}
	respondSuccess(c, http.StatusOK, h.weekSvc.View(w))
}

// Parlay godoc
// GET /api/weeks/:id/parlay
func (h *WeekHandler) Parlay(c *gin.Context) {
	id, ok := paramID(c, "week")
	if !ok {
		return
	}
	p, err := h.parlaySvc.Get(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err, "compute the parlay")
		return
	}
	respondSuccess(c, http.StatusOK, p.View(false))
}

// ParlayPreview godoc
// GET /api/weeks/:id/parlay/preview
// Counts PENDING legs as if approved. Never stored.
func (h *WeekHandler) ParlayPreview(c *gin.Context) {
	id, ok := paramID(c, "week")
	if !ok {
		return
	}
	p, err := h.parlaySvc.Preview(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err, "compute the parlay preview")
		return
	}
	respondSuccess(c, http.StatusOK, p.View(true))
}

// Legs godoc
// GET /api/weeks/:id/legs?status=OK,PENDING
func (h *WeekHandler) Legs(c *gin.Context) {
	id, ok := paramID(c, "week")
	if !ok {
		return
	}
	statuses, ok := parseStatuses(c)
	if !ok {
		return
	}
	legs, err := h.legSvc.ListByWeek(c.Request.Context(), id, statuses)
	if err != nil {
		writeServiceError(c, err, "list the week's legs")
		return
	}
	respondSuccess(c, http.StatusOK, legs)
}

// parseStatuses reads a comma-separated ?status= list. Empty means all.
func parseStatuses(c *gin.Context) ([]domain.LegStatus, bool) {
	raw := c.Query("status")
	if raw == "" {
		return nil, true
	}
	var out []domain.LegStatus
	for _, part := range strings.Split(raw, ",") {
		s := domain.LegStatus(strings.ToUpper(strings.TrimSpace(part)))
		if !s.IsValid() {
			respondError(c, http.StatusBadRequest, "ERR_INVALID_STATUS", "unknown leg status "+part)
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}
