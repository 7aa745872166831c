package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/groupparlay/coordinator/internal/domain"
	"github.com/groupparlay/coordinator/internal/service"
)

// WeekAdminHandler serves /admin/weeks and /admin/seasons endpoints.
type WeekAdminHandler struct {
	weekSvc   *service.WeekService
	parlaySvc *service.ParlayService
}

// NewWeekAdminHandler creates a WeekAdminHandler.
func NewWeekAdminHandler(weekSvc *service.WeekService, parlaySvc *service.ParlayService) *WeekAdminHandler {
	return &WeekAdminHandler{weekSvc: weekSvc, parlaySvc: parlaySvc}
}

// List godoc
// GET /admin/weeks?status=LOCKED&season_id=uuid&page=1&limit=50
func (h *WeekAdminHandler) List(c *gin.Context) {
	var seasonID *uuid.UUID
	if raw := c.Query("season_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "ERR_INVALID_ID", "invalid season_id")
			return
		}
		seasonID = &id
	}
	page, limit := adminPagination(c)
	offset := (page - 1) * limit

	weeks, total, err := h.weekSvc.List(c.Request.Context(), limit, offset, c.Query("status"), seasonID)
	if err != nil {
		writeServiceError(c, err, "list weeks")
		return
	}
	respondList(c, h.weekSvc.Views(weeks), total, page, limit)
}

// Create godoc
// POST /admin/weeks
// Body: service.CreateWeekRequest. locks_at defaults to the next league lock time.
func (h *WeekAdminHandler) Create(c *gin.Context) {
	var req service.CreateWeekRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	w, err := h.weekSvc.Create(c.Request.Context(), req)
	if err != nil {
		writeServiceError(c, err, "create the week")
		return
	}
	respondSuccess(c, http.StatusCreated, h.weekSvc.View(w))
}

// Lock godoc
// POST /admin/weeks/:id/lock
func (h *WeekAdminHandler) Lock(c *gin.Context) {
	h.transition(c, h.weekSvc.Lock, "lock the week")
}

// Reopen godoc
// POST /admin/weeks/:id/reopen
func (h *WeekAdminHandler) Reopen(c *gin.Context) {
	h.transition(c, h.weekSvc.Reopen, "reopen the week")
}

// Finalize godoc
// POST /admin/weeks/:id/finalize
func (h *WeekAdminHandler) Finalize(c *gin.Context) {
	h.transition(c, h.weekSvc.Finalize, "finalize the week")
}

func (h *WeekAdminHandler) transition(
	c *gin.Context,
	fn func(context.Context, uuid.UUID) (*domain.Week, error),
	action string,
) {
	id, ok := paramID(c, "week")
	if !ok {
		return
	}
	w, err := fn(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err, action)
		return
	}
	respondSuccess(c, http.StatusOK, h.weekSvc.View(w))
}

// SetLockTime godoc
// PUT /admin/weeks/:id/lock-time
// Body: {"locks_at": "2026-10-18T12:00:00-04:00"} or {"next_sunday": true}
func (h *WeekAdminHandler) SetLockTime(c *gin.Context) {
	id, ok := paramID(c, "week")
	if !ok {
		return
	}
	var body struct {
		LocksAt    *time.Time `json:"locks_at"`
		NextSunday bool       `json:"next_sunday"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		bindError(c, err)
		return
	}

	var (
		w   *domain.Week
		err error
	)
	switch {
	case body.NextSunday && body.LocksAt != nil:
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", "send either locks_at or next_sunday, not both")
		return
	case body.NextSunday:
		w, err = h.weekSvc.SetLockTimeNextSunday(c.Request.Context(), id)
	case body.LocksAt != nil:
		w, err = h.weekSvc.SetLockTime(c.Request.Context(), id, *body.LocksAt)
	default:
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", "locks_at or next_sunday is required")
		return
	}
	if err != nil {
		writeServiceError(c, err, "set the lock time")
		return
	}
	respondSuccess(c, http.StatusOK, h.weekSvc.View(w))
}

// RecomputeParlay godoc
// POST /admin/weeks/:id/parlay/recompute
func (h *WeekAdminHandler) RecomputeParlay(c *gin.Context) {
	id, ok := paramID(c, "week")
	if !ok {
		return
	}
	p, err := h.parlaySvc.Recompute(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err, "recompute the parlay")
		return
	}
	respondSuccess(c, http.StatusOK, p.View(false))
}

// ── Seasons ──────────────────────────────────────────────────────────────────

// CreateSeason godoc
// POST /admin/seasons
func (h *WeekAdminHandler) CreateSeason(c *gin.Context) {
	var req service.CreateSeasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	season, err := h.weekSvc.CreateSeason(c.Request.Context(), req)
	if err != nil {
		writeServiceError(c, err, "create the season")
		return
	}
	respondSuccess(c, http.StatusCreated, season)
}

// ListSeasons godoc
// GET /admin/seasons
func (h *WeekAdminHandler) ListSeasons(c *gin.Context) {
	seasons, err := h.weekSvc.ListSeasons(c.Request.Context())
	if err != nil {
		writeServiceError(c, err, "list seasons")
		return
	}
	respondSuccess(c, http.StatusOK, seasons)
}
