package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/groupparlay/coordinator/internal/api/middleware"
	"github.com/groupparlay/coordinator/internal/domain"
	"github.com/groupparlay/coordinator/internal/service"
)

// LegHandler serves member leg submission endpoints.
type LegHandler struct {
	legSvc *service.LegService
}

// NewLegHandler creates a LegHandler.
func NewLegHandler(legSvc *service.LegService) *LegHandler {
	return &LegHandler{legSvc: legSvc}
}

// Submit godoc
// POST /api/legs [JWT]
// Body: domain.LegInput. The leg joins the current week as PENDING.
func (h *LegHandler) Submit(c *gin.Context) {
	var in domain.LegInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	leg, err := h.legSvc.Submit(c.Request.Context(), middleware.GetUserID(c), in)
	if err != nil {
		writeServiceError(c, err, "submit your leg")
		return
	}
	respondSuccess(c, http.StatusCreated, leg)
}

// Mine godoc
// GET /api/legs/mine?week_id=uuid [JWT]
// Without week_id the current week is used.
func (h *LegHandler) Mine(c *gin.Context) {
	weekID, ok := queryID(c, "week_id")
	if !ok {
		return
	}
	leg, err := h.legSvc.GetMine(c.Request.Context(), middleware.GetUserID(c), weekID)
	if err != nil {
		writeServiceError(c, err, "load your leg")
		return
	}
	respondSuccess(c, http.StatusOK, leg)
}

// History godoc
// GET /api/legs/history?page=1&limit=20 [JWT]
func (h *LegHandler) History(c *gin.Context) {
	page, limit := parsePagination(c)
	offset := (page - 1) * limit

	legs, total, err := h.legSvc.History(c.Request.Context(), middleware.GetUserID(c), limit, offset)
	if err != nil {
		writeServiceError(c, err, "load your history")
		return
	}
	respondList(c, legs, total, page, limit)
}

// Edit godoc
// PATCH /api/legs/:id [JWT]
// Replaces the pick while the leg is PENDING and the week accepts legs.
func (h *LegHandler) Edit(c *gin.Context) {
	id, ok := paramID(c, "leg")
	if !ok {
		return
	}
	var in domain.LegInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	leg, err := h.legSvc.Edit(c.Request.Context(), middleware.GetUserID(c), id, in)
	if err != nil {
		writeServiceError(c, err, "update your leg")
		return
	}
	respondSuccess(c, http.StatusOK, leg)
}

// Delete godoc
// DELETE /api/legs/:id [JWT]
func (h *LegHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "leg")
	if !ok {
		return
	}
	if err := h.legSvc.Delete(c.Request.Context(), middleware.GetUserID(c), id); err != nil {
		writeServiceError(c, err, "delete your leg")
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"id": id, "deleted": true})
}
