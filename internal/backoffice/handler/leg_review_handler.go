package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/groupparlay/coordinator/internal/domain"
	"github.com/groupparlay/coordinator/internal/service"
)

// LegReviewHandler serves the commissioner's /admin/legs review queue.
type LegReviewHandler struct {
	legSvc *service.LegService
}

// NewLegReviewHandler creates a LegReviewHandler.
func NewLegReviewHandler(legSvc *service.LegService) *LegReviewHandler {
	return &LegReviewHandler{legSvc: legSvc}
}

// Queue godoc
// GET /admin/legs?filter=all|pending|conflict|approved|all_statuses&week_id=uuid&page=1&limit=50
// filter defaults to "all", which is PENDING plus CONFLICT.
func (h *LegReviewHandler) Queue(c *gin.Context) {
	var weekID *uuid.UUID
	if raw := c.Query("week_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "ERR_INVALID_ID", "invalid week_id")
			return
		}
		weekID = &id
	}
	filter := domain.ReviewFilter(c.DefaultQuery("filter", string(domain.FilterNeedsReview)))
	page, limit := adminPagination(c)
	offset := (page - 1) * limit

	legs, total, err := h.legSvc.ListForReview(c.Request.Context(), filter, weekID, limit, offset)
	if err != nil {
		writeServiceError(c, err, "load the review queue")
		return
	}
	respondList(c, legs, total, page, limit)
}

// SetStatus godoc
// PUT /admin/legs/:id/status
// Body: {"status": "OK", "notes": "matches the book"}
func (h *LegReviewHandler) SetStatus(c *gin.Context) {
	id, ok := paramID(c, "leg")
	if !ok {
		return
	}
	var change domain.StatusChange
	if err := c.ShouldBindJSON(&change); err != nil {
		bindError(c, err)
		return
	}
	leg, err := h.legSvc.SetStatus(c.Request.Context(), id, change)
	if err != nil {
		writeServiceError(c, err, "update the leg")
		return
	}
	respondSuccess(c, http.StatusOK, leg)
}

// BatchStatus godoc
// POST /admin/legs/batch-status
// Body: {"leg_ids": [...], "status": "OK", "notes": "..."}
// Items fail independently; the response lists each outcome.
func (h *LegReviewHandler) BatchStatus(c *gin.Context) {
	var req service.BatchStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	res, err := h.legSvc.BatchSetStatus(c.Request.Context(), req.LegIDs, req.StatusChange)
	if err != nil {
		writeServiceError(c, err, "update the legs")
		return
	}
	respondSuccess(c, http.StatusOK, res)
}
