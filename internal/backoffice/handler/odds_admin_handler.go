package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/groupparlay/coordinator/internal/service"
)

// OddsAdminHandler serves /admin/odds endpoints.
type OddsAdminHandler struct {
	oddsSvc *service.OddsService
}

// NewOddsAdminHandler creates an OddsAdminHandler.
func NewOddsAdminHandler(oddsSvc *service.OddsService) *OddsAdminHandler {
	return &OddsAdminHandler{oddsSvc: oddsSvc}
}

// Refresh godoc
// POST /admin/odds/refresh
// Pulls every configured sport now instead of waiting for the cron job.
func (h *OddsAdminHandler) Refresh(c *gin.Context) {
	res, err := h.oddsSvc.Refresh(c.Request.Context())
	if err != nil {
		writeServiceError(c, err, "refresh odds")
		return
	}
	respondSuccess(c, http.StatusOK, res)
}
