package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/groupparlay/coordinator/internal/service"
)

// OddsHandler serves the cached odds board used to build a leg.
type OddsHandler struct {
	oddsSvc *service.OddsService
}

// NewOddsHandler creates an OddsHandler.
func NewOddsHandler(oddsSvc *service.OddsService) *OddsHandler {
	return &OddsHandler{oddsSvc: oddsSvc}
}

// Games godoc
// GET /api/odds/games?league=NFL&limit=50 [JWT]
func (h *OddsHandler) Games(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit < 1 || limit > 200 {
		limit = 50
	}
	games, err := h.oddsSvc.ListUpcoming(c.Request.Context(), c.Query("league"), limit)
	if err != nil {
		writeServiceError(c, err, "load games")
		return
	}
	respondSuccess(c, http.StatusOK, games)
}
