package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	apihandler "github.com/groupparlay/coordinator/internal/api/handler"
)

// ──────────────────────────────────────────────────────────────────────────────
// Standard admin response helpers (mirrors internal/api/handler/response.go)
// ──────────────────────────────────────────────────────────────────────────────

func respondSuccess(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func respondError(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error":   msg,
		"code":    code,
	})
}

func respondList(c *gin.Context, items interface{}, total, page, limit int) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    items,
		"meta": gin.H{
			"total": total,
			"page":  page,
			"limit": limit,
		},
	})
}

// writeServiceError uses the member API's error table so both surfaces
// report the same codes.
func writeServiceError(c *gin.Context, err error, action string) {
	status, code, ok := apihandler.ErrorStatus(err)
	if !ok {
		slog.Error("admin request failed", "method", c.Request.Method, "path", c.FullPath(), "err", err)
		respondError(c, status, code, "could not "+action+", please try again")
		return
	}
	respondError(c, status, code, err.Error())
}

func bindError(c *gin.Context, err error) {
	respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
}

// adminPagination reads page/limit query params with sane defaults for admin views.
func adminPagination(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 500 {
		limit = 50
	}
	return
}

func paramID(c *gin.Context, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_ID", "invalid "+what+" id")
		return uuid.Nil, false
	}
	return id, true
}
