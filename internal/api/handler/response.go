package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/groupparlay/coordinator/internal/domain"
	"github.com/groupparlay/coordinator/internal/service"
)

// ──────────────────────────────────────────────────────────────────────────────
// Standard response helpers
// ──────────────────────────────────────────────────────────────────────────────

// respondSuccess writes {"success": true, "data": data} with the given status.
func respondSuccess(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

// respondError writes {"success": false, "error": msg, "code": code}.
func respondError(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error":   msg,
		"code":    code,
	})
}

// respondList writes {"success": true, "data": items, "meta": {...}}.
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

// ──────────────────────────────────────────────────────────────────────────────
// Domain error → HTTP mapping
// ──────────────────────────────────────────────────────────────────────────────

type errorMapping struct {
	err    error
	status int
	code   string
}

// Specific codes first; the predicate fallbacks in ErrorStatus cover the rest.
var errorTable = []errorMapping{
	{domain.ErrNoOpenWeek, http.StatusNotFound, "ERR_NO_OPEN_WEEK"},
	{domain.ErrWeekNotFound, http.StatusNotFound, "ERR_WEEK_NOT_FOUND"},
	{domain.ErrLegNotFound, http.StatusNotFound, "ERR_LEG_NOT_FOUND"},
	{domain.ErrLegAlreadySubmitted, http.StatusConflict, "ERR_LEG_ALREADY_SUBMITTED"},
	{domain.ErrLegNotEditable, http.StatusConflict, "ERR_LEG_NOT_EDITABLE"},
	{domain.ErrLegStateChanged, http.StatusConflict, "ERR_STATE_CHANGED"},
	{domain.ErrWeekStateChanged, http.StatusConflict, "ERR_STATE_CHANGED"},
	{domain.ErrInvalidLegTransition, http.StatusConflict, "ERR_INVALID_TRANSITION"},
	{domain.ErrInvalidWeekTransition, http.StatusConflict, "ERR_INVALID_TRANSITION"},
	{domain.ErrWeekNotOpen, http.StatusConflict, "ERR_WEEK_NOT_OPEN"},
	{domain.ErrAnotherWeekOpen, http.StatusConflict, "ERR_ANOTHER_WEEK_OPEN"},
	{domain.ErrEmailTaken, http.StatusConflict, "ERR_EMAIL_TAKEN"},
	{domain.ErrInvalidRole, http.StatusBadRequest, "ERR_INVALID_ROLE"},
	{domain.ErrInvalidLegStatus, http.StatusBadRequest, "ERR_INVALID_STATUS"},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized, "ERR_INVALID_CREDENTIALS"},
	{domain.ErrUserInactive, http.StatusForbidden, "ERR_ACCOUNT_DISABLED"},
	{domain.ErrForbidden, http.StatusForbidden, "ERR_FORBIDDEN"},
	{domain.ErrTokenExpired, http.StatusUnauthorized, "ERR_TOKEN_EXPIRED"},
	{service.ErrOddsDisabled, http.StatusServiceUnavailable, "ERR_ODDS_DISABLED"},
}

// ErrorStatus classifies err for an HTTP response. ok is false for backend
// errors, whose message must not reach the client.
func ErrorStatus(err error) (status int, code string, ok bool) {
	for _, m := range errorTable {
		if errors.Is(err, m.err) {
			return m.status, m.code, true
		}
	}
	switch {
	case domain.IsValidation(err):
		return http.StatusBadRequest, "ERR_VALIDATION", true
	case domain.IsNotFound(err):
		return http.StatusNotFound, "ERR_NOT_FOUND", true
	case domain.IsConflict(err):
		return http.StatusConflict, "ERR_CONFLICT", true
	case domain.IsAuthError(err):
		return http.StatusUnauthorized, "ERR_UNAUTHORIZED", true
	}
	return http.StatusInternalServerError, "ERR_INTERNAL", false
}

// writeServiceError maps err to the envelope. Backend errors are logged with
// their cause and reported as a retryable failure described by action.
func writeServiceError(c *gin.Context, err error, action string) {
	status, code, ok := ErrorStatus(err)
	if !ok {
		slog.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "err", err)
		respondError(c, status, code, "could not "+action+", please try again")
		return
	}
	msg := err.Error()
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		msg = ve.Error()
	}
	respondError(c, status, code, msg)
}

// ── helpers ──────────────────────────────────────────────────────────────────

func parsePagination(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return
}

// paramID parses the :id path parameter, writing a 400 on failure.
func paramID(c *gin.Context, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_ID", "invalid "+what+" id")
		return uuid.Nil, false
	}
	return id, true
}

// queryID parses an optional uuid query parameter. A malformed value writes
// a 400 and returns ok=false.
func queryID(c *gin.Context, key string) (*uuid.UUID, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_ID", "invalid "+key)
		return nil, false
	}
	return &id, true
}
