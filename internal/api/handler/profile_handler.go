package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/groupparlay/coordinator/internal/api/middleware"
	"github.com/groupparlay/coordinator/internal/domain"
	"github.com/groupparlay/coordinator/internal/service"
)

// ProfileHandler serves the caller's own profile.
type ProfileHandler struct {
	profileSvc *service.ProfileService
}

// NewProfileHandler creates a ProfileHandler.
func NewProfileHandler(profileSvc *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileSvc: profileSvc}
}

// Me godoc
// GET /api/me [JWT required]
func (h *ProfileHandler) Me(c *gin.Context) {
	p, err := h.profileSvc.Me(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		writeServiceError(c, err, "load your profile")
		return
	}
	respondSuccess(c, http.StatusOK, p)
}

// UpdateMe godoc
// PATCH /api/me [JWT required]
// Body: {"name":"Sam","team_name":"Gridiron Gamblers"}; "" clears team_name.
func (h *ProfileHandler) UpdateMe(c *gin.Context) {
	var upd domain.ProfileUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}
	p, err := h.profileSvc.UpdateSelf(c.Request.Context(), middleware.GetUserID(c), upd)
	if err != nil {
		writeServiceError(c, err, "update your profile")
		return
	}
	respondSuccess(c, http.StatusOK, p)
}
