package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/groupparlay/coordinator/internal/api/middleware"
	"github.com/groupparlay/coordinator/internal/domain"
	"github.com/groupparlay/coordinator/internal/repository"
	"github.com/groupparlay/coordinator/internal/service"
)

// UserAdminHandler serves /admin/users endpoints.
type UserAdminHandler struct {
	profileSvc *service.ProfileService
	userRepo   *repository.UserRepository
}

// NewUserAdminHandler creates a UserAdminHandler.
func NewUserAdminHandler(profileSvc *service.ProfileService, userRepo *repository.UserRepository) *UserAdminHandler {
	return &UserAdminHandler{profileSvc: profileSvc, userRepo: userRepo}
}

// List godoc
// GET /admin/users?page=1&limit=50
func (h *UserAdminHandler) List(c *gin.Context) {
	page, limit := adminPagination(c)
	offset := (page - 1) * limit

	profiles, total, err := h.profileSvc.List(c.Request.Context(), limit, offset)
	if err != nil {
		writeServiceError(c, err, "list members")
		return
	}
	respondList(c, profiles, total, page, limit)
}

// Detail godoc
// GET /admin/users/:id
func (h *UserAdminHandler) Detail(c *gin.Context) {
	id, ok := paramID(c, "user")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	profile, err := h.profileSvc.Me(ctx, id)
	if err != nil {
		writeServiceError(c, err, "load the member")
		return
	}
	user, err := h.userRepo.GetByID(ctx, id)
	if err != nil {
		writeServiceError(c, err, "load the member")
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{
		"profile":   profile,
		"is_active": user.IsActive,
	})
}

// SetRole godoc
// PUT /admin/users/:id/role
// Body: {"role": "COMMISSIONER"}
func (h *UserAdminHandler) SetRole(c *gin.Context) {
	id, ok := paramID(c, "user")
	if !ok {
		return
	}
	var body struct {
		Role string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		bindError(c, err)
		return
	}
	role := domain.Role(strings.ToUpper(strings.TrimSpace(body.Role)))
	if id == middleware.GetUserID(c) && role != domain.RoleCommissioner {
		// Keeps at least the caller able to administer the league.
		respondError(c, http.StatusConflict, "ERR_SELF_DEMOTION", "you cannot remove your own commissioner role")
		return
	}

	p, err := h.profileSvc.SetRole(c.Request.Context(), id, role)
	if err != nil {
		writeServiceError(c, err, "change the role")
		return
	}
	respondSuccess(c, http.StatusOK, p)
}

// UpdateInfo godoc
// PATCH /admin/users/:id
// Body: {"name": "Sam", "team_name": "Gridiron Gamblers"}
func (h *UserAdminHandler) UpdateInfo(c *gin.Context) {
	id, ok := paramID(c, "user")
	if !ok {
		return
	}
	var upd domain.ProfileUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		bindError(c, err)
		return
	}
	p, err := h.profileSvc.UpdateInfo(c.Request.Context(), id, upd)
	if err != nil {
		writeServiceError(c, err, "update the member")
		return
	}
	respondSuccess(c, http.StatusOK, p)
}

// Suspend godoc
// POST /admin/users/:id/suspend
func (h *UserAdminHandler) Suspend(c *gin.Context) {
	h.setActive(c, false)
}

// Activate godoc
// POST /admin/users/:id/activate
func (h *UserAdminHandler) Activate(c *gin.Context) {
	h.setActive(c, true)
}

func (h *UserAdminHandler) setActive(c *gin.Context, active bool) {
	id, ok := paramID(c, "user")
	if !ok {
		return
	}
	if !active && id == middleware.GetUserID(c) {
		respondError(c, http.StatusConflict, "ERR_SELF_SUSPEND", "you cannot suspend your own account")
		return
	}
	if err := h.userRepo.SetActive(c.Request.Context(), id, active); err != nil {
		writeServiceError(c, err, "update the account")
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"user_id": id, "is_active": active})
}
