package handlers

import (
	"errors"
	"fmt"
	"strings"

	"easynetes/internal/manager"
	"easynetes/internal/middleware"
	"easynetes/internal/models"
	"easynetes/internal/utils"

	"github.com/gin-gonic/gin"
)

var errLastAdmin = errors.New("at least one admin required")

// UserHandlers is the admin-only account API. Routes are mounted behind
// middleware.RequireRole(models.RoleAdmin).
type UserHandlers struct {
	users       *manager.UserStore
	authService *middleware.AuthService
	logger      *utils.Logger
}

func NewUserHandlers(store *manager.UserStore, auth *middleware.AuthService, logger *utils.Logger) *UserHandlers {
	return &UserHandlers{users: store, authService: auth, logger: logger}
}

type userSummary struct {
	Username  string           `json:"username"`
	Role      models.Role      `json:"role"`
	Email     string           `json:"email,omitempty"`
	CreatedAt models.Timestamp `json:"createdAt"`
	LastLogin models.Timestamp `json:"lastLogin"`
}

// APIUsersList returns users, optionally filtered by ?q= on name or role.
func (h *UserHandlers) APIUsersList(c *gin.Context) {
	q := strings.ToLower(strings.TrimSpace(c.Query("q")))
	users := h.users.Users()
	out := make([]userSummary, 0, len(users))
	for _, u := range users {
		if q != "" && !strings.Contains(strings.ToLower(u.Username), q) && !strings.Contains(string(u.Role), q) {
			continue
		}
		out = append(out, userSummary{
			Username:  u.Username,
			Role:      u.Role,
			Email:     u.Email,
			CreatedAt: models.NewTimestamp(u.CreatedAt),
			LastLogin: models.NewTimestamp(u.LastLogin),
		})
	}
	renderList(c, int64(len(out)), out)
}

type apiCreateUserReq struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Role     string `json:"role"`
	Email    string `json:"email" validate:"omitempty,email"`
}

func (h *UserHandlers) APIUsersCreate(c *gin.Context) {
	var req apiCreateUserReq
	if !bindJSON(c, &req) {
		return
	}
	username := middleware.SanitizeString(req.Username)
	role := models.RoleViewer
	if strings.TrimSpace(req.Role) != "" {
		parsed, ok := models.ParseRole(req.Role)
		if !ok {
			renderStatus(c, models.SCodeBadRequest, nil, "invalid role")
			return
		}
		role = parsed
	}
	hash, err := h.authService.HashPassword(req.Password)
	if err != nil {
		renderError(c, err)
		return
	}
	if _, err := h.users.CreateUser(username, hash, role); err != nil {
		renderError(c, err)
		return
	}
	if req.Email != "" {
		if err := h.users.SetProfile(username, req.Email, "", ""); err != nil {
			renderError(c, err)
			return
		}
	}
	h.logger.Write(fmt.Sprintf("User '%s' created user '%s' with role %s", c.GetString(middleware.ContextUsername), username, role))
	ToastSuccess(c, "Users", fmt.Sprintf("User %s created.", username))
	renderOK(c, gin.H{"username": username, "role": role})
}

type apiSetRoleReq struct {
	Role string `json:"role" validate:"required"`
}

// wouldRemoveLastAdmin reports whether demoting or deleting username leaves
// no admin behind.
func (h *UserHandlers) wouldRemoveLastAdmin(username string) bool {
	u, ok := h.users.Get(username)
	return ok && u.Role == models.RoleAdmin && h.users.AdminCount() <= 1
}

func (h *UserHandlers) APIUsersSetRole(c *gin.Context) {
	username := strings.TrimSpace(c.Param("username"))
	var req apiSetRoleReq
	if !bindJSON(c, &req) {
		return
	}
	role, ok := models.ParseRole(req.Role)
	if !ok {
		renderStatus(c, models.SCodeBadRequest, nil, "invalid role")
		return
	}
	if role != models.RoleAdmin && h.wouldRemoveLastAdmin(username) {
		renderStatus(c, models.SCodeBadRequest, nil, errLastAdmin.Error())
		return
	}
	if err := h.users.SetRole(username, role); err != nil {
		renderError(c, err)
		return
	}
	h.logger.Write(fmt.Sprintf("User '%s' set role of '%s' to %s", c.GetString(middleware.ContextUsername), username, role))
	renderOK(c, gin.H{"username": username, "role": role})
}

func (h *UserHandlers) APIUsersDelete(c *gin.Context) {
	username := strings.TrimSpace(c.Param("username"))
	if h.wouldRemoveLastAdmin(username) {
		renderStatus(c, models.SCodeBadRequest, nil, "cannot delete last admin")
		return
	}
	if err := h.users.Delete(username); err != nil {
		renderError(c, err)
		return
	}
	h.logger.Write(fmt.Sprintf("User '%s' deleted user '%s'", c.GetString(middleware.ContextUsername), username))
	renderOK(c, nil)
}

type apiResetPasswordReq struct {
	Password string `json:"password" validate:"required,min=8,max=128"`
}

func (h *UserHandlers) APIUsersResetPassword(c *gin.Context) {
	username := strings.TrimSpace(c.Param("username"))
	var req apiResetPasswordReq
	if !bindJSON(c, &req) {
		return
	}
	hash, err := h.authService.HashPassword(req.Password)
	if err != nil {
		renderError(c, err)
		return
	}
	if err := h.users.SetPassword(username, hash); err != nil {
		renderError(c, err)
		return
	}
	renderOK(c, nil)
}
