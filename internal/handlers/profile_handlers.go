package handlers

import (
	"easynetes/internal/manager"
	"easynetes/internal/middleware"
	"easynetes/internal/models"

	"github.com/gin-gonic/gin"
)

// ProfileHandlers provides endpoints for self-service account actions
type ProfileHandlers struct {
	users       *manager.UserStore
	authService *middleware.AuthService
}

func NewProfileHandlers(store *manager.UserStore, auth *middleware.AuthService) *ProfileHandlers {
	return &ProfileHandlers{users: store, authService: auth}
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=128"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=NewPassword"`
}

// APIChangePassword verifies the current password before storing the new one.
func (h *ProfileHandlers) APIChangePassword(c *gin.Context) {
	username := c.GetString(middleware.ContextUsername)
	var req ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	u, ok := h.users.Get(username)
	if !ok || !h.authService.CheckPassword(req.CurrentPassword, u.PasswordHash) {
		renderStatus(c, models.SCodeUnauthorized, nil, "current password is incorrect")
		return
	}
	hash, err := h.authService.HashPassword(req.NewPassword)
	if err != nil {
		renderError(c, err)
		return
	}
	if err := h.users.SetPassword(username, hash); err != nil {
		renderError(c, err)
		return
	}
	ToastSuccess(c, "Password", "Password updated successfully.")
	renderOK(c, nil)
}

// APISettingsGET returns the caller's persisted console settings.
func (h *ProfileHandlers) APISettingsGET(c *gin.Context) {
	settings, err := h.users.AppSettings(c.GetString(middleware.ContextUsername))
	if err != nil {
		renderError(c, err)
		return
	}
	renderOK(c, settings)
}

// APISettingsPUT replaces the caller's console settings.
func (h *ProfileHandlers) APISettingsPUT(c *gin.Context) {
	settings := models.DefaultAppSettings()
	if !bindJSON(c, &settings) {
		return
	}
	if err := h.users.SetAppSettings(c.GetString(middleware.ContextUsername), settings); err != nil {
		renderError(c, err)
		return
	}
	renderOK(c, settings)
}
