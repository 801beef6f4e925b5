package handlers

import (
	"fmt"
	"strings"
	"time"

	"easynetes/internal/manager"
	"easynetes/internal/menu"
	"easynetes/internal/middleware"
	"easynetes/internal/models"
	"easynetes/internal/utils"

	"github.com/gin-gonic/gin"
)

type AuthHandlers struct {
	authService *middleware.AuthService
	users       *manager.UserStore
	logger      *utils.Logger
	routes      []*menu.Route
}

func (h *AuthHandlers) logAuthEvent(format string, args ...interface{}) {
	h.logger.Write(fmt.Sprintf(format, args...))
}

type LoginRequest struct {
	Username string `json:"username" validate:"required,min=1,max=64"`
	Password string `json:"password" validate:"required,min=1,max=128"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

func NewAuthHandlers(authService *middleware.AuthService, store *manager.UserStore, logger *utils.Logger, routes []*menu.Route) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
		users:       store,
		logger:      logger,
		routes:      routes,
	}
}

// APILogin checks credentials, sets the auth cookie and returns the token.
func (h *AuthHandlers) APILogin(c *gin.Context) {
	if retryAfter, locked := h.authService.CheckLockout(c); locked {
		c.Header("Retry-After", fmt.Sprintf("%.0f", retryAfter.Seconds()))
		renderStatus(c, models.SCodeTooManyRequests, gin.H{"retry_after": int(retryAfter.Seconds())}, "too many failed logins")
		return
	}

	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	username := middleware.SanitizeString(req.Username)
	password := strings.TrimSpace(req.Password)

	u, exists := h.users.Get(username)
	if !exists || !h.authService.CheckPassword(password, u.PasswordHash) {
		if !exists {
			h.logAuthEvent("API login failed for unknown user '%s' from %s", username, c.ClientIP())
		} else {
			h.logAuthEvent("API login failed for user '%s' from %s: password mismatch", username, c.ClientIP())
		}
		if retryAfter, locked := h.authService.RecordFailure(c); locked {
			h.logAuthEvent("Login lockout for %s (%s)", c.ClientIP(), retryAfter)
			c.Header("Retry-After", fmt.Sprintf("%.0f", retryAfter.Seconds()))
			renderStatus(c, models.SCodeTooManyRequests, gin.H{"retry_after": int(retryAfter.Seconds())}, "too many failed logins")
			return
		}
		renderStatus(c, models.SCodeUnauthorized, nil, "invalid username or password")
		return
	}

	token, err := h.authService.GenerateToken(u.Username, string(u.Role))
	if err != nil {
		renderError(c, fmt.Errorf("generate token: %w", err))
		return
	}
	h.authService.ClearFailures(c)
	if err := h.users.TouchLogin(u.Username, time.Now()); err != nil {
		h.logAuthEvent("Recording last login for '%s' failed: %v", u.Username, err)
	}
	h.logAuthEvent("API login successful for user '%s' from %s", u.Username, c.ClientIP())

	h.authService.SetAuthCookie(c, token)
	renderOK(c, LoginResponse{Token: token})
}

// APILogout revokes the presented token and clears the cookie.
func (h *AuthHandlers) APILogout(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	h.authService.Revoke(claims)
	h.authService.ClearAuthCookie(c)
	h.logAuthEvent("User '%s' logged out", c.GetString(middleware.ContextUsername))
	renderOK(c, nil)
}

// APIInfo returns the caller's session profile.
func (h *AuthHandlers) APIInfo(c *gin.Context) {
	u, ok := h.users.Get(c.GetString(middleware.ContextUsername))
	if !ok {
		renderError(c, manager.ErrUserNotFound)
		return
	}
	info := u.Info()
	info.Role = c.GetString(middleware.ContextRole)
	renderOK(c, info)
}

// APIMenu returns the route tree pruned for the caller's role.
func (h *AuthHandlers) APIMenu(c *gin.Context) {
	principal := menu.Principal{Role: c.GetString(middleware.ContextRole), Authenticated: true}
	renderOK(c, menu.BuildMenuTree(h.routes, principal))
}
