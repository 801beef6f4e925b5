package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"easynetes/internal/db"
	"easynetes/internal/middleware"
	"easynetes/internal/models"
	"easynetes/internal/utils"
)

// SettingsRepository stores the CI/CD integration settings.
type SettingsRepository interface {
	Get(ctx context.Context, kind string) (models.IntegrationSettings, error)
	Put(ctx context.Context, in models.IntegrationSettings) (models.IntegrationSettings, error)
}

type SettingsHandlers struct {
	settings SettingsRepository
	logger   *utils.Logger
}

func NewSettingsHandlers(settings SettingsRepository, logger *utils.Logger) *SettingsHandlers {
	return &SettingsHandlers{settings: settings, logger: logger}
}

func kindParam(c *gin.Context) (string, bool) {
	kind := strings.ToLower(strings.TrimSpace(c.Param("kind")))
	if !models.IsIntegrationKind(kind) {
		renderError(c, fmt.Errorf("%w: %q", db.ErrInvalidKind, kind))
		return "", false
	}
	return kind, true
}

// Get returns the integration with its token masked.
func (h *SettingsHandlers) Get(c *gin.Context) {
	kind, ok := kindParam(c)
	if !ok {
		return
	}
	s, err := h.settings.Get(c.Request.Context(), kind)
	if err != nil {
		renderError(c, err)
		return
	}
	renderOK(c, s.Masked())
}

// Put replaces the integration. Sending the masked token back keeps the
// stored one.
func (h *SettingsHandlers) Put(c *gin.Context) {
	kind, ok := kindParam(c)
	if !ok {
		return
	}
	var in models.IntegrationSettings
	if !bindJSON(c, &in) {
		return
	}
	in.Kind = kind
	in.URL = middleware.SanitizeString(in.URL)
	in.Username = middleware.SanitizeString(in.Username)
	in.DefaultBranch = middleware.SanitizeString(in.DefaultBranch)
	saved, err := h.settings.Put(c.Request.Context(), in)
	if err != nil {
		renderError(c, err)
		return
	}
	h.logger.Write(fmt.Sprintf("Integration %s updated by '%s'", kind, c.GetString(middleware.ContextUsername)))
	ToastSuccess(c, "Settings", fmt.Sprintf("%s settings saved.", kind))
	renderOK(c, saved.Masked())
}
