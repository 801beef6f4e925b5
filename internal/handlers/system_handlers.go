package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"easynetes/internal/manager"
	"easynetes/internal/models"
	"easynetes/internal/utils"
	"easynetes/internal/version"
)

const (
	defaultLogTail = 64 << 10
	maxLogTail     = 1 << 20
)

// SystemHandlers serves health, build and host telemetry endpoints.
type SystemHandlers struct {
	telemetry *manager.Telemetry
	ping      func(ctx context.Context) error
	logger    *utils.Logger
	startedAt time.Time
}

// NewSystemHandlers wires the handlers. ping may be nil when no database is
// attached.
func NewSystemHandlers(telemetry *manager.Telemetry, ping func(ctx context.Context) error, logger *utils.Logger, startedAt time.Time) *SystemHandlers {
	return &SystemHandlers{telemetry: telemetry, ping: ping, logger: logger, startedAt: startedAt}
}

// Healthz is a plain probe for load balancers; it is not wrapped in the envelope.
func (h *SystemHandlers) Healthz(c *gin.Context) {
	if h.ping != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.ping(ctx); err != nil {
			if h.logger != nil {
				h.logger.Write(fmt.Sprintf("Health check failed: %v", err))
			}
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *SystemHandlers) Version(c *gin.Context) {
	renderOK(c, version.Get())
}

type telemetryResponse struct {
	*models.SystemTelemetry
	ConsoleUptimeSeconds int64 `json:"console_uptime_seconds"`
}

func (h *SystemHandlers) Telemetry(c *gin.Context) {
	if h.telemetry == nil {
		renderStatus(c, models.SCodeUnavailable, nil, "telemetry disabled")
		return
	}
	snap := h.telemetry.Snapshot(c.Request.Context())
	renderOK(c, telemetryResponse{
		SystemTelemetry:      snap,
		ConsoleUptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
	})
}

// Logs returns the tail of the console log; ?bytes= bounds the size.
func (h *SystemHandlers) Logs(c *gin.Context) {
	n := int64(defaultLogTail)
	if raw := c.Query("bytes"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v <= 0 {
			renderStatus(c, models.SCodeBadRequest, nil, "invalid bytes")
			return
		}
		n = min(v, maxLogTail)
	}
	tail, err := h.logger.Tail(n)
	if err != nil {
		renderError(c, err)
		return
	}
	renderOK(c, gin.H{"log": tail})
}
