package handlers

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"easynetes/internal/middleware"
	"easynetes/internal/models"
	"easynetes/internal/utils"
)

// HostRepository is the CMDB storage used by the host API.
type HostRepository interface {
	List(ctx context.Context, q models.HostQuery) ([]*models.HostRecord, int64, error)
	Get(ctx context.Context, id int64) (*models.HostRecord, error)
	Create(ctx context.Context, h *models.HostRecord) (*models.HostRecord, error)
	Update(ctx context.Context, id int64, h *models.HostRecord) (*models.HostRecord, error)
	Delete(ctx context.Context, id int64) (*models.HostRecord, error)
	Count(ctx context.Context) (int64, error)
}

// HostEventPublisher receives CMDB change notifications.
type HostEventPublisher interface {
	PublishHostEvent(eventType string, host *models.HostRecord)
}

type HostHandlers struct {
	hosts   HostRepository
	events  HostEventPublisher
	metrics *middleware.Metrics
	logger  *utils.Logger
}

func NewHostHandlers(hosts HostRepository, events HostEventPublisher, metrics *middleware.Metrics, logger *utils.Logger) *HostHandlers {
	return &HostHandlers{hosts: hosts, events: events, metrics: metrics, logger: logger}
}

func (h *HostHandlers) publish(ctx context.Context, eventType string, host *models.HostRecord) {
	if h.events != nil {
		h.events.PublishHostEvent(eventType, host)
	}
	if h.metrics != nil {
		if n, err := h.hosts.Count(ctx); err == nil {
			h.metrics.SetHostCount(n)
		}
	}
}

// List serves GET /api/v1/host and its /api/cmdb alias.
func (h *HostHandlers) List(c *gin.Context) {
	q := models.ParseHostQuery(c.Request.URL.Query())
	hosts, total, err := h.hosts.List(c.Request.Context(), q)
	if err != nil {
		renderError(c, err)
		return
	}
	renderList(c, total, hosts)
}

func (h *HostHandlers) Get(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	host, err := h.hosts.Get(c.Request.Context(), id)
	if err != nil {
		renderError(c, err)
		return
	}
	renderOK(c, host)
}

func sanitizeHost(in *models.HostRecord) {
	in.HostID = middleware.SanitizeString(in.HostID)
	in.HostName = middleware.SanitizeString(in.HostName)
	in.HostIP = middleware.SanitizeString(in.HostIP)
	in.UserName = middleware.SanitizeString(in.UserName)
	in.HostType = middleware.SanitizeString(in.HostType)
	in.Comment = middleware.SanitizeString(in.Comment)
}

func (h *HostHandlers) Create(c *gin.Context) {
	var in models.HostRecord
	if !bindJSON(c, &in) {
		return
	}
	sanitizeHost(&in)
	host, err := h.hosts.Create(c.Request.Context(), &in)
	if err != nil {
		renderError(c, err)
		return
	}
	h.logger.Write(fmt.Sprintf("Host %s (%s) created by '%s'", host.HostName, host.HostIP, c.GetString(middleware.ContextUsername)))
	h.publish(c.Request.Context(), models.HostEventCreated, host)
	ToastSuccess(c, "CMDB", fmt.Sprintf("Host %s created.", host.HostName))
	renderOK(c, host)
}

func (h *HostHandlers) Update(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var in models.HostRecord
	if !bindJSON(c, &in) {
		return
	}
	sanitizeHost(&in)
	host, err := h.hosts.Update(c.Request.Context(), id, &in)
	if err != nil {
		renderError(c, err)
		return
	}
	h.logger.Write(fmt.Sprintf("Host %d updated by '%s'", id, c.GetString(middleware.ContextUsername)))
	h.publish(c.Request.Context(), models.HostEventUpdated, host)
	ToastInfo(c, "CMDB", fmt.Sprintf("Host %s updated.", host.HostName))
	renderOK(c, host)
}

func (h *HostHandlers) Delete(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	host, err := h.hosts.Delete(c.Request.Context(), id)
	if err != nil {
		renderError(c, err)
		return
	}
	h.logger.Write(fmt.Sprintf("Host %d (%s) deleted by '%s'", id, host.HostName, c.GetString(middleware.ContextUsername)))
	h.publish(c.Request.Context(), models.HostEventDeleted, host)
	ToastWarn(c, "CMDB", fmt.Sprintf("Host %s deleted.", host.HostName))
	renderOK(c, host)
}
