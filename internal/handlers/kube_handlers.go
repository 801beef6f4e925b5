package handlers

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"easynetes/internal/kube"
	"easynetes/internal/middleware"
	"easynetes/internal/models"
)

type KubeHandlers struct {
	registry *kube.Registry
	metrics  *middleware.Metrics
}

func NewKubeHandlers(registry *kube.Registry, metrics *middleware.Metrics) *KubeHandlers {
	return &KubeHandlers{registry: registry, metrics: metrics}
}

func (h *KubeHandlers) Clusters(c *gin.Context) {
	list := h.registry.List()
	renderList(c, int64(len(list)), list)
}

func (h *KubeHandlers) cluster(c *gin.Context) (kube.Cluster, context.Context, context.CancelFunc, bool) {
	cl, err := h.registry.Get(c.Param("cluster"))
	if err != nil {
		renderError(c, err)
		return nil, nil, nil, false
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.registry.Timeout())
	return cl, ctx, cancel, true
}

// upstreamError reports a failed cluster call as unavailable; the message
// names the cluster so the console can show which one failed.
func upstreamError(c *gin.Context, err error) {
	_ = c.Error(err)
	renderStatus(c, models.SCodeUnavailable, nil, fmt.Sprintf("kubernetes: %v", err))
}

func (h *KubeHandlers) Namespaces(c *gin.Context) {
	cl, ctx, cancel, ok := h.cluster(c)
	if !ok {
		return
	}
	defer cancel()
	list, err := cl.ListNamespaces(ctx)
	h.metrics.RecordKubeCall(cl.Name(), "namespaces", err)
	if err != nil {
		upstreamError(c, err)
		return
	}
	renderList(c, int64(len(list)), list)
}

// Workloads lists workloads in one namespace; "_all" spans every namespace.
func (h *KubeHandlers) Workloads(c *gin.Context) {
	cl, ctx, cancel, ok := h.cluster(c)
	if !ok {
		return
	}
	defer cancel()
	ns := c.Param("ns")
	if ns == "_all" {
		ns = ""
	}
	list, err := cl.ListWorkloads(ctx, ns)
	h.metrics.RecordKubeCall(cl.Name(), "workloads", err)
	if err != nil {
		upstreamError(c, err)
		return
	}
	renderList(c, int64(len(list)), list)
}
