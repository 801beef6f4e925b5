package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests can build several routers.
type Metrics struct {
	registry *prometheus.Registry

	RequestCounter  *prometheus.CounterVec
	ResponseTime    *prometheus.HistogramVec
	HostsGauge      prometheus.Gauge
	KubeCallCounter *prometheus.CounterVec
	WSClients       prometheus.GaugeFunc
}

func NewMetrics(wsClients func() float64) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RequestCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "easynetes_http_requests_total",
			Help: "HTTP requests by route and status.",
		}, []string{"method", "path", "status"}),
		ResponseTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "easynetes_http_response_time_seconds",
			Help:    "HTTP response latency in seconds.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"method", "path", "status"}),
		HostsGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "easynetes_cmdb_hosts",
			Help: "Hosts recorded in the CMDB.",
		}),
		KubeCallCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "easynetes_kube_calls_total",
			Help: "Kubernetes API calls by cluster, operation and result.",
		}, []string{"cluster", "op", "result"}),
	}
	if wsClients == nil {
		wsClients = func() float64 { return 0 }
	}
	m.WSClients = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "easynetes_websocket_clients",
		Help: "Connected websocket clients.",
	}, wsClients)

	m.registry.MustRegister(
		m.RequestCounter,
		m.ResponseTime,
		m.HostsGauge,
		m.KubeCallCounter,
		m.WSClients,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Middleware records request counts and latency per matched route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		m.RequestCounter.WithLabelValues(c.Request.Method, path, status).Inc()
		m.ResponseTime.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
	}
}

// RecordKubeCall counts one call against a cluster.
func (m *Metrics) RecordKubeCall(cluster, op string, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	m.KubeCallCounter.WithLabelValues(cluster, op, result).Inc()
}

func (m *Metrics) SetHostCount(n int64) {
	if m == nil {
		return
	}
	m.HostsGauge.Set(float64(n))
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
