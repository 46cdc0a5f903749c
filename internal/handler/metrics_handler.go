package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/village-api/internal/service"
)

type pendingSaves interface {
	Pending() int
}

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics   *service.MetricsService
	persister pendingSaves
}

// NewMetricsHandler constructs a metrics handler. persister may be nil.
func NewMetricsHandler(metrics *service.MetricsService, persister pendingSaves) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, persister: persister}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health responds with a generic OK payload for liveness checks.
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready reports aggregated metrics and the number of unsaved classes.
func (h *MetricsHandler) Ready(c *gin.Context) {
	pending := 0
	if h.persister != nil {
		pending = h.persister.Pending()
	}
	c.JSON(http.StatusOK, gin.H{
		"status":       "ready",
		"pendingSaves": pending,
		"metrics":      h.metrics.Snapshot(),
	})
}
