package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Druv08/smart-scheduler/internal/service"
)

// MetricsHandler exposes the Prometheus scrape endpoint.
type MetricsHandler struct {
	service *service.MetricsService
}

// NewMetricsHandler constructs a metrics handler.
func NewMetricsHandler(svc *service.MetricsService) *MetricsHandler {
	return &MetricsHandler{service: svc}
}

// Metrics serves the Prometheus exposition endpoint.
func (h *MetricsHandler) Metrics(c *gin.Context) {
	gin.WrapH(h.service.Handler())(c)
}
