package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zgsm-ai/chat-mcp-gateway/internal/bootstrap"
)

// MetricsHandler handles Prometheus metrics endpoint
func MetricsHandler(serverCtx *bootstrap.ServiceContext) gin.HandlerFunc {
	if serverCtx.MetricsService == nil {
		return gin.WrapH(promhttp.Handler())
	}
	handler := promhttp.HandlerFor(serverCtx.MetricsService.GetRegistry(), promhttp.HandlerOpts{})
	return gin.WrapH(handler)
}
