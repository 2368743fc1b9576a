package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/zgsm-ai/chat-mcp-gateway/internal/bootstrap"
)

func RegisterHandlers(router *gin.Engine, serverCtx *bootstrap.ServiceContext) {
	apiGroup := router.Group("/api", RequestIDMiddleware())
	{
		apiGroup.POST("/chat_sse", ChatSSEHandler(serverCtx))
		apiGroup.POST("/chat", ChatHandler(serverCtx))
		apiGroup.GET("/chat/requests/:requestId/status", ChatStatusHandler(serverCtx))
		apiGroup.GET("/tools", ToolsHandler(serverCtx))
		apiGroup.POST("/call-tool", CallToolHandler(serverCtx))
	}
	router.GET("/metrics", MetricsHandler(serverCtx))
}
