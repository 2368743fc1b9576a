package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/zgsm-ai/chat-mcp-gateway/internal/types"
)

const requestIdKey = "requestId"

// RequestIDMiddleware takes the request id from the x-request-id header, or
// generates one, and echoes it on the response
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestId := c.GetHeader(types.HeaderRequestId)
		if requestId == "" {
			requestId = uuid.NewString()
		}
		c.Set(requestIdKey, requestId)
		c.Header(types.HeaderRequestId, requestId)
		c.Next()
	}
}
