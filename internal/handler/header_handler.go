package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/zgsm-ai/chat-mcp-gateway/internal/logic"
	"github.com/zgsm-ai/chat-mcp-gateway/internal/types"
)

// getRequestMeta extracts the request identity from the context and headers
func getRequestMeta(c *gin.Context) logic.RequestMeta {
	requestId := c.GetString(requestIdKey)
	if requestId == "" {
		requestId = c.GetHeader(types.HeaderRequestId)
	}
	if requestId == "" {
		requestId = uuid.NewString()
	}

	caller := c.GetHeader(types.HeaderCaller)
	if caller == "" {
		caller = "chat"
	}

	return logic.RequestMeta{
		RequestID: requestId,
		ClientID:  c.GetHeader(types.HeaderClientId),
		Caller:    caller,
		Endpoint:  c.FullPath(),
	}
}

// setNDJSONResponseHeaders sets the headers of the streaming event response
func setNDJSONResponseHeaders(c *gin.Context) {
	c.Header(types.HeaderContentType, types.ContentTypeNDJSON+"; charset=utf-8")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("Transfer-Encoding", "chunked")
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Headers", "Cache-Control")
	c.Header("X-Accel-Buffering", "no")
}
