package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/zgsm-ai/chat-mcp-gateway/internal/bootstrap"
	"github.com/zgsm-ai/chat-mcp-gateway/internal/logger"
	"github.com/zgsm-ai/chat-mcp-gateway/internal/logic"
	"github.com/zgsm-ai/chat-mcp-gateway/internal/types"
)

var errEmptyMessage = errors.New("message cannot be empty")

// bindChatRequest parses and validates a chat request, answering 400 itself
func bindChatRequest(c *gin.Context) (*types.ChatRequest, bool) {
	var req types.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendErrorResponse(c, http.StatusBadRequest, err)
		return nil, false
	}
	if strings.TrimSpace(req.Message) == "" {
		sendErrorResponse(c, http.StatusBadRequest, errEmptyMessage)
		return nil, false
	}
	return &req, true
}

// ChatSSEHandler streams one chat round as ndjson events
func ChatSSEHandler(svcCtx *bootstrap.ServiceContext) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, ok := bindChatRequest(c)
		if !ok {
			return
		}
		meta := getRequestMeta(c)

		setNDJSONResponseHeaders(c)
		c.Status(http.StatusOK)
		if flusher, ok := c.Writer.(http.Flusher); ok {
			flusher.Flush()
		}

		sink := logic.NewNDJSONSink(c.Request.Context(), c.Writer)
		l := logic.NewChatLogic(c.Request.Context(), svcCtx, meta, sink)
		// The outcome, including any error, has already been sent as events
		if err := l.Run(req); err != nil {
			logger.Warn("chat stream ended with error",
				zap.String("requestId", meta.RequestID),
				zap.Error(err))
		}
	}
}

// ChatHandler runs one chat round and answers with the aggregated result
func ChatHandler(svcCtx *bootstrap.ServiceContext) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, ok := bindChatRequest(c)
		if !ok {
			return
		}
		meta := getRequestMeta(c)

		sink := logic.NewCollectorSink()
		l := logic.NewChatLogic(c.Request.Context(), svcCtx, meta, sink)
		err := l.Run(req)
		resp, errMsg := sink.Response()
		if err != nil {
			if errMsg == "" {
				errMsg = err.Error()
			}
			sendErrorResponse(c, http.StatusInternalServerError, errors.New(errMsg))
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// sendErrorResponse sends a structured error response
func sendErrorResponse(c *gin.Context, statusCode int, err error) {
	c.AbortWithStatusJSON(statusCode, gin.H{"error": err.Error()})
}

// ChatStatusHandler handles tool status query requests
func ChatStatusHandler(svcCtx *bootstrap.ServiceContext) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Validate requestId parameter
		requestId := c.Param("requestId")
		if requestId == "" {
			c.JSON(http.StatusBadRequest, types.ToolStatusResponse{
				Code:    http.StatusBadRequest,
				Data:    types.ToolStatusData{},
				Message: "requestId is required",
			})
			return
		}

		if svcCtx.RedisClient == nil {
			c.JSON(http.StatusNotFound, types.ToolStatusResponse{
				Code:    http.StatusNotFound,
				Data:    types.ToolStatusData{},
				Message: "tool status is not recorded",
			})
			return
		}

		// Get tool status from Redis
		toolStatusData, err := svcCtx.RedisClient.GetHash(c.Request.Context(), requestId)
		if err != nil {
			logger.Error("Error fetching tool status from Redis",
				zap.String("requestId", requestId),
				zap.Error(err))
			c.JSON(http.StatusNotFound, types.ToolStatusResponse{
				Code:    http.StatusNotFound,
				Data:    types.ToolStatusData{},
				Message: "request-id not found",
			})
			return
		}

		// Build tools map from Redis data
		tools := make(map[string]types.ToolStatusDetail, len(toolStatusData))
		for toolName, status := range toolStatusData {
			tools[toolName] = types.ToolStatusDetail{Status: status}
		}

		logger.Debug("Tool status fetched from Redis", zap.Any("tools", tools))

		c.JSON(http.StatusOK, types.ToolStatusResponse{
			Code:    http.StatusOK,
			Data:    types.ToolStatusData{Tools: tools},
			Message: "success",
		})
	}
}
