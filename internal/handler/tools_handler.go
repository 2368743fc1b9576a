package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/zgsm-ai/chat-mcp-gateway/internal/bootstrap"
	"github.com/zgsm-ai/chat-mcp-gateway/internal/functions"
	"github.com/zgsm-ai/chat-mcp-gateway/internal/logger"
	"github.com/zgsm-ai/chat-mcp-gateway/internal/types"
)

// ToolsHandler lists the advertised tool set
func ToolsHandler(svcCtx *bootstrap.ServiceContext) gin.HandlerFunc {
	return func(c *gin.Context) {
		tools := svcCtx.ToolManager.Functions(c.Request.Context())
		if tools == nil {
			tools = []types.Function{}
		}
		c.JSON(http.StatusOK, types.ToolsResponse{Tools: tools})
	}
}

// CallToolHandler invokes one tool directly, outside a chat round
func CallToolHandler(svcCtx *bootstrap.ServiceContext) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req types.CallToolRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			sendErrorResponse(c, http.StatusBadRequest, err)
			return
		}
		if strings.TrimSpace(req.Name) == "" {
			sendErrorResponse(c, http.StatusBadRequest, errors.New("tool name cannot be empty"))
			return
		}

		result, err := svcCtx.Orchestrator.Invoke(c.Request.Context(), req.Name, req.Args)
		if err != nil {
			logger.Error("direct tool call failed",
				zap.String("requestId", c.GetString(requestIdKey)),
				zap.String("tool", req.Name),
				zap.Error(err))
			sendErrorResponse(c, http.StatusInternalServerError, err)
			return
		}

		c.JSON(http.StatusOK, types.CallToolResponse{
			Result: functions.FormatResult(result),
			Raw:    result,
		})
	}
}
