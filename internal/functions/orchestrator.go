package functions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/zgsm-ai/chat-mcp-gateway/internal/client"
	"github.com/zgsm-ai/chat-mcp-gateway/internal/logger"
	"github.com/zgsm-ai/chat-mcp-gateway/internal/stream"
	"github.com/zgsm-ai/chat-mcp-gateway/internal/types"
)

var (
	// ErrArgumentParse marks a tool call whose arguments are not a JSON object
	ErrArgumentParse = errors.New("argument parse error")
	// ErrToolNotAdvertised marks a call to a tool outside the advertised set
	ErrToolNotAdvertised = errors.New("tool not advertised")
)

// OutcomeFunc receives each outcome as soon as its call finishes. Returning an
// error stops the batch.
type OutcomeFunc func(types.ToolCallOutcome) error

// Orchestrator executes the tool calls of one round against the provider
type Orchestrator struct {
	provider  client.ToolProviderInterface
	tools     ToolSet
	status    client.RedisInterface
	statusTTL time.Duration
}

// NewOrchestrator creates an orchestrator. status may be nil, in which case
// tool status is not recorded.
func NewOrchestrator(provider client.ToolProviderInterface, tools ToolSet, status client.RedisInterface, statusTTL time.Duration) *Orchestrator {
	return &Orchestrator{
		provider:  provider,
		tools:     tools,
		status:    status,
		statusTTL: statusTTL,
	}
}

// Execute runs requests one at a time in the given order. Each outcome is
// appended to transcript as a tool message and passed to onOutcome before the
// next call starts. A failing call is recorded as a failure outcome and the
// batch goes on; only a done ctx or an onOutcome error stops it, and both are
// checked between calls.
func (o *Orchestrator) Execute(ctx context.Context, requestId string, requests []stream.ToolCallRequest,
	transcript *types.Transcript, onOutcome OutcomeFunc) ([]types.ToolCallOutcome, error) {
	outcomes := make([]types.ToolCallOutcome, 0, len(requests))

	for _, req := range requests {
		if err := ctx.Err(); err != nil {
			logger.Info("tool batch stopped before call",
				zap.String("requestId", requestId),
				zap.String("tool", req.Name),
				zap.Error(err))
			return outcomes, err
		}

		o.recordStatus(ctx, requestId, req.Name, types.ToolStatusRunning)
		start := time.Now()
		outcome := o.invoke(ctx, req)
		o.recordStatus(ctx, requestId, req.Name, outcome.Status)

		logger.Info("tool call finished",
			zap.String("requestId", requestId),
			zap.String("tool", req.Name),
			zap.String("id", req.ID),
			zap.String("status", string(outcome.Status)),
			zap.Duration("latency", time.Since(start)))

		outcomes = append(outcomes, outcome)
		transcript.Append(toolMessage(outcome))

		if onOutcome != nil {
			if err := onOutcome(outcome); err != nil {
				return outcomes, err
			}
		}
	}
	return outcomes, nil
}

// Invoke runs one tool call outside a round, e.g. a direct call from a client.
func (o *Orchestrator) Invoke(ctx context.Context, name string, args map[string]any) (*types.ToolResult, error) {
	if args == nil {
		args = map[string]any{}
	}
	return o.provider.CallTool(ctx, name, args)
}

func (o *Orchestrator) invoke(ctx context.Context, req stream.ToolCallRequest) types.ToolCallOutcome {
	args, err := ParseArguments(req.ArgumentsText)
	if err != nil {
		logger.Warn("tool arguments are not valid JSON, skipping call",
			zap.String("tool", req.Name),
			zap.String("arguments", req.ArgumentsText),
			zap.Error(err))
		return failure(req, req.ArgumentsText, types.ToolStatusFailed, err)
	}

	if o.tools != nil && !o.tools.Has(req.Name) {
		logger.Warn("tool is not advertised, skipping call", zap.String("tool", req.Name))
		return failure(req, args, types.ToolStatusSkipped, fmt.Errorf("%w: %s", ErrToolNotAdvertised, req.Name))
	}

	result, err := o.provider.CallTool(ctx, req.Name, args)
	if err != nil {
		logger.Error("tool call failed", zap.String("tool", req.Name), zap.Error(err))
		return failure(req, args, types.ToolStatusFailed, fmt.Errorf("tool %s failed: %w", req.Name, err))
	}

	text := FormatResult(result)
	if result.IsError {
		return failure(req, args, types.ToolStatusFailed, fmt.Errorf("tool %s returned an error: %s", req.Name, text))
	}

	return types.ToolCallOutcome{
		ToolCallID: req.ID,
		Name:       req.Name,
		Args:       args,
		Status:     types.ToolStatusSuccess,
		Result:     text,
	}
}

func failure(req stream.ToolCallRequest, args any, status types.ToolStatus, err error) types.ToolCallOutcome {
	return types.ToolCallOutcome{
		ToolCallID: req.ID,
		Name:       req.Name,
		Args:       args,
		Status:     status,
		Error:      err.Error(),
	}
}

func (o *Orchestrator) recordStatus(ctx context.Context, requestId, tool string, status types.ToolStatus) {
	if o.status == nil || requestId == "" {
		return
	}
	if err := o.status.SetHashField(ctx, requestId, tool, string(status), o.statusTTL); err != nil {
		logger.Warn("failed to record tool status",
			zap.String("requestId", requestId),
			zap.String("tool", tool),
			zap.Error(err))
	}
}
