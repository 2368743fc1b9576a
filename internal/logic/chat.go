package logic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/zgsm-ai/chat-mcp-gateway/internal/bootstrap"
	"github.com/zgsm-ai/chat-mcp-gateway/internal/logger"
	"github.com/zgsm-ai/chat-mcp-gateway/internal/model"
	"github.com/zgsm-ai/chat-mcp-gateway/internal/stream"
	"github.com/zgsm-ai/chat-mcp-gateway/internal/timeout"
	"github.com/zgsm-ai/chat-mcp-gateway/internal/types"
	"github.com/zgsm-ai/chat-mcp-gateway/internal/utils"
)

// RoundState is the phase of one chat round
type RoundState string

const (
	StateIdle           RoundState = "idle"
	StateFirstCall      RoundState = "first_call"
	StateExecutingTools RoundState = "executing_tools"
	StateFollowUpCall   RoundState = "follow_up_call"
	StateDone           RoundState = "done"
)

// RequestMeta identifies the client request a round belongs to
type RequestMeta struct {
	RequestID string
	ClientID  string
	Caller    string
	Endpoint  string
}

// ChatLogic runs one user turn: a first completion call with tools, at most
// one batch of tool calls and, when tools ran, a follow-up call without tools.
type ChatLogic struct {
	ctx     context.Context
	svcCtx  *bootstrap.ServiceContext
	meta    RequestMeta
	emitter *Emitter
	chatLog *model.ChatLog
	state   RoundState
}

func NewChatLogic(ctx context.Context, svcCtx *bootstrap.ServiceContext, meta RequestMeta, sink EventSink) *ChatLogic {
	return &ChatLogic{
		ctx:     ctx,
		svcCtx:  svcCtx,
		meta:    meta,
		emitter: NewEmitter(meta.RequestID, sink),
		state:   StateIdle,
	}
}

// State returns the current round phase
func (l *ChatLogic) State() RoundState {
	return l.state
}

// ChatLog returns the log record of the last Run
func (l *ChatLogic) ChatLog() *model.ChatLog {
	return l.chatLog
}

// completionCall is the per-call decoding state
type completionCall struct {
	decoder     *stream.Decoder
	accumulator *stream.Accumulator
	acceptTools bool

	text             strings.Builder
	usage            *types.Usage
	ignoredFragments int
	calls            []stream.ToolCallRequest
}

// Run drives the round to completion. The event stream always ends with
// exactly one stream_end, preceded by one error event when the round failed;
// the returned error is that fatal cause.
func (l *ChatLogic) Run(req *types.ChatRequest) error {
	start := time.Now()
	l.chatLog = l.newChatLog(req, start)
	defer l.logCompletion()

	ctx, cancel := timeout.WithRoundDeadline(l.ctx, l.svcCtx.Config.LLM.RoundTimeout())
	defer cancel()

	logger.Info("starting chat round",
		zap.String("requestId", l.meta.RequestID),
		zap.Int("historyLen", len(req.History)),
	)

	err := l.run(ctx, req)
	return l.finish(ctx, err)
}

func (l *ChatLogic) run(ctx context.Context, req *types.ChatRequest) error {
	chat := l.svcCtx.Config.Chat
	if err := l.emitter.Start(); err != nil {
		return err
	}
	if !chat.DisableThinking {
		if err := l.emitter.Emit(types.NewThinkingEvent(chat.ThinkingText)); err != nil {
			return err
		}
	}

	transcript := types.NewTranscript(chat.SystemPrompt, req.History, req.Message)
	l.chatLog.PromptTokens = l.svcCtx.TokenCounter.CountMessagesTokens(transcript.Messages())

	var tools []types.Function
	if l.svcCtx.ToolManager != nil {
		tools = l.svcCtx.ToolManager.Functions(ctx)
	}

	l.setState(StateFirstCall)
	callStart := time.Now()
	first, err := l.completion(ctx, transcript, tools, true)
	l.chatLog.FirstCallLatency = time.Since(callStart).Milliseconds()
	if err != nil {
		return err
	}
	l.addUsage(transcript.Messages(), first)

	if len(first.calls) == 0 {
		l.chatLog.ResponseContent = first.text.String()
		l.setState(StateDone)
		return nil
	}

	l.setState(StateExecutingTools)
	transcript.Append(assistantMessage(first.text.String(), first.calls))
	if err := l.executeTools(ctx, first.calls, transcript); err != nil {
		return err
	}

	l.setState(StateFollowUpCall)
	if err := l.emitter.Emit(types.NewFinalResponseStartEvent(chat.FinalResponseText)); err != nil {
		return err
	}
	callStart = time.Now()
	final, err := l.completion(ctx, transcript, nil, false)
	l.chatLog.FollowUpLatency = time.Since(callStart).Milliseconds()
	if err != nil {
		return err
	}
	l.addUsage(transcript.Messages(), final)
	l.chatLog.ResponseContent = final.text.String()

	l.setState(StateDone)
	return nil
}

// completion issues one streaming call and pushes every decoded record to the
// emitter from inside the read loop, so a slow client slows the reads down.
func (l *ChatLogic) completion(ctx context.Context, transcript *types.Transcript, tools []types.Function, acceptTools bool) (*completionCall, error) {
	call := &completionCall{
		decoder:     stream.NewDecoder(l.onMalformedDelta),
		accumulator: stream.NewAccumulator(),
		acceptTools: acceptTools,
	}
	stats := utils.NewChunkStats(0)
	l.chatLog.Rounds++

	req := types.CompletionRequest{
		Model:     l.svcCtx.LLMClient.GetModelName(),
		Stream:    true,
		Messages:  transcript.Messages(),
		Tools:     tools,
		MaxTokens: l.svcCtx.Config.LLM.MaxTokens,
	}

	err := l.svcCtx.LLMClient.ChatCompletionStream(ctx, req, func(chunk []byte) error {
		stats.OnChunk(len(chunk))
		for _, rec := range call.decoder.Feed(chunk) {
			if err := l.handleRecord(call, rec); err != nil {
				return err
			}
		}
		return nil
	})

	dropped := call.decoder.Finish()
	lines, records, malformed := call.decoder.Stats()
	fields := []zap.Field{
		zap.String("requestId", l.meta.RequestID),
		zap.String("state", string(l.state)),
		zap.Int("lines", lines),
		zap.Int("records", records),
		zap.Int("malformed", malformed),
	}

	if err != nil {
		logger.Error("completion call failed", append(append(fields, stats.Stop().Fields()...), zap.Error(err))...)
		return call, roundError(ctx, err)
	}
	logger.Info("completion call finished", append(fields, stats.End().Fields()...)...)

	if dropped > 0 {
		logger.Warn("discarded unterminated trailing line",
			zap.String("requestId", l.meta.RequestID),
			zap.Int("bytes", dropped))
	}
	if !call.decoder.SawDone() {
		logger.Warn("completion stream ended without [DONE]",
			zap.String("requestId", l.meta.RequestID))
	}
	if call.ignoredFragments > 0 {
		logger.Warn("tool call fragments ignored in follow-up call",
			zap.String("requestId", l.meta.RequestID),
			zap.Int("fragments", call.ignoredFragments))
	}

	if acceptTools {
		call.calls = call.accumulator.Finalize()
	}
	return call, nil
}

func (l *ChatLogic) handleRecord(call *completionCall, rec stream.DeltaRecord) error {
	if rec.Usage != nil {
		call.usage = rec.Usage
	}

	if rec.ReasoningText != "" {
		if err := l.emitter.Emit(types.NewTextDeltaEvent(rec.ReasoningText)); err != nil {
			return err
		}
	}
	if rec.ContentText != "" {
		call.text.WriteString(rec.ContentText)
		if err := l.emitter.Emit(types.NewTextDeltaEvent(rec.ContentText)); err != nil {
			return err
		}
	}

	for _, fragment := range rec.ToolCallFragments {
		if !call.acceptTools {
			call.ignoredFragments++
			continue
		}
		announcement, ok := call.accumulator.Add(fragment)
		if !ok {
			continue
		}
		logger.Info("tool call announced",
			zap.String("requestId", l.meta.RequestID),
			zap.String("tool", announcement.Name),
			zap.String("id", announcement.ID))
		if err := l.emitter.Emit(types.NewToolCallRequestEvent(announcement)); err != nil {
			return err
		}
	}
	return nil
}

func (l *ChatLogic) executeTools(ctx context.Context, calls []stream.ToolCallRequest, transcript *types.Transcript) error {
	inputs := make(map[string]string, len(calls))
	for _, c := range calls {
		inputs[c.ID] = c.ArgumentsText
	}

	mark := time.Now()
	_, err := l.svcCtx.Orchestrator.Execute(ctx, l.meta.RequestID, calls, transcript, func(outcome types.ToolCallOutcome) error {
		now := time.Now()
		l.chatLog.AddToolCall(outcome, inputs[outcome.ToolCallID], now.Sub(mark))
		mark = now
		if !outcome.Succeeded() {
			l.chatLog.AddError(types.ErrToolError, errors.New(outcome.Error))
		}
		return l.emitter.Emit(types.NewToolCallResultEvent(outcome))
	})
	return err
}

// finish sends the terminator and records the outcome
func (l *ChatLogic) finish(ctx context.Context, err error) error {
	switch {
	case err == nil:
		l.chatLog.Outcome = model.OutcomeCompleted
		if emitErr := l.emitter.Finish(nil); emitErr != nil {
			l.chatLog.Outcome = model.OutcomeClientGone
			l.chatLog.AddError(types.ErrClientGone, emitErr)
			return emitErr
		}
		logger.Info("chat round completed",
			zap.String("requestId", l.meta.RequestID),
			zap.Int("rounds", l.chatLog.Rounds),
			zap.Int("events", l.emitter.Count()))
		return nil

	case l.clientGone(err):
		l.chatLog.Outcome = model.OutcomeClientGone
		l.chatLog.AddError(types.ErrClientGone, err)
		_ = l.emitter.Finish(err)
		logger.Info("client went away, round abandoned",
			zap.String("requestId", l.meta.RequestID),
			zap.String("state", string(l.state)),
			zap.Error(err))
		return err

	default:
		l.chatLog.Outcome = model.OutcomeError
		l.chatLog.AddError(errorType(err), err)
		logger.Error("chat round failed",
			zap.String("requestId", l.meta.RequestID),
			zap.String("state", string(l.state)),
			zap.Error(err))
		if emitErr := l.emitter.Finish(err); emitErr != nil {
			logger.Warn("failed to deliver error event",
				zap.String("requestId", l.meta.RequestID),
				zap.Error(emitErr))
		}
		return err
	}
}

func (l *ChatLogic) clientGone(err error) bool {
	if errors.Is(err, ErrClientGone) || l.emitter.Gone() {
		return true
	}
	// The request context is cancelled when the client disconnects
	return l.ctx.Err() != nil
}

func (l *ChatLogic) setState(next RoundState) {
	logger.Debug("round state changed",
		zap.String("requestId", l.meta.RequestID),
		zap.String("from", string(l.state)),
		zap.String("to", string(next)))
	l.state = next
}

func (l *ChatLogic) onMalformedDelta(payload string, err error) {
	l.chatLog.MalformedDeltas++
	logger.Warn("malformed completion delta skipped",
		zap.String("requestId", l.meta.RequestID),
		zap.String("payload", payload),
		zap.Error(err))
	if l.svcCtx.MetricsService != nil {
		l.svcCtx.MetricsService.IncMalformedDelta(l.chatLog.Model)
	}
}

// addUsage adds the call's reported usage, or an estimate when the stream had none
func (l *ChatLogic) addUsage(prompt []types.Message, call *completionCall) {
	usage := call.usage
	if usage == nil {
		estimated := l.svcCtx.TokenCounter.Usage(prompt, call.text.String())
		usage = &estimated
	}
	l.chatLog.Usage.PromptTokens += usage.PromptTokens
	l.chatLog.Usage.CompletionTokens += usage.CompletionTokens
	l.chatLog.Usage.TotalTokens += usage.TotalTokens
}

func (l *ChatLogic) newChatLog(req *types.ChatRequest, start time.Time) *model.ChatLog {
	chatLog := model.NewChatLog(l.meta.RequestID, start)
	chatLog.ClientID = l.meta.ClientID
	chatLog.Caller = l.meta.Caller
	chatLog.Endpoint = l.meta.Endpoint
	chatLog.HistoryLen = len(req.History)
	if l.svcCtx.LLMClient != nil {
		chatLog.Model = l.svcCtx.LLMClient.GetModelName()
	}
	return chatLog
}

func (l *ChatLogic) logCompletion() {
	l.chatLog.TotalLatency = time.Since(l.chatLog.Timestamp).Milliseconds()
	if l.svcCtx.LoggerService != nil {
		l.svcCtx.LoggerService.LogAsync(l.chatLog)
	}
}

// assistantMessage records the first call's answer and tool calls so the
// follow-up call sees which call each tool message answers
func assistantMessage(text string, calls []stream.ToolCallRequest) types.Message {
	toolCalls := make([]types.ToolCallInfo, 0, len(calls))
	for _, c := range calls {
		args := c.ArgumentsText
		if strings.TrimSpace(args) == "" {
			args = "{}"
		}
		toolCalls = append(toolCalls, types.ToolCallInfo{
			ID:   c.ID,
			Type: "function",
			Function: types.ToolCallFunction{
				Name:      c.Name,
				Arguments: args,
			},
		})
	}
	return types.Message{
		Role:      types.RoleAssistant,
		Content:   text,
		ToolCalls: toolCalls,
	}
}

// roundError names the round deadline when it is what cut the call short
func roundError(ctx context.Context, err error) error {
	if cause := context.Cause(ctx); cause != nil && errors.Is(cause, timeout.ErrRoundDeadline) && !errors.Is(err, timeout.ErrRoundDeadline) {
		return fmt.Errorf("%w: %v", timeout.ErrRoundDeadline, err)
	}
	return err
}

func errorType(err error) types.ErrorType {
	var apiErr *types.APIError
	if errors.As(err, &apiErr) {
		return types.ErrServerModel
	}
	return types.ErrServerError
}
