package logic

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/zgsm-ai/chat-mcp-gateway/internal/types"
)

// NDJSONSink writes each event as one JSON line and flushes it immediately
type NDJSONSink struct {
	ctx     context.Context
	writer  http.ResponseWriter
	flusher http.Flusher
}

// NewNDJSONSink wraps a response writer. ctx is the client request context;
// once it is done every write fails.
func NewNDJSONSink(ctx context.Context, w http.ResponseWriter) *NDJSONSink {
	flusher, _ := w.(http.Flusher)
	return &NDJSONSink{ctx: ctx, writer: w, flusher: flusher}
}

func (s *NDJSONSink) Write(event types.GatewayEvent) error {
	if err := s.ctx.Err(); err != nil {
		return err
	}

	line, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event.Type, err)
	}
	line = append(line, '\n')
	if _, err := s.writer.Write(line); err != nil {
		return err
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
	return nil
}

// Close flushes what is left; the response itself ends when the handler returns
func (s *NDJSONSink) Close() error {
	if s.flusher != nil && s.ctx.Err() == nil {
		s.flusher.Flush()
	}
	return nil
}

// CollectorSink aggregates a round into a ChatResponse for the non-streaming
// endpoint. Text seen before final_response_start belongs to the first call
// and is dropped once the follow-up starts.
type CollectorSink struct {
	mu        sync.Mutex
	events    []types.GatewayEvent
	text      strings.Builder
	toolCalls []types.ToolCallOutcome
	errMsg    string
	closed    bool
}

func NewCollectorSink() *CollectorSink {
	return &CollectorSink{toolCalls: make([]types.ToolCallOutcome, 0)}
}

func (s *CollectorSink) Write(event types.GatewayEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, event)
	switch event.Type {
	case types.EventTextDelta:
		s.text.WriteString(event.Content)
	case types.EventFinalResponseStart:
		s.text.Reset()
	case types.EventToolCallResult:
		if outcome, ok := event.Data.(types.ToolCallOutcome); ok {
			s.toolCalls = append(s.toolCalls, outcome)
		}
	case types.EventError:
		s.errMsg = event.Message
	}
	return nil
}

func (s *CollectorSink) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// Response returns the aggregated answer and the error message of an error
// event, empty when the round completed
func (s *CollectorSink) Response() (*types.ChatResponse, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &types.ChatResponse{
		Response:  s.text.String(),
		ToolCalls: append([]types.ToolCallOutcome(nil), s.toolCalls...),
	}, s.errMsg
}

// Events returns a copy of every event written so far
func (s *CollectorSink) Events() []types.GatewayEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.GatewayEvent(nil), s.events...)
}

// Closed reports whether the emitter closed the sink
func (s *CollectorSink) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
