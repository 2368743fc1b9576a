package logic

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zgsm-ai/chat-mcp-gateway/internal/types"
)

func TestEmitter_StartsImplicitlyAndTerminatesOnce(t *testing.T) {
	sink := NewCollectorSink()
	e := NewEmitter("req", sink)

	require.NoError(t, e.Emit(types.NewTextDeltaEvent("hi")))
	require.NoError(t, e.Start())
	require.NoError(t, e.Finish(nil))

	assert.ErrorIs(t, e.Finish(errors.New("late")), ErrStreamTerminated)
	assert.ErrorIs(t, e.Emit(types.NewTextDeltaEvent("late")), ErrStreamTerminated)

	assert.Equal(t, []types.EventType{
		types.EventStreamStart,
		types.EventTextDelta,
		types.EventStreamEnd,
	}, eventTypes(sink.Events()))
	assert.True(t, sink.Closed())
	assert.Equal(t, 3, e.Count())
}

func TestEmitter_TerminalEventViaEmit(t *testing.T) {
	sink := NewCollectorSink()
	e := NewEmitter("req", sink)

	require.NoError(t, e.Emit(types.NewErrorEvent("boom")))
	assert.True(t, e.Terminated())
	assert.Equal(t, []types.EventType{types.EventStreamStart, types.EventError, types.EventStreamEnd}, eventTypes(sink.Events()))
}

func TestEmitter_ErrorIsFollowedByStreamEnd(t *testing.T) {
	sink := NewCollectorSink()
	e := NewEmitter("req", sink)

	require.NoError(t, e.Emit(types.NewTextDeltaEvent("partial")))
	require.NoError(t, e.Finish(errors.New("upstream exploded")))
	assert.ErrorIs(t, e.Finish(nil), ErrStreamTerminated)
	assert.ErrorIs(t, e.Emit(types.NewTextDeltaEvent("late")), ErrStreamTerminated)

	events := sink.Events()
	assert.Equal(t, []types.EventType{
		types.EventStreamStart,
		types.EventTextDelta,
		types.EventError,
		types.EventStreamEnd,
	}, eventTypes(events))
	assert.Equal(t, "upstream exploded", events[2].Message)
	assert.True(t, sink.Closed())
	assert.Equal(t, 4, e.Count())
}

func TestEmitter_NoStreamEndAfterFailedErrorWrite(t *testing.T) {
	sink := &failingSink{limit: 1}
	e := NewEmitter("req", sink)

	require.NoError(t, e.Start())
	assert.ErrorIs(t, e.Finish(errors.New("boom")), ErrClientGone)
	assert.Equal(t, 2, sink.attempts)
	assert.True(t, sink.closed)
}

func TestEmitter_ErrorMessageFromAPIError(t *testing.T) {
	sink := NewCollectorSink()
	e := NewEmitter("req", sink)

	require.NoError(t, e.Finish(types.NewModelServiceUnavailableError()))
	_, msg := sink.Response()
	assert.Equal(t, types.ErrMsgModelServiceUnavailable, msg)
}

func TestEmitter_NoWritesAfterClientGone(t *testing.T) {
	sink := &failingSink{limit: 1}
	e := NewEmitter("req", sink)

	require.NoError(t, e.Start())
	assert.ErrorIs(t, e.Emit(types.NewTextDeltaEvent("a")), ErrClientGone)
	assert.ErrorIs(t, e.Emit(types.NewTextDeltaEvent("b")), ErrClientGone)
	assert.ErrorIs(t, e.Finish(nil), ErrClientGone)

	assert.True(t, e.Gone())
	assert.Equal(t, 2, sink.attempts)
	assert.True(t, sink.closed)
}

func TestNDJSONSink_WritesOneLinePerEvent(t *testing.T) {
	rec := httptest.NewRecorder()
	e := NewEmitter("req", NewNDJSONSink(context.Background(), rec))

	require.NoError(t, e.Emit(types.NewToolCallRequestEvent(types.ToolCallAnnouncement{ID: "call_0", Name: "calculate"})))
	require.NoError(t, e.Finish(nil))
	assert.True(t, rec.Flushed)

	lines := strings.Split(strings.TrimSuffix(rec.Body.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.JSONEq(t, `{"type":"stream_start"}`, lines[0])
	assert.JSONEq(t, `{"type":"tool_call_request","data":{"id":"call_0","name":"calculate","arguments_str":""}}`, lines[1])
	assert.JSONEq(t, `{"type":"stream_end"}`, lines[2])

	var ev types.GatewayEvent
	require.NoError(t, json.Unmarshal([]byte(lines[2]), &ev))
	assert.True(t, ev.IsTerminal())
}

func TestNDJSONSink_FailsOnceRequestIsDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	rec := httptest.NewRecorder()
	sink := NewNDJSONSink(ctx, rec)

	require.NoError(t, sink.Write(types.NewStreamStartEvent()))
	cancel()
	assert.Error(t, sink.Write(types.NewTextDeltaEvent("x")))
	assert.NoError(t, sink.Close())
	assert.Equal(t, 1, strings.Count(rec.Body.String(), "\n"))
}

func TestCollectorSink_KeepsOnlyFinalCallText(t *testing.T) {
	sink := NewCollectorSink()
	require.NoError(t, sink.Write(types.NewTextDeltaEvent("let me check")))
	require.NoError(t, sink.Write(types.NewToolCallResultEvent(types.ToolCallOutcome{ToolCallID: "c", Status: types.ToolStatusSuccess})))
	require.NoError(t, sink.Write(types.NewFinalResponseStartEvent("...")))
	require.NoError(t, sink.Write(types.NewTextDeltaEvent("answer")))

	resp, msg := sink.Response()
	assert.Empty(t, msg)
	assert.Equal(t, "answer", resp.Response)
	assert.Len(t, resp.ToolCalls, 1)
}
