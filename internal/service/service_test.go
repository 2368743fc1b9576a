package service

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zgsm-ai/chat-mcp-gateway/internal/config"
	"github.com/zgsm-ai/chat-mcp-gateway/internal/model"
	"github.com/zgsm-ai/chat-mcp-gateway/internal/types"
)

func sampleLog(requestId string) *model.ChatLog {
	log := model.NewChatLog(requestId, time.Date(2026, 10, 18, 8, 0, 0, 0, time.UTC))
	log.Model = "test-model"
	log.Endpoint = "/api/chat_sse"
	log.Outcome = model.OutcomeCompleted
	log.Rounds = 2
	log.TotalLatency = 1500
	log.Usage.CompletionTokens = 12
	log.AddToolCall(types.ToolCallOutcome{
		ToolCallID: "call_1",
		Name:       "calculate",
		Status:     types.ToolStatusSuccess,
		Result:     "5",
	}, `{"expression":"2+3"}`, 30*time.Millisecond)
	return log
}

func TestMetricsService_RecordChatLog(t *testing.T) {
	ms := NewMetricsService()
	log := sampleLog("req-1")
	log.AddError(types.ErrToolError, assert.AnError)

	ms.RecordChatLog(log)
	ms.IncMalformedDelta("test-model")

	assert.Equal(t, float64(1), testutil.ToFloat64(ms.requestsTotal.WithLabelValues("test-model", "/api/chat_sse", "completed")))
	assert.Equal(t, float64(2), testutil.ToFloat64(ms.roundsTotal.WithLabelValues("test-model")))
	assert.Equal(t, float64(1), testutil.ToFloat64(ms.toolCallsTotal.WithLabelValues("calculate", "success")))
	assert.Equal(t, float64(12), testutil.ToFloat64(ms.responseTokens.WithLabelValues("test-model")))
	assert.Equal(t, float64(1), testutil.ToFloat64(ms.errorsTotal.WithLabelValues("test-model", "ToolError")))
	assert.Equal(t, float64(1), testutil.ToFloat64(ms.malformedDeltas.WithLabelValues("test-model")))
}

func TestMetricsService_SeparateRegistries(t *testing.T) {
	// Two services must not collide on registration
	a := NewMetricsService()
	b := NewMetricsService()
	assert.NotSame(t, a.GetRegistry(), b.GetRegistry())
}

func TestLogRecordService_WritesDailyFile(t *testing.T) {
	dir := t.TempDir()
	ms := NewMetricsService()
	ls := NewLogRecordService(config.LogConfig{RecordQueueSize: 4, RecordDir: dir})
	ls.SetMetricsService(ms)
	require.NoError(t, ls.Start())

	ls.LogAsync(sampleLog("req-a"))
	ls.LogAsync(sampleLog("req-b"))
	ls.Stop()

	data, err := os.ReadFile(filepath.Join(dir, "20261018.log"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	first, err := model.FromJSON(lines[0])
	require.NoError(t, err)
	assert.Equal(t, "req-a", first.RequestID)
	assert.Equal(t, float64(2), testutil.ToFloat64(ms.requestsTotal.WithLabelValues("test-model", "/api/chat_sse", "completed")))
}

func TestLogRecordService_AfterStopLogsSynchronously(t *testing.T) {
	ms := NewMetricsService()
	ls := NewLogRecordService(config.LogConfig{})
	ls.SetMetricsService(ms)
	require.NoError(t, ls.Start())
	ls.Stop()
	ls.Stop()

	ls.LogAsync(sampleLog("late"))
	assert.Equal(t, float64(1), testutil.ToFloat64(ms.requestsTotal.WithLabelValues("test-model", "/api/chat_sse", "completed")))
}

func TestLogRecordService_FullQueueFallsBack(t *testing.T) {
	ms := NewMetricsService()
	ls := NewLogRecordService(config.LogConfig{RecordQueueSize: 1})
	ls.SetMetricsService(ms)

	// Not started: the first record fills the queue, the second is handled inline
	ls.LogAsync(sampleLog("queued"))
	ls.LogAsync(sampleLog("inline"))
	assert.Equal(t, float64(1), testutil.ToFloat64(ms.requestsTotal.WithLabelValues("test-model", "/api/chat_sse", "completed")))

	require.NoError(t, ls.Start())
	ls.Stop()
	assert.Equal(t, float64(2), testutil.ToFloat64(ms.requestsTotal.WithLabelValues("test-model", "/api/chat_sse", "completed")))
}
