package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zgsm-ai/chat-mcp-gateway/internal/config"
	"github.com/zgsm-ai/chat-mcp-gateway/internal/timeout"
	"github.com/zgsm-ai/chat-mcp-gateway/internal/types"
)

func newTestLLMClient(t *testing.T, endpoint string, idleSec int) *LLMClient {
	t.Helper()
	c, err := NewLLMClient(config.LLMConfig{
		Endpoint:       endpoint,
		ApiKey:         "test-key",
		Model:          "test-model",
		MaxTokens:      16000,
		IdleTimeoutSec: idleSec,
	})
	require.NoError(t, err)
	return c
}

func TestNewLLMClient_EmptyEndpoint(t *testing.T) {
	_, err := NewLLMClient(config.LLMConfig{})
	assert.Error(t, err)
}

func TestLLMClient_ChatCompletionStream(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))

		flusher := w.(http.Flusher)
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"Hel"))
		flusher.Flush()
		w.Write([]byte("lo\"}}]}\n"))
		flusher.Flush()
		w.Write([]byte("data: [DONE]\n"))
	}))
	defer server.Close()

	c := newTestLLMClient(t, server.URL, 5)
	var received []byte
	err := c.ChatCompletionStream(context.Background(), types.CompletionRequest{
		Messages: []types.Message{{Role: types.RoleUser, Content: "hi"}},
	}, func(chunk []byte) error {
		received = append(received, chunk...)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, "data: {\"choices\":[{\"delta\":{\"content\":\"Hello\"}}]}\ndata: [DONE]\n", string(received))
	assert.Equal(t, "test-model", got["model"])
	assert.Equal(t, true, got["stream"])
	assert.Equal(t, float64(16000), got["max_tokens"])
	assert.NotContains(t, got, "tools")
}

func TestLLMClient_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream down"))
	}))
	defer server.Close()

	c := newTestLLMClient(t, server.URL, 5)
	called := false
	err := c.ChatCompletionStream(context.Background(), types.CompletionRequest{}, func([]byte) error {
		called = true
		return nil
	})

	var apiErr *types.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "upstream down", apiErr.Message)
	assert.False(t, called)
}

func TestLLMClient_CallbackErrorStopsReading(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("data: {}\n"))
	}))
	defer server.Close()

	stop := errors.New("client gone")
	c := newTestLLMClient(t, server.URL, 5)
	err := c.ChatCompletionStream(context.Background(), types.CompletionRequest{}, func([]byte) error {
		return stop
	})

	var cbErr *StreamCallbackError
	assert.True(t, errors.As(err, &cbErr))
	assert.ErrorIs(t, err, stop)
}

func TestLLMClient_IdleTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("data: {}\n"))
		w.(http.Flusher).Flush()
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	c := newTestLLMClient(t, server.URL, 1)
	start := time.Now()
	err := c.ChatCompletionStream(context.Background(), types.CompletionRequest{}, func([]byte) error { return nil })

	assert.ErrorIs(t, err, timeout.ErrIdleTimeout)
	assert.Less(t, time.Since(start), 5*time.Second)
}
