package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/zgsm-ai/chat-mcp-gateway/internal/config"
	"github.com/zgsm-ai/chat-mcp-gateway/internal/logger"
	"github.com/zgsm-ai/chat-mcp-gateway/internal/timeout"
	"github.com/zgsm-ai/chat-mcp-gateway/internal/types"
)

const readBufferSize = 32 * 1024

// LLMClientInterface streams chunked completions from the upstream API
type LLMClientInterface interface {
	// ChatCompletionStream posts req and hands every body read to onChunk as
	// it arrives. The chunk is only valid during the call.
	ChatCompletionStream(ctx context.Context, req types.CompletionRequest, onChunk func([]byte) error) error
	GetModelName() string
}

// StreamCallbackError wraps an error returned by the chunk callback, as
// opposed to a failure of the upstream itself.
type StreamCallbackError struct {
	Err error
}

func (e *StreamCallbackError) Error() string {
	return fmt.Sprintf("callback error: %v", e.Err)
}

func (e *StreamCallbackError) Unwrap() error {
	return e.Err
}

// LLMClient handles communication with the completion API
type LLMClient struct {
	modelName   string
	endpoint    string
	apiKey      string
	maxTokens   int
	idleTimeout time.Duration
	httpClient  *http.Client
}

// NewLLMClient creates a new LLM client instance
func NewLLMClient(c config.LLMConfig) (*LLMClient, error) {
	if c.Endpoint == "" {
		return nil, fmt.Errorf("NewLLMClient endpoint cannot be empty")
	}

	return &LLMClient{
		modelName:   c.Model,
		endpoint:    c.Endpoint,
		apiKey:      c.ApiKey,
		maxTokens:   c.MaxTokens,
		idleTimeout: c.IdleTimeout(),
		httpClient:  &http.Client{},
	}, nil
}

func (c *LLMClient) GetModelName() string {
	return c.modelName
}

// ChatCompletionStream issues one streaming completion call. The body is read
// with raw reads so line boundaries are left to the caller's decoder. A
// non-2xx status is returned as *types.APIError before any chunk is passed on.
func (c *LLMClient) ChatCompletionStream(ctx context.Context, req types.CompletionRequest, onChunk func([]byte) error) error {
	if req.Model == "" {
		req.Model = c.modelName
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = c.maxTokens
	}
	req.Stream = true

	jsonData, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request payload: %w", err)
	}

	idleCtx, idle := timeout.NewIdleTimer(ctx, c.idleTimeout)
	defer idle.Stop()

	httpReq, err := http.NewRequestWithContext(idleCtx, http.MethodPost, c.endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json; charset=utf-8")
	httpReq.Header.Set("Accept", "text/event-stream")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if idle.TimedOut() {
			return fmt.Errorf("failed to make request: %w", timeout.ErrIdleTimeout)
		}
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		message := strings.TrimSpace(string(body))
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		logger.Error("completion API returned non-success status",
			zap.Int("status", resp.StatusCode),
			zap.String("model", req.Model),
			zap.String("body", message))
		return types.NewHTTPStatusError(resp.StatusCode, message)
	}

	buf := make([]byte, readBufferSize)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			idle.Reset()
			if err := onChunk(buf[:n]); err != nil {
				return &StreamCallbackError{Err: err}
			}
		}
		if errors.Is(readErr, io.EOF) {
			return nil
		}
		if readErr != nil {
			if idle.TimedOut() {
				return fmt.Errorf("error reading response: %w", timeout.ErrIdleTimeout)
			}
			return fmt.Errorf("error reading response: %w", readErr)
		}
	}
}
