package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/zgsm-ai/chat-mcp-gateway/internal/config"
	"github.com/zgsm-ai/chat-mcp-gateway/internal/logger"
	"github.com/zgsm-ai/chat-mcp-gateway/internal/types"
)

const (
	defaultBreakerMaxFailures uint32        = 5
	defaultBreakerTimeout     time.Duration = 30 * time.Second
	defaultBreakerInterval    time.Duration = 60 * time.Second
)

// BreakerLLMClient fails fast while the completion API keeps failing.
// Errors caused by the caller, such as a client that went away or a rejected
// request, do not count as failures.
type BreakerLLMClient struct {
	inner   LLMClientInterface
	breaker *gobreaker.CircuitBreaker[struct{}]
}

func NewBreakerLLMClient(inner LLMClientInterface, cfg config.BreakerConfig) *BreakerLLMClient {
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = defaultBreakerMaxFailures
	}
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout == 0 {
		timeout = defaultBreakerTimeout
	}
	interval := time.Duration(cfg.IntervalSec) * time.Second
	if interval == 0 {
		interval = defaultBreakerInterval
	}

	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "llm:" + inner.GetModelName(),
		MaxRequests: 1,
		Interval:    interval,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
		IsSuccessful: func(err error) bool {
			return err == nil || isCallerError(err)
		},
	})

	return &BreakerLLMClient{inner: inner, breaker: cb}
}

func (b *BreakerLLMClient) GetModelName() string {
	return b.inner.GetModelName()
}

func (b *BreakerLLMClient) ChatCompletionStream(ctx context.Context, req types.CompletionRequest, onChunk func([]byte) error) error {
	_, err := b.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, b.inner.ChatCompletionStream(ctx, req, onChunk)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("completion circuit %s: %w", b.breaker.State(), types.NewModelServiceUnavailableError())
	}
	return err
}

// State returns the current breaker state for monitoring
func (b *BreakerLLMClient) State() gobreaker.State {
	return b.breaker.State()
}

func isCallerError(err error) bool {
	var cbErr *StreamCallbackError
	if errors.As(err, &cbErr) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return true
	}
	var apiErr *types.APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode < http.StatusInternalServerError && apiErr.StatusCode != http.StatusTooManyRequests
	}
	return false
}
