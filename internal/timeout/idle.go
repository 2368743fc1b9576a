package timeout

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/zgsm-ai/chat-mcp-gateway/internal/logger"
)

var (
	// ErrIdleTimeout is the cancel cause when the upstream stops sending data
	ErrIdleTimeout = errors.New("upstream idle timeout")
	// ErrRoundDeadline is the cancel cause when a chat round runs too long
	ErrRoundDeadline = errors.New("round deadline exceeded")
)

// WithRoundDeadline bounds a whole chat round. A non-positive d only adds cancellation.
func WithRoundDeadline(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeoutCause(parent, d, ErrRoundDeadline)
}

// IdleTimer cancels its context when Reset is not called within perIdle.
// It guards a single upstream read loop.
type IdleTimer struct {
	cancel  context.CancelCauseFunc
	perIdle time.Duration
	timer   *time.Timer

	mu          sync.Mutex
	stopped     bool
	fired       bool
	idleStart   time.Time
	longestIdle time.Duration
	resetCount  int64
}

// NewIdleTimer returns a context derived from parent and the timer guarding it.
// A non-positive perIdle disables the timer.
func NewIdleTimer(parent context.Context, perIdle time.Duration) (context.Context, *IdleTimer) {
	ctx, cancel := context.WithCancelCause(parent)
	it := &IdleTimer{
		cancel:    cancel,
		perIdle:   perIdle,
		idleStart: time.Now(),
	}
	if perIdle > 0 {
		it.timer = time.AfterFunc(perIdle, it.handleTimeout)
	}
	return ctx, it
}

func (it *IdleTimer) handleTimeout() {
	it.mu.Lock()
	if it.stopped {
		it.mu.Unlock()
		return
	}
	it.fired = true
	idle := time.Since(it.idleStart)
	resets := it.resetCount
	it.mu.Unlock()

	logger.Warn("IdleTimer: timeout triggered",
		zap.Duration("perIdle", it.perIdle),
		zap.Duration("actualIdleDuration", idle),
		zap.Int64("resetCount", resets))
	it.cancel(ErrIdleTimeout)
}

// Reset restarts the idle window; call it whenever data arrives
func (it *IdleTimer) Reset() {
	it.mu.Lock()
	defer it.mu.Unlock()

	if it.stopped || it.fired {
		return
	}

	if idle := time.Since(it.idleStart); idle > it.longestIdle {
		it.longestIdle = idle
	}
	if it.timer != nil {
		it.timer.Reset(it.perIdle)
	}
	it.idleStart = time.Now()
	it.resetCount++
}

// Stop disarms the timer and releases the derived context
func (it *IdleTimer) Stop() {
	it.mu.Lock()
	if it.stopped {
		it.mu.Unlock()
		return
	}
	it.stopped = true
	if it.timer != nil {
		it.timer.Stop()
	}
	it.mu.Unlock()

	it.cancel(nil)
}

// TimedOut reports whether the timer fired
func (it *IdleTimer) TimedOut() bool {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.fired
}

// ResetCount returns the number of times Reset was called
func (it *IdleTimer) ResetCount() int64 {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.resetCount
}

// LongestIdle returns the longest gap observed between resets
func (it *IdleTimer) LongestIdle() time.Duration {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.longestIdle
}
