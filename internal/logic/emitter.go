package logic

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/zgsm-ai/chat-mcp-gateway/internal/logger"
	"github.com/zgsm-ai/chat-mcp-gateway/internal/types"
)

var (
	// ErrClientGone is returned once the sink has refused a write
	ErrClientGone = errors.New("client disconnected")
	// ErrStreamTerminated is returned for events emitted after the stream ended
	ErrStreamTerminated = errors.New("event stream already terminated")
)

// EventSink is the ordered destination of one request's events. A Write error
// means the client can no longer be reached.
type EventSink interface {
	Write(event types.GatewayEvent) error
	Close() error
}

// Emitter guards a sink so that stream_start comes first, exactly one
// stream_end comes last and nothing is written after the client is gone.
// A fatal error is written as one error event right before stream_end.
type Emitter struct {
	mu         sync.Mutex
	sink       EventSink
	requestId  string
	started    bool
	terminated bool
	gone       bool
	count      int
}

func NewEmitter(requestId string, sink EventSink) *Emitter {
	return &Emitter{requestId: requestId, sink: sink}
}

// Start writes stream_start. Calling it again is a no-op.
func (e *Emitter) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ensureStarted()
}

// Emit writes one non-terminal event, starting the stream first if needed.
// Terminal events must go through Finish.
func (e *Emitter) Emit(event types.GatewayEvent) error {
	if event.IsTerminal() {
		return e.finish(event)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ensureStarted(); err != nil {
		return err
	}
	if event.Type == types.EventStreamStart {
		return nil
	}
	return e.write(event)
}

// Finish writes stream_end, preceded by an error event when cause is not nil,
// then closes the sink. Only the first call has any effect.
func (e *Emitter) Finish(cause error) error {
	if cause == nil {
		return e.finish(types.NewStreamEndEvent())
	}
	return e.finish(types.NewErrorEvent(clientMessage(cause)))
}

func (e *Emitter) finish(event types.GatewayEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.terminated {
		return ErrStreamTerminated
	}
	err := e.ensureStarted()
	if err == nil {
		err = e.write(event)
	}
	if err == nil && event.Type == types.EventError {
		err = e.write(types.NewStreamEndEvent())
	}
	e.terminated = true

	if closeErr := e.sink.Close(); closeErr != nil {
		logger.Warn("failed to close event sink",
			zap.String("requestId", e.requestId),
			zap.Error(closeErr))
	}
	return err
}

func (e *Emitter) ensureStarted() error {
	if e.started {
		return nil
	}
	if err := e.write(types.NewStreamStartEvent()); err != nil {
		return err
	}
	e.started = true
	return nil
}

func (e *Emitter) write(event types.GatewayEvent) error {
	if e.gone {
		return ErrClientGone
	}
	if e.terminated {
		return ErrStreamTerminated
	}
	if err := e.sink.Write(event); err != nil {
		e.gone = true
		logger.Info("client stopped accepting events",
			zap.String("requestId", e.requestId),
			zap.String("event", string(event.Type)),
			zap.Int("written", e.count),
			zap.Error(err))
		return ErrClientGone
	}
	e.count++
	return nil
}

// Gone reports whether a write has failed
func (e *Emitter) Gone() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gone
}

// Terminated reports whether stream_end was attempted
func (e *Emitter) Terminated() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.terminated
}

// Count is the number of events accepted by the sink
func (e *Emitter) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.count
}

// clientMessage picks the text shown to the client for a fatal error
func clientMessage(err error) string {
	var apiErr *types.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}
