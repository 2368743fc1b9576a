package stream

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/zgsm-ai/chat-mcp-gateway/internal/logger"
	"github.com/zgsm-ai/chat-mcp-gateway/internal/types"
)

// ToolCallRequest is a fully assembled tool call. ArgumentsText is the raw
// concatenation of all argument chunks and is not validated here.
type ToolCallRequest struct {
	Index         int
	ID            string
	Name          string
	ArgumentsText string
}

type callBuilder struct {
	index     int
	id        string
	name      string
	args      strings.Builder
	announced bool
	// duplicate is set when the call id was already announced by another index
	duplicate bool
}

func (b *callBuilder) callID() string {
	if b.id != "" {
		return b.id
	}
	return fmt.Sprintf("call_%d", b.index)
}

// Accumulator merges tool call fragments of one completion call
type Accumulator struct {
	builders map[int]*callBuilder
	order    []int
	claimed  map[string]int
}

func NewAccumulator() *Accumulator {
	return &Accumulator{
		builders: make(map[int]*callBuilder),
		claimed:  make(map[string]int),
	}
}

// Add merges one fragment into the builder for its index. The first time a
// builder learns its function name, Add returns the announcement for it; the
// arguments in that announcement may still be incomplete. A builder whose id
// was already announced by another index is never announced nor dispatched.
func (a *Accumulator) Add(f ToolCallFragment) (types.ToolCallAnnouncement, bool) {
	b, ok := a.builders[f.Index]
	if !ok {
		b = &callBuilder{index: f.Index}
		a.builders[f.Index] = b
		a.order = append(a.order, f.Index)
	}

	if f.ID != "" {
		switch {
		case b.id == "":
			b.id = f.ID
		case b.id != f.ID:
			logger.Warn("conflicting tool call id ignored",
				zap.Int("index", f.Index),
				zap.String("kept", b.id),
				zap.String("ignored", f.ID),
			)
		}
	}
	if f.FunctionName != "" && b.name == "" {
		b.name = f.FunctionName
	}
	b.args.WriteString(f.ArgumentsChunk)

	if b.name == "" || b.announced {
		return types.ToolCallAnnouncement{}, false
	}

	// the announced id is final, later ids for this index are ignored
	b.announced = true
	b.id = b.callID()
	if owner, taken := a.claimed[b.id]; taken {
		b.duplicate = true
		logger.Warn("duplicate tool call id dropped",
			zap.Int("index", b.index),
			zap.Int("owner", owner),
			zap.String("id", b.id),
		)
		return types.ToolCallAnnouncement{}, false
	}
	a.claimed[b.id] = b.index
	return types.ToolCallAnnouncement{
		ID:           b.id,
		Name:         b.name,
		ArgumentsStr: b.args.String(),
	}, true
}

// Len returns the number of in-progress builders
func (a *Accumulator) Len() int {
	return len(a.order)
}

// Finalize materializes the builders in first-seen order. Builders without a
// function name are dropped, and so are the ones whose id was taken when they
// would have been announced, so every returned call has been announced once.
func (a *Accumulator) Finalize() []ToolCallRequest {
	var requests []ToolCallRequest
	for _, index := range a.order {
		b := a.builders[index]
		if b.name == "" {
			logger.Debug("discarding nameless tool call",
				zap.Int("index", index),
				zap.Int("argsLen", b.args.Len()),
			)
			continue
		}
		if b.duplicate {
			continue
		}

		requests = append(requests, ToolCallRequest{
			Index:         index,
			ID:            b.id,
			Name:          b.name,
			ArgumentsText: b.args.String(),
		})
	}
	return requests
}
