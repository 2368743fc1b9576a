package functions

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/zgsm-ai/chat-mcp-gateway/internal/client"
	"github.com/zgsm-ai/chat-mcp-gateway/internal/logger"
	"github.com/zgsm-ai/chat-mcp-gateway/internal/types"
)

// ToolSet answers whether a tool is currently advertised to the model
type ToolSet interface {
	Has(name string) bool
}

// ToolManager keeps the tool set advertised to the model
type ToolManager struct {
	provider client.ToolProviderInterface

	mu          sync.RWMutex
	functions   []types.Function
	names       map[string]struct{}
	refreshedAt time.Time
}

// NewToolManager creates a tool manager; tools are loaded on first use
func NewToolManager(provider client.ToolProviderInterface) *ToolManager {
	return &ToolManager{
		provider: provider,
		names:    make(map[string]struct{}),
	}
}

// Refresh reloads the advertised set from the provider. On failure the
// previous set is kept.
func (m *ToolManager) Refresh(ctx context.Context) error {
	functions, err := m.provider.ListTools(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tools: %w", err)
	}

	names := make(map[string]struct{}, len(functions))
	toolNames := make([]string, 0, len(functions))
	for _, f := range functions {
		names[f.Function.Name] = struct{}{}
		toolNames = append(toolNames, f.Function.Name)
	}

	m.mu.Lock()
	m.functions = functions
	m.names = names
	m.refreshedAt = time.Now()
	m.mu.Unlock()

	logger.Info("advertised tools refreshed", zap.Strings("tools", toolNames), zap.Int("nums", len(toolNames)))
	return nil
}

// Functions returns the advertised set, loading it when empty
func (m *ToolManager) Functions(ctx context.Context) []types.Function {
	m.mu.RLock()
	loaded := !m.refreshedAt.IsZero()
	m.mu.RUnlock()

	if !loaded {
		if err := m.Refresh(ctx); err != nil {
			logger.Warn("tools unavailable, continuing without tools", zap.Error(err))
		}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]types.Function(nil), m.functions...)
}

// Has reports whether name is in the advertised set
func (m *ToolManager) Has(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.names[name]
	return ok
}

// Invalidate forces the next Functions call to reload the set
func (m *ToolManager) Invalidate() {
	m.mu.Lock()
	m.refreshedAt = time.Time{}
	m.mu.Unlock()
}
