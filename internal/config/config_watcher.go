package config

import (
	"fmt"
	"sync"

	"github.com/nacos-group/nacos-sdk-go/v2/vo"
	"go.uber.org/zap"

	"github.com/zgsm-ai/chat-mcp-gateway/internal/logger"
)

// ConfigChangeHandler reacts to updates of one remote document
type ConfigChangeHandler interface {
	// GetDataId returns the data id the handler is bound to
	GetDataId() string
	// OnChange parses and applies the new document content
	OnChange(data string) error
}

// TypedConfigHandler parses a YAML document into T and passes it to onChange
type TypedConfigHandler[T any] struct {
	dataId    string
	mutex     sync.RWMutex
	current   *T
	onChange  func(*T)
	unmarshal func(string, interface{}) error
}

func NewTypedConfigHandler[T any](dataId string, onChange func(*T)) *TypedConfigHandler[T] {
	return &TypedConfigHandler[T]{
		dataId:    dataId,
		onChange:  onChange,
		unmarshal: unmarshalYAMLContent,
	}
}

func (h *TypedConfigHandler[T]) GetDataId() string {
	return h.dataId
}

func (h *TypedConfigHandler[T]) OnChange(data string) error {
	var next T
	if err := h.unmarshal(data, &next); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", h.dataId, err)
	}

	h.mutex.Lock()
	h.current = &next
	h.mutex.Unlock()

	if h.onChange != nil {
		h.onChange(&next)
	}
	return nil
}

// Current returns the last applied document, nil before the first change
func (h *TypedConfigHandler[T]) Current() *T {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.current
}

// configSource is the part of the Nacos config client the loader uses
type configSource interface {
	GetConfig(param vo.ConfigParam) (string, error)
	ListenConfig(params vo.ConfigParam) (err error)
	CancelListenConfig(params vo.ConfigParam) (err error)
	CloseClient()
}

// ConfigWatcher subscribes registered handlers to remote changes
type ConfigWatcher struct {
	source   configSource
	group    string
	handlers map[string]ConfigChangeHandler
	watching []string
	mutex    sync.RWMutex
}

func NewConfigWatcher(group string, source configSource) *ConfigWatcher {
	return &ConfigWatcher{
		source:   source,
		group:    group,
		handlers: make(map[string]ConfigChangeHandler),
	}
}

// RegisterHandler adds a handler; one handler per data id
func (w *ConfigWatcher) RegisterHandler(handler ConfigChangeHandler) error {
	if handler == nil {
		return fmt.Errorf("handler cannot be nil")
	}

	dataId := handler.GetDataId()
	if dataId == "" {
		return fmt.Errorf("dataId cannot be empty")
	}

	w.mutex.Lock()
	defer w.mutex.Unlock()

	if _, exists := w.handlers[dataId]; exists {
		return fmt.Errorf("handler for dataId %s already registered", dataId)
	}
	w.handlers[dataId] = handler
	return nil
}

// StartWatching starts listening for every registered handler
func (w *ConfigWatcher) StartWatching() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if len(w.handlers) == 0 {
		return fmt.Errorf("no handlers registered")
	}

	for dataId, handler := range w.handlers {
		if err := w.listen(dataId, handler); err != nil {
			return fmt.Errorf("failed to start watching for %s: %w", dataId, err)
		}
		w.watching = append(w.watching, dataId)
	}

	logger.Info("Started watching for configuration changes",
		zap.Int("handlersCount", len(w.handlers)),
		zap.String("group", w.group))
	return nil
}

func (w *ConfigWatcher) listen(dataId string, handler ConfigChangeHandler) error {
	return w.source.ListenConfig(vo.ConfigParam{
		DataId: dataId,
		Group:  w.group,
		OnChange: func(namespace, group, dataId, data string) {
			logger.Info("Configuration change detected",
				zap.String("namespace", namespace),
				zap.String("dataId", dataId),
				zap.Int("dataLength", len(data)))

			if err := handler.OnChange(data); err != nil {
				logger.Error("Failed to handle configuration change",
					zap.Error(err),
					zap.String("dataId", dataId))
			}
		},
	})
}

// Close cancels every active listener
func (w *ConfigWatcher) Close() {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	for _, dataId := range w.watching {
		if err := w.source.CancelListenConfig(vo.ConfigParam{DataId: dataId, Group: w.group}); err != nil {
			logger.Warn("Failed to cancel config listener",
				zap.String("dataId", dataId),
				zap.Error(err))
		}
	}
	w.watching = nil
}
