package bootstrap

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/zgsm-ai/chat-mcp-gateway/internal/config"
	"github.com/zgsm-ai/chat-mcp-gateway/internal/logger"
)

// remoteConfigLoader is implemented by *config.NacosLoader
type remoteConfigLoader interface {
	LoadConfig(dataId string, target interface{}) error
	RegisterConfigHandler(handler config.ConfigChangeHandler) error
	StartWatching() error
	Close()
}

// NacosConfigManager keeps the MCP server list in sync with a Nacos document
type NacosConfigManager struct {
	loader   remoteConfigLoader
	dataId   string
	stopOnce sync.Once
}

// NewNacosConfigManager creates a new Nacos configuration manager
func NewNacosConfigManager(cfg config.NacosConfig) (*NacosConfigManager, error) {
	loader, err := config.NewNacosLoader(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Nacos loader: %w", err)
	}

	logger.Info("Nacos configuration manager created successfully",
		zap.String("serverAddr", cfg.ServerAddr),
		zap.Int("serverPort", cfg.ServerPort),
		zap.String("dataId", cfg.DataId))

	return newNacosConfigManager(cfg.DataId, loader), nil
}

func newNacosConfigManager(dataId string, loader remoteConfigLoader) *NacosConfigManager {
	if dataId == "" {
		dataId = config.DefaultNacosDataId
	}
	return &NacosConfigManager{loader: loader, dataId: dataId}
}

// InitializeMCPServers loads the server list once and then watches it.
// onChange receives every later version; the initial list is returned.
func (m *NacosConfigManager) InitializeMCPServers(onChange func([]config.MCPServerConfig)) ([]config.MCPServerConfig, error) {
	var initial config.MCPConfig
	if err := m.loader.LoadConfig(m.dataId, &initial); err != nil {
		return nil, err
	}

	handler := config.NewTypedConfigHandler(m.dataId, func(next *config.MCPConfig) {
		logger.Info("MCP server configuration changed in Nacos",
			zap.String("dataId", m.dataId),
			zap.Int("servers", len(next.Servers)))
		if onChange != nil {
			onChange(next.Servers)
		}
	})
	if err := m.loader.RegisterConfigHandler(handler); err != nil {
		return nil, fmt.Errorf("failed to register %s handler: %w", m.dataId, err)
	}
	if err := m.loader.StartWatching(); err != nil {
		return nil, fmt.Errorf("failed to watch %s: %w", m.dataId, err)
	}

	logger.Info("MCP servers loaded from Nacos",
		zap.String("dataId", m.dataId),
		zap.Int("servers", len(initial.Servers)))
	return initial.Servers, nil
}

// Stop stops watching and closes the Nacos client
func (m *NacosConfigManager) Stop() {
	m.stopOnce.Do(func() {
		m.loader.Close()
	})
}
