package bootstrap

import (
	"go.uber.org/zap"

	"github.com/zgsm-ai/chat-mcp-gateway/internal/client"
	"github.com/zgsm-ai/chat-mcp-gateway/internal/config"
	"github.com/zgsm-ai/chat-mcp-gateway/internal/functions"
	"github.com/zgsm-ai/chat-mcp-gateway/internal/logger"
	"github.com/zgsm-ai/chat-mcp-gateway/internal/service"
	"github.com/zgsm-ai/chat-mcp-gateway/internal/tokenizer"
)

// ServiceContext holds all service dependencies
type ServiceContext struct {
	Config config.Config

	// Clients
	LLMClient    client.LLMClientInterface
	ToolProvider client.ToolProviderInterface
	RedisClient  client.RedisInterface

	// Tools
	ToolManager  *functions.ToolManager
	Orchestrator *functions.Orchestrator

	// Services
	LoggerService  service.LogRecordInterface
	MetricsService service.MetricsInterface

	// Utilities
	TokenCounter *tokenizer.TokenCounter

	serverUpdater serverUpdater
	nacosManager  *NacosConfigManager
}

// serverUpdater is the part of the MCP provider that hot reload needs
type serverUpdater interface {
	UpdateServers(servers []config.MCPServerConfig)
}

// NewServiceContext creates a new service context with all dependencies
func NewServiceContext(c config.Config) *ServiceContext {
	c.ApplyDefaults()

	// Initialize completion client
	llmClient, err := client.NewLLMClient(c.LLM)
	if err != nil {
		panic("Failed to create LLM client:" + err.Error())
	}
	var completion client.LLMClientInterface = llmClient
	if c.LLM.Breaker.Enabled {
		completion = client.NewBreakerLLMClient(llmClient, c.LLM.Breaker)
	}

	// Initialize tool provider
	mcpProvider := client.NewMCPToolProvider(c.MCP)
	toolManager := functions.NewToolManager(mcpProvider)

	// Initialize Redis client, optional
	var redisClient client.RedisInterface
	if c.Redis.Addr != "" {
		redisClient = client.NewRedisClient(c.Redis)
	} else {
		logger.Info("redis address not configured, tool status is not recorded")
	}

	orchestrator := functions.NewOrchestrator(mcpProvider, toolManager, redisClient, c.Redis.StatusTTL())

	// Initialize token counter; estimation is used when it is unavailable
	tokenCounter, err := tokenizer.NewTokenCounter()
	if err != nil {
		logger.Warn("failed to start token counter, falling back to estimation", zap.Error(err))
		tokenCounter = nil
	}

	// Initialize metrics service
	metricsService := service.NewMetricsService()

	// Initialize logger service
	loggerService := service.NewLogRecordService(c.Log)
	loggerService.SetMetricsService(metricsService)
	if err := loggerService.Start(); err != nil {
		panic("Failed to start logger service:" + err.Error())
	}

	svc := &ServiceContext{
		Config:         c,
		LLMClient:      completion,
		ToolProvider:   mcpProvider,
		RedisClient:    redisClient,
		ToolManager:    toolManager,
		Orchestrator:   orchestrator,
		LoggerService:  loggerService,
		MetricsService: metricsService,
		TokenCounter:   tokenCounter,
		serverUpdater:  mcpProvider,
	}

	if c.Nacos.Enabled {
		svc.initNacos()
	}

	return svc
}

// initNacos replaces the local MCP server list with the remote one and keeps
// watching it. Failures leave the local list in place.
func (svc *ServiceContext) initNacos() {
	manager, err := NewNacosConfigManager(svc.Config.Nacos)
	if err != nil {
		logger.Error("failed to create Nacos configuration manager, using local MCP servers", zap.Error(err))
		return
	}

	servers, err := manager.InitializeMCPServers(svc.ApplyMCPServers)
	if err != nil {
		logger.Error("failed to load MCP servers from Nacos, using local MCP servers", zap.Error(err))
		manager.Stop()
		return
	}
	svc.ApplyMCPServers(servers)
	svc.nacosManager = manager
}

// ApplyMCPServers swaps the provider's server set and drops the cached tool list
func (svc *ServiceContext) ApplyMCPServers(servers []config.MCPServerConfig) {
	if svc.serverUpdater == nil {
		return
	}
	svc.serverUpdater.UpdateServers(servers)
	if svc.ToolManager != nil {
		svc.ToolManager.Invalidate()
	}
	logger.Info("MCP server set updated", zap.Int("servers", len(servers)))
}

// Stop gracefully stops all services
func (svc *ServiceContext) Stop() {
	if svc.nacosManager != nil {
		svc.nacosManager.Stop()
	}
	if svc.LoggerService != nil {
		svc.LoggerService.Stop()
	}
	if p, ok := svc.ToolProvider.(*client.MCPToolProvider); ok {
		p.Close()
	}
	if svc.RedisClient != nil {
		if err := svc.RedisClient.Close(); err != nil {
			logger.Warn("failed to close redis client", zap.Error(err))
		}
	}
}
