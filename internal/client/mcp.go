package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/zgsm-ai/chat-mcp-gateway/internal/config"
	"github.com/zgsm-ai/chat-mcp-gateway/internal/logger"
	"github.com/zgsm-ai/chat-mcp-gateway/internal/session"
	"github.com/zgsm-ai/chat-mcp-gateway/internal/types"
)

// ErrUnknownTool is returned for a tool no configured server offers
var ErrUnknownTool = errors.New("unknown tool")

const initializeTimeout = 15 * time.Second

// ToolProviderInterface is the tool-capability provider
type ToolProviderInterface interface {
	ListTools(ctx context.Context) ([]types.Function, error)
	CallTool(ctx context.Context, name string, args map[string]any) (*types.ToolResult, error)
}

// mcpClient abstracts the MCP client for testability
type mcpClient interface {
	ListTools(ctx context.Context, request mcp.ListToolsRequest) (*mcp.ListToolsResult, error)
	CallTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
	Close() error
}

type mcpSession struct {
	server config.MCPServerConfig
	client mcpClient
}

type dialFunc func(ctx context.Context, srv config.MCPServerConfig, clientName string) (mcpClient, error)

// MCPToolProvider serves tools from a set of MCP servers. Connections live in
// a session registry keyed by server name and are opened on first use.
type MCPToolProvider struct {
	clientName  string
	callTimeout time.Duration
	dial        dialFunc
	sessions    *session.Registry[*mcpSession]

	mu      sync.RWMutex
	servers []config.MCPServerConfig
	// routes maps a tool name to the server that offers it
	routes map[string]string
}

func NewMCPToolProvider(cfg config.MCPConfig) *MCPToolProvider {
	return newMCPToolProvider(cfg, dialMCPServer)
}

func newMCPToolProvider(cfg config.MCPConfig, dial dialFunc) *MCPToolProvider {
	p := &MCPToolProvider{
		clientName:  cfg.ClientName,
		callTimeout: cfg.CallTimeout(),
		dial:        dial,
		servers:     normalizeServers(cfg.Servers),
	}
	p.sessions = session.NewRegistry(session.Hooks[*mcpSession]{
		OnCreate: func(id string, s *mcpSession) {
			logger.Info("mcp server connected",
				zap.String("name", id),
				zap.String("transport", s.server.Transport))
		},
		OnClose: func(id string, s *mcpSession) {
			if err := s.client.Close(); err != nil {
				logger.Warn("mcp server close error", zap.String("server", id), zap.Error(err))
			}
		},
	})
	return p
}

// ListTools discovers the tools of every configured server. A server that
// fails is skipped; the call fails only when all of them do.
func (p *MCPToolProvider) ListTools(ctx context.Context) ([]types.Function, error) {
	routes := make(map[string]string)
	var tools []types.Function
	var errs []string
	succeeded := 0

	for _, srv := range p.Servers() {
		sess, err := p.session(ctx, srv)
		if err != nil {
			logger.Warn("mcp server connect failed, skipping", zap.String("server", srv.Name), zap.Error(err))
			errs = append(errs, fmt.Sprintf("%s: %v", srv.Name, err))
			continue
		}

		result, err := sess.client.ListTools(ctx, mcp.ListToolsRequest{})
		if err != nil {
			logger.Warn("mcp server discovery failed, skipping", zap.String("server", srv.Name), zap.Error(err))
			errs = append(errs, fmt.Sprintf("%s: %v", srv.Name, err))
			// reconnect on next use
			p.sessions.Close(srv.Name)
			continue
		}
		succeeded++

		for _, t := range result.Tools {
			if owner, dup := routes[t.Name]; dup {
				logger.Warn("duplicate mcp tool ignored",
					zap.String("tool", t.Name),
					zap.String("server", srv.Name),
					zap.String("owner", owner))
				continue
			}
			routes[t.Name] = srv.Name
			tools = append(tools, toFunction(t))
		}
		logger.Info("mcp tools discovered", zap.String("server", srv.Name), zap.Int("count", len(result.Tools)))
	}

	if succeeded == 0 && len(errs) > 0 {
		return nil, fmt.Errorf("all mcp servers failed discovery: %s", strings.Join(errs, "; "))
	}

	p.mu.Lock()
	p.routes = routes
	p.mu.Unlock()
	return tools, nil
}

// CallTool invokes name on the server that advertised it. A result flagged
// isError by the server is returned as a result, not as an error.
func (p *MCPToolProvider) CallTool(ctx context.Context, name string, args map[string]any) (*types.ToolResult, error) {
	srv, ok := p.route(name)
	if !ok {
		if _, err := p.ListTools(ctx); err != nil {
			return nil, err
		}
		if srv, ok = p.route(name); !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
		}
	}

	sess, err := p.session(ctx, srv)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, p.callTimeout)
	defer cancel()

	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	logger.Debug("mcp tool call", zap.String("server", srv.Name), zap.String("tool", name))
	result, err := sess.client.CallTool(callCtx, req)
	if err != nil {
		return nil, fmt.Errorf("call tool %s on %s: %w", name, srv.Name, err)
	}
	return convertToolResult(result), nil
}

// UpdateServers swaps the server set. Sessions of removed or changed servers
// are closed; tool routes are rebuilt by the next ListTools.
func (p *MCPToolProvider) UpdateServers(servers []config.MCPServerConfig) {
	next := normalizeServers(servers)
	byName := make(map[string]config.MCPServerConfig, len(next))
	for _, srv := range next {
		byName[srv.Name] = srv
	}

	p.mu.Lock()
	p.servers = next
	p.routes = nil
	p.mu.Unlock()

	for _, id := range p.sessions.IDs() {
		sess, ok := p.sessions.Get(id)
		if !ok {
			continue
		}
		if srv, keep := byName[id]; !keep || !reflect.DeepEqual(srv, sess.server) {
			p.sessions.Close(id)
		}
	}
	logger.Info("mcp server set updated", zap.Int("servers", len(next)))
}

// Servers returns a copy of the configured servers
func (p *MCPToolProvider) Servers() []config.MCPServerConfig {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]config.MCPServerConfig(nil), p.servers...)
}

// Close shuts down all MCP server connections
func (p *MCPToolProvider) Close() {
	p.sessions.CloseAll()
}

func (p *MCPToolProvider) route(tool string) (config.MCPServerConfig, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	name, ok := p.routes[tool]
	if !ok {
		return config.MCPServerConfig{}, false
	}
	for _, srv := range p.servers {
		if srv.Name == name {
			return srv, true
		}
	}
	return config.MCPServerConfig{}, false
}

func (p *MCPToolProvider) session(ctx context.Context, srv config.MCPServerConfig) (*mcpSession, error) {
	return p.sessions.GetOrCreate(srv.Name, func() (*mcpSession, error) {
		c, err := p.dial(ctx, srv, p.clientName)
		if err != nil {
			return nil, err
		}
		return &mcpSession{server: srv, client: c}, nil
	})
}

func dialMCPServer(ctx context.Context, srv config.MCPServerConfig, clientName string) (mcpClient, error) {
	var c *mcpclient.Client

	// the connection outlives the request that opened it
	switch srv.Transport {
	case "", "sse":
		sseClient, err := mcpclient.NewSSEMCPClient(srv.URL)
		if err != nil {
			return nil, fmt.Errorf("create sse client: %w", err)
		}
		if err := sseClient.Start(context.Background()); err != nil {
			return nil, fmt.Errorf("start sse client: %w", err)
		}
		c = sseClient
	case "http":
		t, err := transport.NewStreamableHTTP(srv.URL)
		if err != nil {
			return nil, fmt.Errorf("create http transport: %w", err)
		}
		httpClient := mcpclient.NewClient(t)
		if err := httpClient.Start(context.Background()); err != nil {
			return nil, fmt.Errorf("start http client: %w", err)
		}
		c = httpClient
	case "stdio":
		stdioClient, err := mcpclient.NewStdioMCPClient(srv.Command, envSlice(srv.Env), srv.Args...)
		if err != nil {
			return nil, fmt.Errorf("create stdio client: %w", err)
		}
		c = stdioClient
	default:
		return nil, fmt.Errorf("unsupported transport %q", srv.Transport)
	}

	initCtx, cancel := context.WithTimeout(ctx, initializeTimeout)
	defer cancel()

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{
		Name:    clientName,
		Version: "1.0.0",
	}
	if _, err := c.Initialize(initCtx, initReq); err != nil {
		c.Close()
		return nil, fmt.Errorf("initialize: %w", err)
	}
	return c, nil
}

// toFunction converts an MCP tool into the function format of the completion API
func toFunction(t mcp.Tool) types.Function {
	params := json.RawMessage(`{"type":"object","properties":{}}`)
	switch {
	case len(t.RawInputSchema) > 0:
		params = t.RawInputSchema
	case t.InputSchema.Properties != nil || t.InputSchema.Required != nil:
		if data, err := json.Marshal(t.InputSchema); err == nil {
			params = data
		}
	}

	return types.Function{
		Type: "function",
		Function: types.FunctionDefinition{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  params,
		},
	}
}

func convertToolResult(result *mcp.CallToolResult) *types.ToolResult {
	out := &types.ToolResult{IsError: result.IsError}
	for _, c := range result.Content {
		switch v := c.(type) {
		case mcp.TextContent:
			out.Content = append(out.Content, types.ToolContent{Type: "text", Text: v.Text})
		case *mcp.TextContent:
			out.Content = append(out.Content, types.ToolContent{Type: "text", Text: v.Text})
		default:
			data, err := json.Marshal(v)
			if err != nil {
				continue
			}
			out.Content = append(out.Content, types.ToolContent{
				Type: gjson.GetBytes(data, "type").String(),
				Data: json.RawMessage(data),
			})
		}
	}
	return out
}

// normalizeServers fills in a name for unnamed servers
func normalizeServers(servers []config.MCPServerConfig) []config.MCPServerConfig {
	out := make([]config.MCPServerConfig, 0, len(servers))
	for _, srv := range servers {
		if srv.Name == "" {
			srv.Name = srv.URL
			if srv.Name == "" {
				srv.Name = srv.Command
			}
		}
		out = append(out, srv)
	}
	return out
}

// envSlice converts a map of env vars to KEY=VALUE slices
func envSlice(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}
	result := make([]string, 0, len(env))
	for k, v := range env {
		result = append(result, k+"="+v)
	}
	return result
}
