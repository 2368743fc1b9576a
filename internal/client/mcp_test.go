package client

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/zgsm-ai/chat-mcp-gateway/internal/config"
)

type fakeMCPClient struct {
	tools   []mcp.Tool
	listErr error
	calls   []mcp.CallToolRequest
	result  *mcp.CallToolResult
	callErr error
	closed  bool
}

func (f *fakeMCPClient) ListTools(ctx context.Context, request mcp.ListToolsRequest) (*mcp.ListToolsResult, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return &mcp.ListToolsResult{Tools: f.tools}, nil
}

func (f *fakeMCPClient) CallTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	f.calls = append(f.calls, request)
	return f.result, f.callErr
}

func (f *fakeMCPClient) Close() error {
	f.closed = true
	return nil
}

func gjsonRaw(data []byte, path string) string {
	return gjson.GetBytes(data, path).Raw
}

func newFakeProvider(clients map[string]*fakeMCPClient, servers ...string) (*MCPToolProvider, *int) {
	dials := 0
	var cfg config.MCPConfig
	cfg.CallTimeoutSec = 5
	for _, name := range servers {
		cfg.Servers = append(cfg.Servers, config.MCPServerConfig{Name: name, Transport: "sse", URL: "http://" + name})
	}
	p := newMCPToolProvider(cfg, func(ctx context.Context, srv config.MCPServerConfig, clientName string) (mcpClient, error) {
		dials++
		c, ok := clients[srv.Name]
		if !ok {
			return nil, errors.New("connection refused")
		}
		return c, nil
	})
	return p, &dials
}

func TestMCPToolProvider_ListTools(t *testing.T) {
	shop := &fakeMCPClient{tools: []mcp.Tool{
		mcp.NewTool("get_product", mcp.WithDescription("Look up a product"), mcp.WithString("id", mcp.Required())),
		mcp.NewTool("calculate"),
	}}
	calc := &fakeMCPClient{tools: []mcp.Tool{mcp.NewTool("calculate")}}

	p, dials := newFakeProvider(map[string]*fakeMCPClient{"shop": shop, "calc": calc}, "shop", "calc", "down")
	tools, err := p.ListTools(context.Background())
	require.NoError(t, err)

	require.Len(t, tools, 2)
	assert.Equal(t, "get_product", tools[0].Function.Name)
	assert.Equal(t, "function", tools[0].Type)
	assert.Equal(t, "Look up a product", tools[0].Function.Description)
	assert.JSONEq(t, `["id"]`, gjsonRaw(tools[0].Function.Parameters, "required"))
	assert.Equal(t, "calculate", tools[1].Function.Name)

	// sessions are reused
	_, err = p.ListTools(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, *dials)

	p.Close()
	assert.True(t, shop.closed)
	assert.True(t, calc.closed)
}

func TestMCPToolProvider_AllServersFail(t *testing.T) {
	p, _ := newFakeProvider(map[string]*fakeMCPClient{"a": {listErr: errors.New("boom")}}, "a", "b")
	_, err := p.ListTools(context.Background())
	assert.ErrorContains(t, err, "all mcp servers failed discovery")
}

func TestMCPToolProvider_CallTool(t *testing.T) {
	shop := &fakeMCPClient{
		tools: []mcp.Tool{mcp.NewTool("calculate")},
		result: &mcp.CallToolResult{Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: "计算结果: 2 add 3 = 5"},
			mcp.ImageContent{Type: "image", Data: "aGk=", MIMEType: "image/png"},
		}},
	}
	p, _ := newFakeProvider(map[string]*fakeMCPClient{"shop": shop}, "shop")

	// routes are discovered on demand
	result, err := p.CallTool(context.Background(), "calculate", map[string]any{"a": 2})
	require.NoError(t, err)

	require.Len(t, shop.calls, 1)
	assert.Equal(t, "calculate", shop.calls[0].Params.Name)
	assert.Equal(t, map[string]any{"a": 2}, shop.calls[0].Params.Arguments)

	require.Len(t, result.Content, 2)
	assert.Equal(t, "text", result.Content[0].Type)
	assert.Equal(t, "计算结果: 2 add 3 = 5", result.Content[0].Text)
	assert.Equal(t, "image", result.Content[1].Type)
	assert.False(t, result.IsError)
}

func TestMCPToolProvider_CallUnknownTool(t *testing.T) {
	p, _ := newFakeProvider(map[string]*fakeMCPClient{"shop": {}}, "shop")
	_, err := p.CallTool(context.Background(), "missing", nil)
	assert.ErrorIs(t, err, ErrUnknownTool)
}

func TestMCPToolProvider_UpdateServers(t *testing.T) {
	a := &fakeMCPClient{tools: []mcp.Tool{mcp.NewTool("x")}}
	b := &fakeMCPClient{tools: []mcp.Tool{mcp.NewTool("y")}}
	p, _ := newFakeProvider(map[string]*fakeMCPClient{"a": a, "b": b}, "a", "b")

	_, err := p.ListTools(context.Background())
	require.NoError(t, err)

	p.UpdateServers([]config.MCPServerConfig{{Name: "b", Transport: "sse", URL: "http://b"}})
	assert.True(t, a.closed)
	assert.False(t, b.closed)

	tools, err := p.ListTools(context.Background())
	require.NoError(t, err)
	require.Len(t, tools, 1)
	assert.Equal(t, "y", tools[0].Function.Name)
}

func TestMCPToolProvider_SlowReconnectDoesNotBlockOtherServers(t *testing.T) {
	fast := &fakeMCPClient{
		tools:  []mcp.Tool{mcp.NewTool("fast_tool")},
		result: &mcp.CallToolResult{Content: []mcp.Content{mcp.TextContent{Type: "text", Text: "ok"}}},
	}
	slow := &fakeMCPClient{
		tools:  []mcp.Tool{mcp.NewTool("slow_tool")},
		result: &mcp.CallToolResult{},
	}

	var slowDials int32
	entered := make(chan struct{})
	release := make(chan struct{})
	cfg := config.MCPConfig{CallTimeoutSec: 5, Servers: []config.MCPServerConfig{
		{Name: "fast", Transport: "sse", URL: "http://fast"},
		{Name: "slow", Transport: "sse", URL: "http://slow"},
	}}
	p := newMCPToolProvider(cfg, func(ctx context.Context, srv config.MCPServerConfig, clientName string) (mcpClient, error) {
		if srv.Name == "fast" {
			return fast, nil
		}
		if atomic.AddInt32(&slowDials, 1) > 1 {
			close(entered)
			<-release
		}
		return slow, nil
	})
	defer p.Close()

	_, err := p.ListTools(context.Background())
	require.NoError(t, err)

	// force a reconnect of the slow server
	require.True(t, p.sessions.Close("slow"))
	done := make(chan error, 1)
	go func() {
		_, err := p.CallTool(context.Background(), "slow_tool", nil)
		done <- err
	}()
	<-entered

	start := time.Now()
	result, err := p.CallTool(context.Background(), "fast_tool", nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", result.Content[0].Text)
	assert.Less(t, time.Since(start), 500*time.Millisecond)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, int32(2), atomic.LoadInt32(&slowDials))
}
