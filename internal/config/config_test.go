package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nacos-group/nacos-sdk-go/v2/vo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
host: 0.0.0.0
port: 8080
llm:
  endpoint: http://llm.local/v1/chat/completions
  model: test-model
  maxTokens: 2048
mcp:
  callTimeoutSec: 10
  servers:
    - name: shop
      transport: sse
      url: http://mcp.local/sse
    - name: calc
      transport: stdio
      command: node
      args: ["calc.js"]
      env:
        MODE: test
`

func TestMustLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gateway.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))
	t.Setenv("ARK_API_KEY", "secret")

	c := MustLoadConfig(path)

	assert.Equal(t, 8080, c.Port)
	assert.Equal(t, "test-model", c.LLM.Model)
	assert.Equal(t, 2048, c.LLM.MaxTokens)
	assert.Equal(t, "secret", c.LLM.ApiKey)
	assert.Equal(t, DefaultIdleTimeoutSec, c.LLM.IdleTimeoutSec)
	require.Len(t, c.MCP.Servers, 2)
	assert.Equal(t, "sse", c.MCP.Servers[0].Transport)
	assert.Equal(t, []string{"calc.js"}, c.MCP.Servers[1].Args)
	assert.Equal(t, "test", c.MCP.Servers[1].Env["mode"])
}

func TestMustLoadConfig_MissingFile(t *testing.T) {
	assert.Panics(t, func() {
		MustLoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	})
}

func TestApplyDefaults(t *testing.T) {
	var c Config
	c.ApplyDefaults()

	assert.Equal(t, DefaultPort, c.Port)
	assert.Equal(t, DefaultMaxTokens, c.LLM.MaxTokens)
	assert.Equal(t, DefaultCallTimeoutSec, c.MCP.CallTimeoutSec)
	assert.Equal(t, DefaultMCPClientName, c.MCP.ClientName)
	assert.NotEmpty(t, c.Chat.ThinkingText)
	assert.False(t, c.Chat.DisableThinking)
	assert.Empty(t, c.Nacos.DataId)

	c = Config{Chat: ChatConfig{DisableThinking: true}}
	c.ApplyDefaults()
	assert.True(t, c.Chat.DisableThinking)

	c = Config{Nacos: NacosConfig{Enabled: true}}
	c.ApplyDefaults()
	assert.Equal(t, DefaultNacosDataId, c.Nacos.DataId)
}

type fakeSource struct {
	content   string
	listeners map[string]vo.ConfigParam
	cancelled []string
	closed    bool
}

func (f *fakeSource) GetConfig(param vo.ConfigParam) (string, error) {
	return f.content, nil
}

func (f *fakeSource) ListenConfig(param vo.ConfigParam) error {
	if f.listeners == nil {
		f.listeners = make(map[string]vo.ConfigParam)
	}
	f.listeners[param.DataId] = param
	return nil
}

func (f *fakeSource) CancelListenConfig(param vo.ConfigParam) error {
	f.cancelled = append(f.cancelled, param.DataId)
	return nil
}

func (f *fakeSource) CloseClient() {
	f.closed = true
}

func TestNacosLoader_LoadAndWatch(t *testing.T) {
	source := &fakeSource{content: "servers:\n  - name: shop\n    transport: http\n    url: http://a\n"}
	loader := newNacosLoader(NacosConfig{Group: "DEFAULT_GROUP"}, source)

	var initial MCPConfig
	require.NoError(t, loader.LoadConfig("mcp_servers", &initial))
	require.Len(t, initial.Servers, 1)
	assert.Equal(t, "http", initial.Servers[0].Transport)

	var applied []*MCPConfig
	handler := NewTypedConfigHandler("mcp_servers", func(c *MCPConfig) {
		applied = append(applied, c)
	})
	require.NoError(t, loader.RegisterConfigHandler(handler))
	assert.Error(t, loader.RegisterConfigHandler(handler))
	require.NoError(t, loader.StartWatching())

	listener, ok := source.listeners["mcp_servers"]
	require.True(t, ok)
	assert.Equal(t, "DEFAULT_GROUP", listener.Group)

	listener.OnChange("ns", "DEFAULT_GROUP", "mcp_servers", "servers:\n  - name: a\n  - name: b\n")
	require.Len(t, applied, 1)
	assert.Len(t, applied[0].Servers, 2)
	assert.Same(t, applied[0], handler.Current())

	// a broken document keeps the previous one
	listener.OnChange("ns", "DEFAULT_GROUP", "mcp_servers", "servers: [")
	assert.Len(t, applied, 1)
	assert.Len(t, handler.Current().Servers, 2)

	loader.Close()
	assert.Equal(t, []string{"mcp_servers"}, source.cancelled)
	assert.True(t, source.closed)
}

func TestNacosLoader_EmptyDocument(t *testing.T) {
	loader := newNacosLoader(NacosConfig{}, &fakeSource{})
	var c MCPConfig
	assert.Error(t, loader.LoadConfig("mcp_servers", &c))
}
