package config

import "time"

// LLMConfig describes the upstream chunked completion API
type LLMConfig struct {
	Endpoint string
	ApiKey   string
	Model    string
	// MaxTokens is sent as max_tokens on every completion call
	MaxTokens int
	// IdleTimeoutSec cancels a completion call that sends nothing for this long
	IdleTimeoutSec int
	// RoundTimeoutSec bounds a whole chat round, both completion calls and all tools
	RoundTimeoutSec int
	Breaker         BreakerConfig
}

// BreakerConfig configures the circuit breaker in front of the completion API
type BreakerConfig struct {
	Enabled     bool
	MaxFailures uint32
	TimeoutSec  int
	IntervalSec int
}

// MCPServerConfig describes one tool provider server
type MCPServerConfig struct {
	Name string
	// Transport is one of sse, http, stdio
	Transport string
	URL       string
	Command   string
	Args      []string
	Env       map[string]string
}

// MCPConfig holds the tool provider configuration. It is also the shape of
// the Nacos document when remote configuration is enabled.
type MCPConfig struct {
	ClientName     string
	CallTimeoutSec int
	Servers        []MCPServerConfig
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// StatusTTLSec is the lifetime of a request's tool status hash
	StatusTTLSec int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string
	// RecordQueueSize is the buffer of the async chat log processor
	RecordQueueSize int
	// RecordDir receives one ndjson file per day when set
	RecordDir string
}

// ChatConfig holds the texts the gateway adds to a chat round
type ChatConfig struct {
	// SystemPrompt, when set, is placed before the client history
	SystemPrompt      string
	ThinkingText      string
	FinalResponseText string
	// DisableThinking suppresses the thinking_update sent after stream_start
	DisableThinking bool
}

// NacosConfig holds the remote configuration center settings
type NacosConfig struct {
	Enabled    bool
	ServerAddr string
	ServerPort int
	GrpcPort   int
	Namespace  string
	Group      string
	// DataId of the MCP server document
	DataId     string
	TimeoutSec int
	LogDir     string
	CacheDir   string
}

// Config holds all service configuration
type Config struct {
	// Server configuration
	Host string
	Port int

	LLM   LLMConfig
	MCP   MCPConfig
	Chat  ChatConfig
	Redis RedisConfig
	Log   LogConfig
	Nacos NacosConfig
}

const (
	DefaultPort            = 3000
	DefaultMaxTokens       = 16000
	DefaultIdleTimeoutSec  = 60
	DefaultRoundTimeoutSec = 300
	DefaultCallTimeoutSec  = 30
	DefaultStatusTTLSec    = 600
	DefaultRecordQueueSize = 1000
	DefaultMCPClientName   = "chat-mcp-gateway"
	DefaultNacosDataId     = "mcp_servers"
)

// ApplyDefaults fills every unset field with its default value
func (c *Config) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = DefaultMaxTokens
	}
	if c.LLM.IdleTimeoutSec == 0 {
		c.LLM.IdleTimeoutSec = DefaultIdleTimeoutSec
	}
	if c.LLM.RoundTimeoutSec == 0 {
		c.LLM.RoundTimeoutSec = DefaultRoundTimeoutSec
	}
	if c.MCP.CallTimeoutSec == 0 {
		c.MCP.CallTimeoutSec = DefaultCallTimeoutSec
	}
	if c.MCP.ClientName == "" {
		c.MCP.ClientName = DefaultMCPClientName
	}
	if c.Redis.StatusTTLSec == 0 {
		c.Redis.StatusTTLSec = DefaultStatusTTLSec
	}
	if c.Log.RecordQueueSize == 0 {
		c.Log.RecordQueueSize = DefaultRecordQueueSize
	}
	if c.Chat.ThinkingText == "" {
		c.Chat.ThinkingText = "Analyzing your question..."
	}
	if c.Chat.FinalResponseText == "" {
		c.Chat.FinalResponseText = "Tools finished, generating the final response..."
	}
	if c.Nacos.Enabled && c.Nacos.DataId == "" {
		c.Nacos.DataId = DefaultNacosDataId
	}
	if c.Nacos.Group == "" {
		c.Nacos.Group = "DEFAULT_GROUP"
	}
	if c.Nacos.TimeoutSec == 0 {
		c.Nacos.TimeoutSec = 5
	}
}

func (c LLMConfig) IdleTimeout() time.Duration {
	return time.Duration(c.IdleTimeoutSec) * time.Second
}

func (c LLMConfig) RoundTimeout() time.Duration {
	return time.Duration(c.RoundTimeoutSec) * time.Second
}

func (c MCPConfig) CallTimeout() time.Duration {
	return time.Duration(c.CallTimeoutSec) * time.Second
}

func (c RedisConfig) StatusTTL() time.Duration {
	return time.Duration(c.StatusTTLSec) * time.Second
}
