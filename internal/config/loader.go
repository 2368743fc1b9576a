package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/zgsm-ai/chat-mcp-gateway/internal/logger"
)

// EnvPrefix is the prefix of environment overrides, e.g. GATEWAY_LLM_ENDPOINT
const EnvPrefix = "GATEWAY"

// envBindings maps config keys to the environment variables that may set them
var envBindings = map[string][]string{
	"port":         {"GATEWAY_PORT", "PORT"},
	"llm.endpoint": {"GATEWAY_LLM_ENDPOINT"},
	"llm.apikey":   {"GATEWAY_LLM_APIKEY", "ARK_API_KEY"},
	"llm.model":    {"GATEWAY_LLM_MODEL", "ENDPOINT_ID"},
	"redis.addr":   {"GATEWAY_REDIS_ADDR"},
	"log.level":    {"GATEWAY_LOG_LEVEL"},
}

// loadConfig loads configuration from the specified file path using viper
func loadConfig(configPath string) (Config, error) {
	var c Config

	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	for key, envs := range envBindings {
		if err := viper.BindEnv(append([]string{key}, envs...)...); err != nil {
			return c, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		return c, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := viper.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	c.ApplyDefaults()

	logger.Info("loaded config",
		zap.String("host", c.Host),
		zap.Int("port", c.Port),
		zap.String("llmEndpoint", c.LLM.Endpoint),
		zap.String("model", c.LLM.Model),
		zap.Int("mcpServers", len(c.MCP.Servers)),
		zap.Bool("nacos", c.Nacos.Enabled),
	)

	return c, nil
}

// MustLoadConfig loads configuration and panics if there's an error
func MustLoadConfig(configPath string) Config {
	c, err := loadConfig(configPath)
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}
	return c
}

// unmarshalYAMLContent parses a YAML document into target
func unmarshalYAMLContent(content string, target interface{}) error {
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(strings.NewReader(content)); err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	if err := v.Unmarshal(target); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return nil
}
