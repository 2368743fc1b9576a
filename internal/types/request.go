package types

import "encoding/json"

// Message is one transcript entry sent to the completion API
type Message struct {
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	Name       string         `json:"name,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
	ToolCalls  []ToolCallInfo `json:"tool_calls,omitempty"`
}

// ChatRequest is the inbound client request
type ChatRequest struct {
	Message string    `json:"message"`
	History []Message `json:"history"`
}

// CompletionRequest is the body posted to the upstream completion API
type CompletionRequest struct {
	Model     string     `json:"model"`
	Stream    bool       `json:"stream"`
	Messages  []Message  `json:"messages"`
	Tools     []Function `json:"tools,omitempty"`
	MaxTokens int        `json:"max_tokens,omitempty"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Function is a tool advertised to the model in OpenAI function format.
type Function struct {
	Type     string             `json:"type"`
	Function FunctionDefinition `json:"function"`
}

type FunctionDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// CallToolRequest is the body of a direct tool invocation
type CallToolRequest struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}
