package model

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/zgsm-ai/chat-mcp-gateway/internal/types"
)

// Request outcomes recorded on a ChatLog
const (
	OutcomeCompleted  = "completed"
	OutcomeError      = "error"
	OutcomeClientGone = "client_gone"
)

type ToolCall struct {
	ID           string `json:"id"`
	ToolName     string `json:"tool_name"`
	ToolInput    string `json:"tool_input"`
	ToolOutput   string `json:"tool_output"`
	ResultStatus string `json:"result_status"`
	Latency      int64  `json:"latency"`
	Error        string `json:"error,omitempty"`
}

// ChatLog represents a single gateway request log entry
type ChatLog struct {
	RequestID string    `json:"request_id"`
	ClientID  string    `json:"client_id,omitempty"`
	Caller    string    `json:"caller,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Model     string    `json:"model"`
	Endpoint  string    `json:"endpoint"`

	HistoryLen   int `json:"history_len"`
	PromptTokens int `json:"prompt_tokens"`

	// Completion rounds issued, 1 without tools and 2 with
	Rounds int `json:"rounds"`

	// Latency metrics (in milliseconds)
	FirstCallLatency int64 `json:"first_call_latency_ms"`
	FollowUpLatency  int64 `json:"follow_up_latency_ms"`
	TotalLatency     int64 `json:"total_latency_ms"`

	// Tools
	ToolCalls []ToolCall `json:"tool_calls"`

	MalformedDeltas int `json:"malformed_deltas"`

	// Response information
	ResponseContent string      `json:"response_content,omitempty"`
	Usage           types.Usage `json:"usage,omitempty"`
	Outcome         string      `json:"outcome"`

	// Error information
	Error []map[types.ErrorType]string `json:"error,omitempty"`
}

// NewChatLog starts a log entry for one request
func NewChatLog(requestId string, now time.Time) *ChatLog {
	return &ChatLog{
		RequestID: requestId,
		Timestamp: now,
		ToolCalls: make([]ToolCall, 0),
	}
}

// toStringJSON converts the log entry to indented JSON string
func (cl *ChatLog) toStringJSON(indent string) (string, error) {
	buf := &bytes.Buffer{}
	encoder := json.NewEncoder(buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", indent)
	err := encoder.Encode(cl)
	if err != nil {
		return "", err
	}
	// Remove the newline added by Encode()
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// ToCompressedJSON converts the log entry to JSON string
func (cl *ChatLog) ToCompressedJSON() (string, error) {
	return cl.toStringJSON("")
}

// ToPrettyJSON Using 2 spaces for compact yet readable indentation
func (cl *ChatLog) ToPrettyJSON() (string, error) {
	return cl.toStringJSON("  ")
}

// FromJSON creates a ChatLog from JSON string
func FromJSON(jsonStr string) (*ChatLog, error) {
	var log ChatLog
	err := json.Unmarshal([]byte(jsonStr), &log)
	if err != nil {
		return nil, err
	}
	return &log, nil
}

// AddToolCall records one finished tool invocation
func (cl *ChatLog) AddToolCall(outcome types.ToolCallOutcome, input string, latency time.Duration) {
	output := outcome.Result
	if !outcome.Succeeded() {
		output = ""
	}
	cl.ToolCalls = append(cl.ToolCalls, ToolCall{
		ID:           outcome.ToolCallID,
		ToolName:     outcome.Name,
		ToolInput:    input,
		ToolOutput:   output,
		ResultStatus: string(outcome.Status),
		Latency:      latency.Milliseconds(),
		Error:        outcome.Error,
	})
}

// AddError adds an error entry with type and message to the ChatLog
func (cl *ChatLog) AddError(errorType types.ErrorType, err error) {
	if cl.Error == nil {
		cl.Error = make([]map[types.ErrorType]string, 0)
	}
	cl.Error = append(cl.Error, map[types.ErrorType]string{
		errorType: err.Error(),
	})
}

// ErrorTypes lists the recorded error types in insertion order
func (cl *ChatLog) ErrorTypes() []types.ErrorType {
	out := make([]types.ErrorType, 0, len(cl.Error))
	for _, entry := range cl.Error {
		for t := range entry {
			out = append(out, t)
		}
	}
	return out
}
