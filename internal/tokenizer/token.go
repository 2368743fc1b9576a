package tokenizer

import (
	"github.com/pkoukk/tiktoken-go"
	"go.uber.org/zap"

	"github.com/zgsm-ai/chat-mcp-gateway/internal/logger"
	"github.com/zgsm-ai/chat-mcp-gateway/internal/types"
)

// per-message and per-conversation overhead of the chat format
const (
	messageOverhead      = 3
	conversationOverhead = 3
)

// TokenCounter provides token counting functionality
type TokenCounter struct {
	encoder *tiktoken.Tiktoken
}

// NewTokenCounter creates a counter on the cl100k_base encoding
func NewTokenCounter() (*TokenCounter, error) {
	encoder, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, err
	}
	return &TokenCounter{encoder: encoder}, nil
}

// CountTokens counts tokens in a text string. A nil counter or one without an
// encoder falls back to EstimateTokens.
func (tc *TokenCounter) CountTokens(text string) int {
	if tc == nil || tc.encoder == nil {
		return EstimateTokens(text)
	}
	return len(tc.encoder.Encode(text, nil, nil))
}

// CountMessagesTokens counts the prompt tokens of a transcript
func (tc *TokenCounter) CountMessagesTokens(messages []types.Message) int {
	total := conversationOverhead
	for _, msg := range messages {
		total += tc.CountTokens(msg.Role) + tc.CountTokens(msg.Content) + messageOverhead
		for _, call := range msg.ToolCalls {
			total += tc.CountTokens(call.Function.Name) + tc.CountTokens(call.Function.Arguments)
		}
	}
	return total
}

// Usage estimates token usage for a completion call whose stream carried none
func (tc *TokenCounter) Usage(prompt []types.Message, completion string) types.Usage {
	promptTokens := tc.CountMessagesTokens(prompt)
	completionTokens := tc.CountTokens(completion)
	logger.Debug("estimated usage",
		zap.Int("promptTokens", promptTokens),
		zap.Int("completionTokens", completionTokens))
	return types.Usage{
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		TotalTokens:      promptTokens + completionTokens,
	}
}

// EstimateTokens is a rough estimate used when no encoder is available
func EstimateTokens(text string) int {
	return (len(text) + 3) / 4
}
