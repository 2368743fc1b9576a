package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zgsm-ai/chat-mcp-gateway/internal/types"
)

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("abc"))
	assert.Equal(t, 2, EstimateTokens("abcdefgh"))
}

func TestNilCounterFallsBack(t *testing.T) {
	var tc *TokenCounter
	messages := []types.Message{{Role: "user", Content: "abcdefgh"}}

	// 3 + (1 + 2 + 3)
	assert.Equal(t, 9, tc.CountMessagesTokens(messages))

	usage := tc.Usage(messages, "abcd")
	assert.Equal(t, 9, usage.PromptTokens)
	assert.Equal(t, 1, usage.CompletionTokens)
	assert.Equal(t, 10, usage.TotalTokens)
}
