package functions

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/zgsm-ai/chat-mcp-gateway/internal/types"
)

// ParseArguments parses the argument text of a tool call. Empty or
// whitespace-only text and a JSON null mean no arguments.
func ParseArguments(text string) (map[string]any, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return map[string]any{}, nil
	}

	var args map[string]any
	if err := json.Unmarshal([]byte(trimmed), &args); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArgumentParse, err)
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}

// FormatResult renders provider content as text: text items joined by
// newlines, other items as their JSON form.
func FormatResult(result *types.ToolResult) string {
	if result == nil {
		return ""
	}

	parts := make([]string, 0, len(result.Content))
	for _, c := range result.Content {
		if c.Type == "text" {
			parts = append(parts, c.Text)
			continue
		}
		if raw, ok := c.Data.(json.RawMessage); ok {
			parts = append(parts, string(raw))
			continue
		}
		if data, err := json.Marshal(c); err == nil {
			parts = append(parts, string(data))
		}
	}
	return strings.Join(parts, "\n")
}

// toolMessage is the transcript entry summarizing one outcome
func toolMessage(outcome types.ToolCallOutcome) types.Message {
	content := outcome.Result
	if !outcome.Succeeded() {
		data, _ := json.Marshal(map[string]string{"error": outcome.Error})
		content = string(data)
	}
	return types.Message{
		Role:       types.RoleTool,
		ToolCallID: outcome.ToolCallID,
		Name:       outcome.Name,
		Content:    content,
	}
}
