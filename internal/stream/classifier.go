package stream

import (
	"github.com/tidwall/gjson"

	"github.com/zgsm-ai/chat-mcp-gateway/internal/types"
)

// ToolCallFragment is one piece of a streamed tool call. Fragments with the
// same Index belong to the same call.
type ToolCallFragment struct {
	Index          int
	ID             string
	FunctionName   string
	ArgumentsChunk string
}

// DeltaRecord is the parsed form of one completion stream payload
type DeltaRecord struct {
	ReasoningText     string
	ContentText       string
	ToolCallFragments []ToolCallFragment
	IsTerminal        bool

	FinishReason string
	Usage        *types.Usage
}

// HasText reports whether the record carries reasoning or answer text
func (r DeltaRecord) HasText() bool {
	return r.ReasoningText != "" || r.ContentText != ""
}

// Classify extracts the delta fields of a `{choices:[{delta:{...}}]}` payload.
// Every field is optional; a payload without choices[0].delta yields an
// empty record.
func Classify(payload string) DeltaRecord {
	root := gjson.Parse(payload)

	var rec DeltaRecord
	if usage := root.Get("usage"); usage.IsObject() {
		rec.Usage = &types.Usage{
			PromptTokens:     int(usage.Get("prompt_tokens").Int()),
			CompletionTokens: int(usage.Get("completion_tokens").Int()),
			TotalTokens:      int(usage.Get("total_tokens").Int()),
		}
	}

	choice := root.Get("choices.0")
	if choice.IsObject() {
		rec.FinishReason = stringField(choice, "finish_reason")
	}

	delta := choice.Get("delta")
	if !delta.IsObject() {
		return rec
	}

	rec.ReasoningText = stringField(delta, "reasoning_content")
	rec.ContentText = stringField(delta, "content")

	calls := delta.Get("tool_calls")
	if !calls.IsArray() {
		return rec
	}
	for pos, call := range calls.Array() {
		if !call.IsObject() {
			continue
		}
		index := pos
		if v := call.Get("index"); v.Type == gjson.Number {
			index = int(v.Int())
		}
		rec.ToolCallFragments = append(rec.ToolCallFragments, ToolCallFragment{
			Index:          index,
			ID:             stringField(call, "id"),
			FunctionName:   stringField(call, "function.name"),
			ArgumentsChunk: stringField(call, "function.arguments"),
		})
	}
	return rec
}

// stringField returns the value at path when it is a JSON string.
func stringField(obj gjson.Result, path string) string {
	v := obj.Get(path)
	if v.Type != gjson.String {
		return ""
	}
	return v.Str
}
