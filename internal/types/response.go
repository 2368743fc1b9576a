package types

// ToolCallInfo represents tool call information in an assistant message
type ToolCallInfo struct {
	ID       string           `json:"id,omitempty"`
	Type     string           `json:"type,omitempty"`
	Function ToolCallFunction `json:"function,omitempty"`
}

// ToolCallFunction represents the function details in a tool call
type ToolCallFunction struct {
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

// ToolContent is one content item returned by a tool provider
type ToolContent struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
	Data any    `json:"data,omitempty"`
}

// ToolResult is the raw provider answer for one invocation
type ToolResult struct {
	Content []ToolContent `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

// ChatResponse is the aggregated answer of the non-streaming chat endpoint
type ChatResponse struct {
	Response  string            `json:"response"`
	ToolCalls []ToolCallOutcome `json:"toolCalls"`
}

// CallToolResponse is the answer of a direct tool invocation
type CallToolResponse struct {
	Result string      `json:"result"`
	Raw    *ToolResult `json:"raw,omitempty"`
}

// ToolsResponse lists the advertised tool set
type ToolsResponse struct {
	Tools []Function `json:"tools"`
}

// ToolStatusResponse defines tool status response structure
type ToolStatusResponse struct {
	Code    int            `json:"code"`
	Data    ToolStatusData `json:"data"`
	Message string         `json:"message"`
}

// ToolStatusData defines tool status data structure
type ToolStatusData struct {
	Tools map[string]ToolStatusDetail `json:"tools,omitempty"`
}

// ToolStatusDetail defines tool status detail structure
type ToolStatusDetail struct {
	Status string      `json:"status"`
	Result interface{} `json:"result,omitempty"`
}
