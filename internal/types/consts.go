package types

const (
	// RoleSystem System role message
	RoleSystem = "system"

	// RoleUser User role message
	RoleUser = "user"

	// RoleTool Tool role message
	RoleTool = "tool"

	// RoleAssistant AI assistant role message
	RoleAssistant = "assistant"
)

const (
	// Request Headers
	HeaderRequestId = "x-request-id"
	HeaderCaller    = "x-caller"
	HeaderClientId  = "zgsm-client-id"

	// Response Headers
	HeaderContentType = "Content-Type"
)

// ContentTypeNDJSON is the media type of the client-facing event stream
const ContentTypeNDJSON = "application/x-ndjson"

// ToolStatus defines the status of the tool
type ToolStatus string

const (
	ToolStatusRunning ToolStatus = "running"
	ToolStatusSuccess ToolStatus = "success"
	ToolStatusFailed  ToolStatus = "failed"
	ToolStatusSkipped ToolStatus = "skipped"
)

// Redis key prefix for tool status
const ToolStatusRedisKeyPrefix = "tool_status:"

// Default progress texts surfaced to the client
const (
	ThinkingAnalyzing       = "Analyzing your question..."
	FinalResponseGenerating = "Tools finished, generating the final response..."
)
