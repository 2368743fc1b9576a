package types

// EventType names one variant of the client-facing event protocol
type EventType string

const (
	EventStreamStart        EventType = "stream_start"
	EventThinkingUpdate     EventType = "thinking_update"
	EventTextDelta          EventType = "text_delta"
	EventToolCallRequest    EventType = "tool_call_request"
	EventToolCallResult     EventType = "tool_call_result"
	EventFinalResponseStart EventType = "final_response_start"
	EventStreamEnd          EventType = "stream_end"
	EventError              EventType = "error"
)

// GatewayEvent is one line of the ndjson stream written to the client.
// Content carries text payloads, Data structured ones and Message the error text.
type GatewayEvent struct {
	Type    EventType `json:"type"`
	Content string    `json:"content,omitempty"`
	Message string    `json:"message,omitempty"`
	Data    any       `json:"data,omitempty"`
}

// IsTerminal reports whether the event closes a request's event sequence
func (e GatewayEvent) IsTerminal() bool {
	return e.Type == EventStreamEnd || e.Type == EventError
}

// ToolCallAnnouncement is the payload of a tool_call_request event.
// ArgumentsStr may still be incomplete JSON when the event is sent.
type ToolCallAnnouncement struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ArgumentsStr string `json:"arguments_str"`
}

// ToolCallOutcome is the result of one tool call, success or failure.
// Args holds the parsed arguments, or the raw text when parsing failed.
type ToolCallOutcome struct {
	ToolCallID string     `json:"tool_call_id"`
	Name       string     `json:"name"`
	Args       any        `json:"args"`
	Status     ToolStatus `json:"status"`
	Result     string     `json:"result,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// Succeeded reports whether the outcome is a Success variant
func (o ToolCallOutcome) Succeeded() bool {
	return o.Status == ToolStatusSuccess
}

func NewStreamStartEvent() GatewayEvent {
	return GatewayEvent{Type: EventStreamStart}
}

func NewThinkingEvent(text string) GatewayEvent {
	return GatewayEvent{Type: EventThinkingUpdate, Content: text}
}

func NewTextDeltaEvent(text string) GatewayEvent {
	return GatewayEvent{Type: EventTextDelta, Content: text}
}

func NewToolCallRequestEvent(call ToolCallAnnouncement) GatewayEvent {
	return GatewayEvent{Type: EventToolCallRequest, Data: call}
}

func NewToolCallResultEvent(outcome ToolCallOutcome) GatewayEvent {
	return GatewayEvent{Type: EventToolCallResult, Data: outcome}
}

func NewFinalResponseStartEvent(text string) GatewayEvent {
	return GatewayEvent{Type: EventFinalResponseStart, Content: text}
}

func NewStreamEndEvent() GatewayEvent {
	return GatewayEvent{Type: EventStreamEnd}
}

func NewErrorEvent(message string) GatewayEvent {
	return GatewayEvent{Type: EventError, Message: message}
}
