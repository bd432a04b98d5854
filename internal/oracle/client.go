// Package oracle abstracts the tool-capable decision model behind the turn
// engine. Implementations translate the neutral message/tool types here into a
// vendor's wire format and back.
package oracle

import "context"

// Roles in a decision conversation. ToolRequest and ToolResult roles represent
// the transient tool exchange inside one turn.
const (
	RoleUser        = "user"
	RoleAssistant   = "assistant"
	RoleToolRequest = "tool_request"
	RoleToolResult  = "tool_result"
)

// DecisionKind tells the caller what the model chose to do.
type DecisionKind int

const (
	// DecisionFinalText means the model produced the reply directly.
	DecisionFinalText DecisionKind = iota
	// DecisionToolRequests means the model wants tools executed first.
	DecisionToolRequests
)

// ToolRequest is a model-issued call to a named tool.
type ToolRequest struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// ToolResult carries the outcome of one executed tool request back to the
// model. ID must match the originating request.
type ToolResult struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Content string `json:"content"`
}

// Message is one entry in the conversation handed to the model.
type Message struct {
	Role     string        `json:"role"`
	Content  string        `json:"content,omitempty"`
	Requests []ToolRequest `json:"requests,omitempty"`
	Result   *ToolResult   `json:"result,omitempty"`
}

// ToolSpec declares a tool the model may call. InputSchema is a JSON Schema
// object.
type ToolSpec struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// Decision is the model's answer: either final text or a batch of tool
// requests to execute.
type Decision struct {
	Kind     DecisionKind
	Text     string
	Requests []ToolRequest
}

// DecideRequest asks the model what to do next given the conversation so far.
type DecideRequest struct {
	System      string
	Messages    []Message
	Tools       []ToolSpec
	MaxTokens   int32
	Temperature float32
}

// SynthesizeRequest asks the model for a plain-text reply with no tools
// offered, typically after tool results have been folded into Messages.
type SynthesizeRequest struct {
	System      string
	Messages    []Message
	MaxTokens   int32
	Temperature float32
}

// Client is implemented by each decision-model backend.
type Client interface {
	Decide(ctx context.Context, req DecideRequest) (Decision, error)
	Synthesize(ctx context.Context, req SynthesizeRequest) (string, error)
}
