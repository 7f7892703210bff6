package types

import "time"

// Message is one turn of a conversation in the canonical, provider-agnostic shape.
type Message struct {
	Role        Role         `json:"role" bson:"role"`
	Content     string       `json:"content" bson:"content"`
	ToolCalls   []ToolCall   `json:"tool_calls,omitempty" bson:"tool_calls,omitempty"`
	ToolResults []ToolResult `json:"tool_results,omitempty" bson:"tool_results,omitempty"`
	Timestamp   time.Time    `json:"timestamp" bson:"timestamp"`
}

// Role identifies the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// ToolCall is a tool invocation requested by a provider response.
type ToolCall struct {
	ID        string         `json:"id" bson:"id"`
	Name      string         `json:"name" bson:"name"`
	Arguments map[string]any `json:"arguments" bson:"arguments"`
}

// ToolResult carries an executed tool's output back to the provider as part
// of a tool-role message. Content is the JSON encoding of the result payload
// (or of the error string when IsError is set).
type ToolResult struct {
	ToolCallID string `json:"tool_call_id" bson:"tool_call_id"`
	Name       string `json:"name" bson:"name"`
	Content    string `json:"content" bson:"content"`
	IsError    bool   `json:"is_error,omitempty" bson:"is_error,omitempty"`
}
