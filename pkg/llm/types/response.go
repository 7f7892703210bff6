package types

// GenerateResponse is the canonical result of one provider round trip.
type GenerateResponse struct {
	Content      string     `json:"content"`
	ToolCalls    []ToolCall `json:"tool_calls,omitempty"`
	Usage        Usage      `json:"usage"`
	FinishReason string     `json:"finish_reason"`
	Model        string     `json:"model"`
}

// FinishReason constants
const (
	FinishReasonStop          = "stop"
	FinishReasonLength        = "length"
	FinishReasonToolCalls     = "tool_calls"
	FinishReasonContentFilter = "content_filter"
	FinishReasonError         = "error"
)

// ChatResult is the final outcome of a chat turn, after any tool round trips.
// ToolCalls and ToolResults, when present, correspond by index.
type ChatResult struct {
	Content     string           `json:"content"`
	ToolCalls   []ToolCall       `json:"tool_calls,omitempty"`
	ToolResults []ToolCallResult `json:"tool_results,omitempty"`
	Usage       Usage            `json:"usage"`
	Model       string           `json:"model,omitempty"`
}
