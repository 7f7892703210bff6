package types

import "encoding/json"

// ToolDecl is the provider-agnostic function declaration handed to an adapter.
// Schema is a JSON-schema object ("type": "object", "properties", "required")
// that each adapter translates to its vendor's native format.
type ToolDecl struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Schema      map[string]any `json:"schema"`
}

// ToolCallResult is the outcome of executing one ToolCall. Exactly one of
// Result and Error is populated; a failed call never surfaces as a Go error.
type ToolCallResult struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Result any    `json:"result"`
	Error  string `json:"error,omitempty"`
}

// Content renders the result (or the error message when present) as JSON for
// the tool-result turn sent back to the provider.
func (r ToolCallResult) Content() string {
	var payload any = r.Result
	if r.Error != "" {
		payload = r.Error
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return `"unserializable tool result"`
	}

	return string(data)
}

// IsError reports whether the call failed.
func (r ToolCallResult) IsError() bool {
	return r.Error != ""
}
