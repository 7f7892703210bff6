package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToolCallResult_Content(t *testing.T) {
	tests := []struct {
		name   string
		result ToolCallResult
		want   string
	}{
		{
			name:   "map result",
			result: ToolCallResult{Result: map[string]any{"timezone": "UTC"}},
			want:   `{"timezone":"UTC"}`,
		},
		{
			name:   "string result",
			result: ToolCallResult{Result: "plain"},
			want:   `"plain"`,
		},
		{
			name:   "nil result",
			result: ToolCallResult{},
			want:   `null`,
		},
		{
			name:   "error wins over result",
			result: ToolCallResult{Result: "ignored", Error: "Tool not found: x"},
			want:   `"Tool not found: x"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.JSONEq(t, tt.want, tt.result.Content())
		})
	}
}

func TestToolCallResult_UnserializableResult(t *testing.T) {
	result := ToolCallResult{Result: make(chan int)}
	assert.Equal(t, `"unserializable tool result"`, result.Content())
}

func TestToolCallResult_IsError(t *testing.T) {
	assert.False(t, ToolCallResult{Result: "ok"}.IsError())
	assert.True(t, ToolCallResult{Error: "boom"}.IsError())
}

func TestUsage_Add(t *testing.T) {
	total := Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15, CachedInputTokens: 2}.
		Add(Usage{PromptTokens: 20, CompletionTokens: 8, TotalTokens: 28, CachedInputTokens: 1})

	assert.Equal(t, Usage{
		PromptTokens:      30,
		CompletionTokens:  13,
		TotalTokens:       43,
		CachedInputTokens: 3,
	}, total)
}
