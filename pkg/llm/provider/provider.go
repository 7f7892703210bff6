// Package provider defines the interface every LLM provider adapter
// implements and the streaming primitive shared by all adapters.
package provider

import (
	"context"

	"github.com/ragstack/ragstack/pkg/llm/types"
)

// Model is the bilateral contract between the router and a provider adapter.
// Generate performs one blocking round trip; Stream performs the same round
// trip yielding text fragments as they arrive.
type Model interface {
	Generate(ctx context.Context, req GenerateRequest) (*types.GenerateResponse, error)

	Stream(ctx context.Context, req GenerateRequest) (*Stream, error)

	// ID returns the unique identifier for this model
	ID() string
}

// GenerateRequest contains all parameters for one provider round trip.
type GenerateRequest struct {
	// Messages is the conversation history, ending with the new user turn
	Messages []types.Message `json:"messages"`

	// System is an optional system prompt
	System string `json:"system,omitempty"`

	// Tools is the list of function declarations exposed to the model.
	// Adapters must not attach an empty tool list to the wire request.
	Tools []types.ToolDecl `json:"tools,omitempty"`

	// Temperature controls randomness
	Temperature float32 `json:"temperature,omitempty"`

	// MaxTokens is the maximum number of tokens to generate
	MaxTokens int `json:"max_tokens,omitempty"`
}
