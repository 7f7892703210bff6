// Package store defines the narrow persistence interfaces the HTTP layer
// needs: agent configurations and conversation history.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/ragstack/ragstack/pkg/llm/types"
)

// ErrNotFound is returned when a record does not exist
var ErrNotFound = errors.New("not found")

// Agent is a named configuration bundling a system prompt, a knowledge scope
// and a provider selection.
type Agent struct {
	ID           string `json:"id" bson:"id"`
	Name         string `json:"name" bson:"name"`
	SystemPrompt string `json:"system_prompt" bson:"system_prompt"`
	Provider     string `json:"provider" bson:"provider"`
	Model        string `json:"model,omitempty" bson:"model,omitempty"`
	APIKey       string `json:"-" bson:"api_key,omitempty"`
	ToolsEnabled bool   `json:"tools_enabled" bson:"tools_enabled"`
}

// AgentStore resolves agent configurations by ID.
type AgentStore interface {
	GetAgent(ctx context.Context, id string) (*Agent, error)
}

// Conversation is a persisted message history for one agent/user pair.
type Conversation struct {
	ID        string          `json:"id" bson:"id"`
	AgentID   string          `json:"agent_id" bson:"agent_id"`
	UserID    string          `json:"user_id" bson:"user_id"`
	Messages  []types.Message `json:"messages" bson:"messages"`
	CreatedAt time.Time       `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" bson:"updated_at"`
}

// ConversationStore persists and retrieves conversations.
type ConversationStore interface {
	GetConversation(ctx context.Context, id string) (*Conversation, error)
	SaveConversation(ctx context.Context, conversation *Conversation) error
	DeleteConversation(ctx context.Context, id string) error
}
