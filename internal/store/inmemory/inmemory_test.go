package inmemory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragstack/ragstack/internal/store"
	"github.com/ragstack/ragstack/pkg/llm/types"
)

func TestConversationStore_SaveAndGet(t *testing.T) {
	s := NewConversationStore()

	conversation := &store.Conversation{
		ID:      "conv-1",
		AgentID: "agent-a",
		UserID:  "user-1",
		Messages: []types.Message{
			{Role: types.RoleUser, Content: "Hi"},
		},
	}

	require.NoError(t, s.SaveConversation(context.Background(), conversation))

	got, err := s.GetConversation(context.Background(), "conv-1")
	require.NoError(t, err)

	assert.Equal(t, "agent-a", got.AgentID)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "Hi", got.Messages[0].Content)
	assert.False(t, got.CreatedAt.IsZero())
	assert.False(t, got.UpdatedAt.IsZero())
}

func TestConversationStore_GetNotFound(t *testing.T) {
	s := NewConversationStore()

	_, err := s.GetConversation(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestConversationStore_SaveRequiresID(t *testing.T) {
	s := NewConversationStore()

	err := s.SaveConversation(context.Background(), &store.Conversation{})
	assert.Error(t, err)
}

func TestConversationStore_StoresCopies(t *testing.T) {
	s := NewConversationStore()

	conversation := &store.Conversation{
		ID:       "conv-1",
		Messages: []types.Message{{Role: types.RoleUser, Content: "original"}},
	}
	require.NoError(t, s.SaveConversation(context.Background(), conversation))

	// Mutating the saved value must not affect the stored record
	conversation.Messages[0].Content = "mutated"

	got, err := s.GetConversation(context.Background(), "conv-1")
	require.NoError(t, err)
	assert.Equal(t, "original", got.Messages[0].Content)

	// Mutating a read result must not affect later reads
	got.Messages[0].Content = "mutated again"

	again, err := s.GetConversation(context.Background(), "conv-1")
	require.NoError(t, err)
	assert.Equal(t, "original", again.Messages[0].Content)
}

func TestConversationStore_Delete(t *testing.T) {
	s := NewConversationStore()

	require.NoError(t, s.SaveConversation(context.Background(), &store.Conversation{ID: "conv-1"}))
	require.NoError(t, s.DeleteConversation(context.Background(), "conv-1"))

	_, err := s.GetConversation(context.Background(), "conv-1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	// Deleting a missing conversation is not an error
	assert.NoError(t, s.DeleteConversation(context.Background(), "conv-1"))
}

func TestAgentStore(t *testing.T) {
	s := NewAgentStore(&store.Agent{ID: "default", Name: "Default"})

	agent, err := s.GetAgent(context.Background(), "default")
	require.NoError(t, err)
	assert.Equal(t, "Default", agent.Name)

	_, err = s.GetAgent(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	s.PutAgent(&store.Agent{ID: "support", Name: "Support"})
	agent, err = s.GetAgent(context.Background(), "support")
	require.NoError(t, err)
	assert.Equal(t, "Support", agent.Name)
}
