// Package inmemory provides map-backed store implementations for development
// and tests.
package inmemory

import (
	"context"
	"sync"
	"time"

	"github.com/ragstack/ragstack/internal/store"
)

// ConversationStore keeps conversations in process memory.
type ConversationStore struct {
	mu            sync.RWMutex
	conversations map[string]*store.Conversation
}

// NewConversationStore creates an empty in-memory conversation store.
func NewConversationStore() *ConversationStore {
	return &ConversationStore{
		conversations: make(map[string]*store.Conversation),
	}
}

func (s *ConversationStore) SaveConversation(ctx context.Context, conversation *store.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if conversation.ID == "" {
		return store.ErrNotFound
	}

	conversation.UpdatedAt = time.Now()
	if conversation.CreatedAt.IsZero() {
		conversation.CreatedAt = conversation.UpdatedAt
	}

	// Store a copy so later caller mutation can't corrupt the stored record
	stored := *conversation
	stored.Messages = append(stored.Messages[:0:0], conversation.Messages...)
	s.conversations[conversation.ID] = &stored

	return nil
}

func (s *ConversationStore) GetConversation(ctx context.Context, id string) (*store.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[id]
	if !ok {
		return nil, store.ErrNotFound
	}

	copied := *conv
	copied.Messages = append(copied.Messages[:0:0], conv.Messages...)

	return &copied, nil
}

func (s *ConversationStore) DeleteConversation(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.conversations, id)

	return nil
}

// AgentStore keeps agent configurations in process memory.
type AgentStore struct {
	mu     sync.RWMutex
	agents map[string]*store.Agent
}

// NewAgentStore creates an agent store pre-populated with the given agents.
func NewAgentStore(agents ...*store.Agent) *AgentStore {
	s := &AgentStore{
		agents: make(map[string]*store.Agent, len(agents)),
	}

	for _, a := range agents {
		s.agents[a.ID] = a
	}

	return s
}

// PutAgent inserts or replaces an agent configuration.
func (s *AgentStore) PutAgent(agent *store.Agent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.agents[agent.ID] = agent
}

func (s *AgentStore) GetAgent(ctx context.Context, id string) (*store.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	agent, ok := s.agents[id]
	if !ok {
		return nil, store.ErrNotFound
	}

	copied := *agent

	return &copied, nil
}
