// Package mongodb implements the conversation store on MongoDB.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ragstack/ragstack/internal/store"
)

const conversationsCollection = "conversations"

// ConversationStore implements store.ConversationStore using MongoDB.
type ConversationStore struct {
	database *mongo.Database
}

// NewConversationStore creates a MongoDB conversation store with the given
// database.
func NewConversationStore(database *mongo.Database) *ConversationStore {
	s := &ConversationStore{
		database: database,
	}
	s.ensureIndexes()

	return s
}

func (s *ConversationStore) ensureIndexes() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	collection := s.database.Collection(conversationsCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "agent_id", Value: 1},
				{Key: "updated_at", Value: -1},
			},
		},
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "updated_at", Value: -1},
			},
		},
	}

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Warn().Err(err).Msg("Failed to create conversation indexes")
	}
}

// SaveConversation saves a new conversation or updates an existing one
func (s *ConversationStore) SaveConversation(ctx context.Context, conversation *store.Conversation) error {
	if conversation.ID == "" {
		return store.ErrNotFound
	}

	now := time.Now()
	if conversation.CreatedAt.IsZero() {
		conversation.CreatedAt = now
	}
	conversation.UpdatedAt = now

	filter := bson.M{"id": conversation.ID}

	update := bson.M{
		"$set": bson.M{
			"id":         conversation.ID,
			"agent_id":   conversation.AgentID,
			"user_id":    conversation.UserID,
			"messages":   conversation.Messages,
			"created_at": conversation.CreatedAt,
			"updated_at": conversation.UpdatedAt,
		},
	}

	opts := options.Update().SetUpsert(true)
	if _, err := s.database.Collection(conversationsCollection).UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to save conversation: %w", err)
	}

	return nil
}

func (s *ConversationStore) GetConversation(ctx context.Context, id string) (*store.Conversation, error) {
	var conversation store.Conversation

	err := s.database.Collection(conversationsCollection).
		FindOne(ctx, bson.M{"id": id}).
		Decode(&conversation)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}

	return &conversation, nil
}

func (s *ConversationStore) DeleteConversation(ctx context.Context, id string) error {
	if _, err := s.database.Collection(conversationsCollection).DeleteOne(ctx, bson.M{"id": id}); err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}

	return nil
}
