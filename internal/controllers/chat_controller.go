package controllers

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ragstack/ragstack/internal/middlewares"
	"github.com/ragstack/ragstack/internal/store"
	"github.com/ragstack/ragstack/pkg/llm/router"
	"github.com/ragstack/ragstack/pkg/llm/tool"
	"github.com/ragstack/ragstack/pkg/llm/types"
)

// ChatController handles chat requests against a configured agent.
type ChatController struct {
	router        *router.Router
	agents        store.AgentStore
	conversations store.ConversationStore

	// fallback BYOK credentials used when an agent carries none
	openAIAPIKey    string
	anthropicAPIKey string
}

type ChatControllerDependencies struct {
	Router            *router.Router
	AgentStore        store.AgentStore
	ConversationStore store.ConversationStore
	OpenAIAPIKey      string
	AnthropicAPIKey   string
}

func NewChatController(deps ChatControllerDependencies) *ChatController {
	return &ChatController{
		router:          deps.Router,
		agents:          deps.AgentStore,
		conversations:   deps.ConversationStore,
		openAIAPIKey:    deps.OpenAIAPIKey,
		anthropicAPIKey: deps.AnthropicAPIKey,
	}
}

type chatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id,omitempty"`
	Stream         bool   `json:"stream,omitempty"`
}

type chatResponse struct {
	ConversationID string                 `json:"conversation_id"`
	Content        string                 `json:"content"`
	ToolCalls      []types.ToolCall       `json:"tool_calls,omitempty"`
	ToolResults    []types.ToolCallResult `json:"tool_results,omitempty"`
	Usage          types.Usage            `json:"usage"`
	Model          string                 `json:"model,omitempty"`
}

// Chat handles one chat turn against an agent, synchronously or as a
// server-sent-event stream.
func (c *ChatController) Chat(ctx fiber.Ctx) error {
	var req chatRequest

	if err := ctx.Bind().Body(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if req.Message == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Message is required")
	}

	agentID := ctx.Params("agentID")

	identity, ok := middlewares.IdentityFromCtx(ctx)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "Missing identity")
	}

	agent, err := c.agents.GetAgent(ctx.RequestCtx(), agentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Agent not found")
		}
		log.Error().Err(err).Str("agent_id", agentID).Msg("Failed to load agent")
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to load agent")
	}

	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = uuid.New().String()
	}

	history, err := c.loadHistory(ctx.RequestCtx(), conversationID)
	if err != nil {
		log.Error().Err(err).Str("conversation_id", conversationID).Msg("Failed to load conversation")
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to load conversation")
	}

	cfg := c.agentConfig(agent)

	opts := router.Options{
		SystemPrompt: agent.SystemPrompt,
		Tools:        agent.ToolsEnabled,
		ToolContext: &tool.Context{
			AgentID:        agentID,
			UserID:         identity.UID,
			ConversationID: conversationID,
		},
		History: history,
	}

	if req.Stream {
		return c.chatStream(ctx, req.Message, conversationID, agentID, identity.UID, cfg, opts, history)
	}

	result, err := c.router.Chat(ctx.RequestCtx(), req.Message, cfg, opts)
	if err != nil {
		log.Error().Err(err).Str("agent_id", agentID).Msg("Chat turn failed")
		return fiber.NewError(fiber.StatusBadGateway, "Provider request failed")
	}

	c.saveTurn(context.Background(), conversationID, agentID, identity.UID, history, req.Message, result)

	return ctx.JSON(chatResponse{
		ConversationID: conversationID,
		Content:        result.Content,
		ToolCalls:      result.ToolCalls,
		ToolResults:    result.ToolResults,
		Usage:          result.Usage,
		Model:          result.Model,
	})
}

func (c *ChatController) chatStream(ctx fiber.Ctx, message, conversationID, agentID, userID string, cfg router.Config, opts router.Options, history []types.Message) error {
	stream, err := c.router.ChatStream(ctx.RequestCtx(), message, cfg, opts)
	if err != nil {
		log.Error().Err(err).Str("agent_id", agentID).Msg("Chat stream failed to start")
		return fiber.NewError(fiber.StatusBadGateway, "Provider request failed")
	}

	ctx.Set("Content-Type", "text/event-stream")
	ctx.Set("Cache-Control", "no-cache")
	ctx.Set("Connection", "keep-alive")

	return ctx.SendStreamWriter(func(w *bufio.Writer) {
		for fragment := range stream.Fragments() {
			payload, _ := json.Marshal(fiber.Map{"delta": fragment})
			fmt.Fprintf(w, "data: %s\n\n", payload)
			if err := w.Flush(); err != nil {
				// Client went away; dropping the stream cancels the provider read
				return
			}
		}

		if err := stream.Err(); err != nil {
			payload, _ := json.Marshal(fiber.Map{"error": err.Error()})
			fmt.Fprintf(w, "data: %s\n\n", payload)
			w.Flush()
			return
		}

		result := stream.Result()
		if result != nil {
			c.saveTurn(context.Background(), conversationID, agentID, userID, history, message, result)

			payload, _ := json.Marshal(chatResponse{
				ConversationID: conversationID,
				Content:        result.Content,
				ToolCalls:      result.ToolCalls,
				Usage:          result.Usage,
				Model:          result.Model,
			})
			fmt.Fprintf(w, "data: %s\n\n", payload)
		}

		fmt.Fprint(w, "data: [DONE]\n\n")
		w.Flush()
	})
}

func (c *ChatController) agentConfig(agent *store.Agent) router.Config {
	cfg := router.DefaultConfig(router.Provider(agent.Provider))

	if agent.Model != "" {
		cfg.Model = agent.Model
	}

	cfg.APIKey = agent.APIKey
	if cfg.APIKey == "" {
		switch cfg.Provider {
		case router.ProviderOpenAI:
			cfg.APIKey = c.openAIAPIKey
		case router.ProviderAnthropic:
			cfg.APIKey = c.anthropicAPIKey
		}
	}

	return cfg
}

func (c *ChatController) loadHistory(ctx context.Context, conversationID string) ([]types.Message, error) {
	conversation, err := c.conversations.GetConversation(ctx, conversationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return conversation.Messages, nil
}

// saveTurn appends this turn's messages to the conversation in a
// provider-replayable shape: the user turn, the assistant turn with any tool
// calls, the tool results, and the final assistant answer.
func (c *ChatController) saveTurn(ctx context.Context, conversationID, agentID, userID string, history []types.Message, message string, result *types.ChatResult) {
	now := time.Now()

	messages := append(history, types.Message{
		Role:      types.RoleUser,
		Content:   message,
		Timestamp: now,
	})

	if len(result.ToolCalls) > 0 && len(result.ToolResults) > 0 {
		messages = append(messages, types.Message{
			Role:      types.RoleAssistant,
			ToolCalls: result.ToolCalls,
			Timestamp: now,
		})

		toolResults := make([]types.ToolResult, len(result.ToolResults))
		for i, res := range result.ToolResults {
			toolResults[i] = types.ToolResult{
				ToolCallID: res.ID,
				Name:       res.Name,
				Content:    res.Content(),
				IsError:    res.IsError(),
			}
		}

		messages = append(messages, types.Message{
			Role:        types.RoleTool,
			ToolResults: toolResults,
			Timestamp:   now,
		})
	}

	messages = append(messages, types.Message{
		Role:      types.RoleAssistant,
		Content:   result.Content,
		Timestamp: now,
	})

	err := c.conversations.SaveConversation(ctx, &store.Conversation{
		ID:       conversationID,
		AgentID:  agentID,
		UserID:   userID,
		Messages: messages,
	})
	if err != nil {
		log.Error().Err(err).Str("conversation_id", conversationID).Msg("Failed to save conversation")
	}
}
