// Package openai adapts the OpenAI chat completions API to the provider.Model
// contract.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/sashabaranov/go-openai"

	"github.com/ragstack/ragstack/pkg/llm/provider"
	"github.com/ragstack/ragstack/pkg/llm/types"
)

// Provider implements provider.Model for OpenAI.
type Provider struct {
	client *openai.Client
	model  string
}

// New creates a new OpenAI provider. OpenAI is a BYOK provider; the caller
// supplies the credential.
func New(apiKey, model string) *Provider {
	clientConfig := openai.DefaultConfig(apiKey)

	return &Provider{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
	}
}

// ID returns the model identifier
func (p *Provider) ID() string {
	return fmt.Sprintf("openai:%s", p.model)
}

// Generate implements the Generate method of the provider.Model interface
func (p *Provider) Generate(ctx context.Context, req provider.GenerateRequest) (*types.GenerateResponse, error) {
	resp, err := p.client.CreateChatCompletion(ctx, p.buildRequest(req, false))
	if err != nil {
		return nil, fmt.Errorf("openai api error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, types.ErrEmptyResponse
	}

	choice := resp.Choices[0]
	response := &types.GenerateResponse{
		Content:      choice.Message.Content,
		FinishReason: mapFinishReason(choice.FinishReason),
		Model:        resp.Model,
		Usage: types.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}

	if resp.Usage.PromptTokensDetails != nil {
		response.Usage.CachedInputTokens = resp.Usage.PromptTokensDetails.CachedTokens
	}

	if len(choice.Message.ToolCalls) > 0 {
		response.ToolCalls = make([]types.ToolCall, len(choice.Message.ToolCalls))
		for i, tc := range choice.Message.ToolCalls {
			response.ToolCalls[i] = types.ToolCall{
				ID:        tc.ID,
				Name:      tc.Function.Name,
				Arguments: parseArguments(tc.Function.Arguments),
			}
		}
	}

	return response, nil
}

// Stream implements the Stream method of the provider.Model interface
func (p *Provider) Stream(ctx context.Context, req provider.GenerateRequest) (*provider.Stream, error) {
	stream, err := p.client.CreateChatCompletionStream(ctx, p.buildRequest(req, true))
	if err != nil {
		return nil, fmt.Errorf("openai stream error: %w", err)
	}

	s := provider.NewStream()

	go func() {
		defer stream.Close()

		// Tool call arguments arrive as deltas keyed by index
		toolCallsByIndex := make(map[int]*toolCallBuilder)
		var order []int
		var fullText string
		var usage types.Usage
		var finishReason string
		var model string

		for {
			response, err := stream.Recv()
			if err != nil {
				if errors.Is(err, io.EOF) {
					break
				}
				s.Close(nil, fmt.Errorf("openai stream recv error: %w", err))
				return
			}

			if model == "" {
				model = response.Model
			}

			// Usage arrives in a trailing chunk with an empty choices array
			if response.Usage != nil {
				usage = types.Usage{
					PromptTokens:     response.Usage.PromptTokens,
					CompletionTokens: response.Usage.CompletionTokens,
					TotalTokens:      response.Usage.TotalTokens,
				}
				if response.Usage.PromptTokensDetails != nil {
					usage.CachedInputTokens = response.Usage.PromptTokensDetails.CachedTokens
				}
			}

			if len(response.Choices) == 0 {
				continue
			}

			choice := response.Choices[0]

			if choice.Delta.Content != "" {
				fullText += choice.Delta.Content
				if !s.Push(ctx, choice.Delta.Content) {
					s.Close(nil, ctx.Err())
					return
				}
			}

			for _, tc := range choice.Delta.ToolCalls {
				if tc.Index == nil {
					continue
				}
				index := *tc.Index
				builder, exists := toolCallsByIndex[index]
				if !exists {
					builder = &toolCallBuilder{id: tc.ID, name: tc.Function.Name}
					toolCallsByIndex[index] = builder
					order = append(order, index)
				}
				builder.arguments += tc.Function.Arguments
			}

			if choice.FinishReason != "" {
				finishReason = mapFinishReason(choice.FinishReason)
			}
		}

		final := &types.GenerateResponse{
			Content:      fullText,
			FinishReason: finishReason,
			Model:        model,
			Usage:        usage,
		}

		for _, index := range order {
			builder := toolCallsByIndex[index]
			final.ToolCalls = append(final.ToolCalls, types.ToolCall{
				ID:        builder.id,
				Name:      builder.name,
				Arguments: parseArguments(builder.arguments),
			})
		}

		s.Close(final, nil)
	}()

	return s, nil
}

// Helper type for building tool calls from deltas
type toolCallBuilder struct {
	id        string
	name      string
	arguments string
}

func (p *Provider) buildRequest(req provider.GenerateRequest, stream bool) openai.ChatCompletionRequest {
	chatReq := openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    p.convertMessages(req.Messages, req.System),
		Tools:       p.convertTools(req.Tools),
		Temperature: req.Temperature,
	}

	if req.MaxTokens > 0 {
		chatReq.MaxTokens = req.MaxTokens
	}

	if stream {
		chatReq.Stream = true
		chatReq.StreamOptions = &openai.StreamOptions{IncludeUsage: true}
	}

	return chatReq
}

func (p *Provider) convertMessages(messages []types.Message, system string) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, 0, len(messages)+1)

	if system != "" {
		result = append(result, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}

	for _, msg := range messages {
		// Tool-role turns become one tool message per result
		if msg.Role == types.RoleTool {
			for _, tr := range msg.ToolResults {
				result = append(result, openai.ChatCompletionMessage{
					Role:       openai.ChatMessageRoleTool,
					Content:    tr.Content,
					ToolCallID: tr.ToolCallID,
				})
			}
			continue
		}

		oaiMsg := openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		}

		if len(msg.ToolCalls) > 0 {
			toolCalls := make([]openai.ToolCall, len(msg.ToolCalls))
			for i, tc := range msg.ToolCalls {
				argsJSON, _ := json.Marshal(tc.Arguments)
				toolCalls[i] = openai.ToolCall{
					ID:   tc.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      tc.Name,
						Arguments: string(argsJSON),
					},
				}
			}
			oaiMsg.ToolCalls = toolCalls
		}

		result = append(result, oaiMsg)
	}

	return result
}

func (p *Provider) convertTools(tools []types.ToolDecl) []openai.Tool {
	if len(tools) == 0 {
		return nil
	}

	result := make([]openai.Tool, len(tools))
	for i, decl := range tools {
		result[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        decl.Name,
				Description: decl.Description,
				Parameters:  decl.Schema,
			},
		}
	}

	return result
}

func parseArguments(raw string) map[string]any {
	var args map[string]any
	if raw != "" {
		json.Unmarshal([]byte(raw), &args)
	}

	return args
}

func mapFinishReason(reason openai.FinishReason) string {
	switch reason {
	case openai.FinishReasonStop:
		return types.FinishReasonStop
	case openai.FinishReasonLength:
		return types.FinishReasonLength
	case openai.FinishReasonToolCalls, openai.FinishReasonFunctionCall:
		return types.FinishReasonToolCalls
	case openai.FinishReasonContentFilter:
		return types.FinishReasonContentFilter
	default:
		return string(reason)
	}
}
