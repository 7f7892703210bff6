// Package anthropic adapts the Anthropic Messages API to the provider.Model
// contract.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/ragstack/ragstack/pkg/llm/provider"
	"github.com/ragstack/ragstack/pkg/llm/types"
)

// Anthropic requires max_tokens on every request.
const defaultMaxTokens = 4096

// Provider implements provider.Model for Anthropic Claude.
type Provider struct {
	client anthropic.Client
	model  string
}

// New creates a new Anthropic provider. Anthropic is a BYOK provider; the
// caller supplies the credential.
func New(apiKey, model string) *Provider {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	return &Provider{
		client: client,
		model:  model,
	}
}

// ID returns the model identifier
func (p *Provider) ID() string {
	return fmt.Sprintf("anthropic:%s", p.model)
}

// Generate implements the Generate method of the provider.Model interface
func (p *Provider) Generate(ctx context.Context, req provider.GenerateRequest) (*types.GenerateResponse, error) {
	resp, err := p.client.Messages.New(ctx, p.buildRequest(req))
	if err != nil {
		return nil, fmt.Errorf("anthropic api error: %w", err)
	}

	response := &types.GenerateResponse{
		Model:        string(resp.Model),
		FinishReason: mapStopReason(string(resp.StopReason)),
		Usage: types.Usage{
			PromptTokens:      int(resp.Usage.InputTokens),
			CompletionTokens:  int(resp.Usage.OutputTokens),
			TotalTokens:       int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
			CachedInputTokens: int(resp.Usage.CacheReadInputTokens),
		},
	}

	var textContent strings.Builder

	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			textContent.WriteString(block.Text)
		case "tool_use":
			args := make(map[string]any)
			if len(block.Input) > 0 {
				json.Unmarshal(block.Input, &args)
			}
			response.ToolCalls = append(response.ToolCalls, types.ToolCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: args,
			})
		}
	}

	response.Content = textContent.String()

	return response, nil
}

// Stream implements the Stream method of the provider.Model interface
func (p *Provider) Stream(ctx context.Context, req provider.GenerateRequest) (*provider.Stream, error) {
	stream := p.client.Messages.NewStreaming(ctx, p.buildRequest(req))

	s := provider.NewStream()

	go func() {
		toolCallBuilders := make(map[int]*toolCallBuilder)
		var order []int
		var fullText string
		var usage types.Usage
		var finishReason string
		var model string

		for stream.Next() {
			event := stream.Current()

			switch event.Type {
			case "message_start":
				model = string(event.Message.Model)
				usage.PromptTokens = int(event.Message.Usage.InputTokens)
				usage.CachedInputTokens = int(event.Message.Usage.CacheReadInputTokens)

			case "content_block_start":
				block := event.ContentBlock
				index := int(event.Index)

				if block.Type == "tool_use" {
					toolCallBuilders[index] = &toolCallBuilder{id: block.ID, name: block.Name}
					order = append(order, index)
				}

			case "content_block_delta":
				delta := event.Delta
				index := int(event.Index)

				switch delta.Type {
				case "text_delta":
					fullText += delta.Text
					if !s.Push(ctx, delta.Text) {
						s.Close(nil, ctx.Err())
						return
					}

				case "input_json_delta":
					if builder, exists := toolCallBuilders[index]; exists {
						builder.arguments += delta.PartialJSON
					}
				}

			case "message_delta":
				usage.CompletionTokens = int(event.Usage.OutputTokens)
				usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens

				if event.Delta.StopReason != "" {
					finishReason = mapStopReason(string(event.Delta.StopReason))
				}
			}
		}

		if err := stream.Err(); err != nil {
			s.Close(nil, fmt.Errorf("anthropic stream error: %w", err))
			return
		}

		final := &types.GenerateResponse{
			Content:      fullText,
			FinishReason: finishReason,
			Model:        model,
			Usage:        usage,
		}

		for _, index := range order {
			builder := toolCallBuilders[index]
			args := make(map[string]any)
			if builder.arguments != "" {
				json.Unmarshal([]byte(builder.arguments), &args)
			}
			final.ToolCalls = append(final.ToolCalls, types.ToolCall{
				ID:        builder.id,
				Name:      builder.name,
				Arguments: args,
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

func (p *Provider) buildRequest(req provider.GenerateRequest) anthropic.MessageNewParams {
	messages, system := p.convertMessages(req.Messages, req.System)

	msgReq := anthropic.MessageNewParams{
		Model:    anthropic.Model(p.model),
		Messages: messages,
	}

	if len(system) > 0 {
		msgReq.System = system
	}

	if req.MaxTokens > 0 {
		msgReq.MaxTokens = int64(req.MaxTokens)
	} else {
		msgReq.MaxTokens = int64(defaultMaxTokens)
	}

	if req.Temperature > 0 {
		msgReq.Temperature = anthropic.Float(float64(req.Temperature))
	}

	tools := p.convertTools(req.Tools)
	if len(tools) > 0 {
		msgReq.Tools = tools
	}

	return msgReq
}

// convertMessages converts canonical messages to Anthropic format. System
// turns are filtered from the history and merged into the dedicated system
// parameter; tool-role turns become user messages carrying tool_result
// blocks.
func (p *Provider) convertMessages(messages []types.Message, systemPrompt string) ([]anthropic.MessageParam, []anthropic.TextBlockParam) {
	result := make([]anthropic.MessageParam, 0, len(messages))

	var systemTexts []string
	if systemPrompt != "" {
		systemTexts = append(systemTexts, systemPrompt)
	}

	for _, msg := range messages {
		if msg.Role == types.RoleSystem {
			systemTexts = append(systemTexts, msg.Content)
			continue
		}

		var contentBlocks []anthropic.ContentBlockParamUnion

		if msg.Content != "" {
			contentBlocks = append(contentBlocks, anthropic.NewTextBlock(msg.Content))
		}

		if msg.Role == types.RoleAssistant {
			for _, tc := range msg.ToolCalls {
				input := tc.Arguments
				if input == nil {
					input = make(map[string]any)
				}
				contentBlocks = append(contentBlocks, anthropic.NewToolUseBlock(tc.ID, input, tc.Name))
			}
		}

		for _, tr := range msg.ToolResults {
			contentBlocks = append(contentBlocks, anthropic.NewToolResultBlock(tr.ToolCallID, tr.Content, tr.IsError))
		}

		role := anthropic.MessageParamRole(msg.Role)
		if msg.Role == types.RoleTool {
			role = anthropic.MessageParamRoleUser
		}

		if len(contentBlocks) > 0 {
			result = append(result, anthropic.MessageParam{
				Role:    role,
				Content: contentBlocks,
			})
		}
	}

	var system []anthropic.TextBlockParam
	if len(systemTexts) > 0 {
		system = []anthropic.TextBlockParam{{
			Text: strings.Join(systemTexts, "\n\n"),
			Type: "text",
		}}
	}

	return result, system
}

func (p *Provider) convertTools(tools []types.ToolDecl) []anthropic.ToolUnionParam {
	if len(tools) == 0 {
		return nil
	}

	result := make([]anthropic.ToolUnionParam, len(tools))
	for i, decl := range tools {
		inputSchema := anthropic.ToolInputSchemaParam{
			Type: "object",
		}

		if properties, ok := decl.Schema["properties"]; ok {
			inputSchema.Properties = properties
		}

		switch required := decl.Schema["required"].(type) {
		case []string:
			inputSchema.Required = required
		case []any:
			for _, r := range required {
				if str, ok := r.(string); ok {
					inputSchema.Required = append(inputSchema.Required, str)
				}
			}
		}

		result[i] = anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        decl.Name,
				Description: anthropic.String(decl.Description),
				InputSchema: inputSchema,
			},
		}
	}

	return result
}

func mapStopReason(reason string) string {
	switch reason {
	case "end_turn", "stop_sequence":
		return types.FinishReasonStop
	case "max_tokens":
		return types.FinishReasonLength
	case "tool_use":
		return types.FinishReasonToolCalls
	default:
		return reason
	}
}
