// Package vertex adapts Gemini models served through Vertex AI to the
// provider.Model contract. Unlike the BYOK providers, Vertex authenticates
// with ambient project credentials (application default credentials); an API
// key is never used.
package vertex

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"github.com/ragstack/ragstack/pkg/llm/provider"
	"github.com/ragstack/ragstack/pkg/llm/types"
)

// Provider implements provider.Model for Gemini on Vertex AI.
type Provider struct {
	client *genai.Client
	model  string
}

// New creates a new Vertex provider. Project and location fall back to the
// GOOGLE_CLOUD_PROJECT / GOOGLE_CLOUD_LOCATION environment when empty.
func New(ctx context.Context, project, location, model string) (*Provider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  project,
		Location: location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create vertex client: %w", err)
	}

	return &Provider{
		client: client,
		model:  model,
	}, nil
}

// ID returns the model identifier
func (p *Provider) ID() string {
	return fmt.Sprintf("vertex:%s", p.model)
}

// Generate implements the Generate method of the provider.Model interface
func (p *Provider) Generate(ctx context.Context, req provider.GenerateRequest) (*types.GenerateResponse, error) {
	config := p.buildConfig(req)
	contents := p.convertMessages(req.Messages)

	resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("vertex api error: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return nil, types.ErrEmptyResponse
	}

	candidate := resp.Candidates[0]

	response := &types.GenerateResponse{
		FinishReason: mapFinishReason(candidate.FinishReason),
		Model:        p.model,
	}

	if resp.UsageMetadata != nil {
		response.Usage = types.Usage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
		if resp.UsageMetadata.CachedContentTokenCount > 0 {
			response.Usage.CachedInputTokens = int(resp.UsageMetadata.CachedContentTokenCount)
		}
	}

	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				response.Content += part.Text
			}
			if part.FunctionCall != nil {
				response.ToolCalls = append(response.ToolCalls, types.ToolCall{
					// Gemini doesn't provide call IDs, generate one
					ID:        uuid.New().String(),
					Name:      part.FunctionCall.Name,
					Arguments: part.FunctionCall.Args,
				})
			}
		}
	}

	return response, nil
}

// Stream implements the Stream method of the provider.Model interface
func (p *Provider) Stream(ctx context.Context, req provider.GenerateRequest) (*provider.Stream, error) {
	config := p.buildConfig(req)
	contents := p.convertMessages(req.Messages)

	s := provider.NewStream()

	go func() {
		var fullText string
		var usage types.Usage
		var toolCalls []types.ToolCall
		finishReason := types.FinishReasonStop

		for resp, err := range p.client.Models.GenerateContentStream(ctx, p.model, contents, config) {
			if err != nil {
				s.Close(nil, fmt.Errorf("vertex stream error: %w", err))
				return
			}

			if resp.UsageMetadata != nil {
				usage = types.Usage{
					PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
					CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
					TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
				}
			}

			for _, candidate := range resp.Candidates {
				if candidate.Content == nil {
					continue
				}

				if candidate.FinishReason != "" {
					finishReason = mapFinishReason(candidate.FinishReason)
				}

				for _, part := range candidate.Content.Parts {
					if part.Text != "" {
						fullText += part.Text
						if !s.Push(ctx, part.Text) {
							s.Close(nil, ctx.Err())
							return
						}
					}

					if part.FunctionCall != nil {
						toolCalls = append(toolCalls, types.ToolCall{
							ID:        uuid.New().String(),
							Name:      part.FunctionCall.Name,
							Arguments: part.FunctionCall.Args,
						})
					}
				}
			}
		}

		if len(toolCalls) > 0 {
			finishReason = types.FinishReasonToolCalls
		}

		s.Close(&types.GenerateResponse{
			Content:      fullText,
			ToolCalls:    toolCalls,
			FinishReason: finishReason,
			Model:        p.model,
			Usage:        usage,
		}, nil)
	}()

	return s, nil
}

func (p *Provider) buildConfig(req provider.GenerateRequest) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{}

	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}

	if req.Temperature > 0 {
		config.Temperature = genai.Ptr(req.Temperature)
	}

	if req.System != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{genai.NewPartFromText(req.System)},
		}
	}

	tools := p.convertTools(req.Tools)
	if len(tools) > 0 {
		config.Tools = tools
	}

	return config
}

// convertMessages converts canonical messages to Gemini content. System turns
// are skipped here; they ride in the SystemInstruction config instead.
func (p *Provider) convertMessages(messages []types.Message) []*genai.Content {
	var result []*genai.Content

	for _, msg := range messages {
		if msg.Role == types.RoleSystem {
			continue
		}

		var parts []*genai.Part

		// Gemini only knows "user" and "model" roles
		role := "user"
		if msg.Role == types.RoleAssistant {
			role = "model"
		}

		if msg.Content != "" && msg.Role != types.RoleTool {
			parts = append(parts, genai.NewPartFromText(msg.Content))
		}

		for _, tc := range msg.ToolCalls {
			parts = append(parts, &genai.Part{
				FunctionCall: &genai.FunctionCall{
					Name: tc.Name,
					Args: tc.Arguments,
				},
			})
		}

		for _, tr := range msg.ToolResults {
			parts = append(parts, &genai.Part{
				FunctionResponse: &genai.FunctionResponse{
					Name: tr.Name,
					Response: map[string]any{
						"result":   tr.Content,
						"is_error": tr.IsError,
					},
				},
			})
		}

		if len(parts) > 0 {
			result = append(result, &genai.Content{
				Role:  role,
				Parts: parts,
			})
		}
	}

	return result
}

func (p *Provider) convertTools(tools []types.ToolDecl) []*genai.Tool {
	if len(tools) == 0 {
		return nil
	}

	var functionDeclarations []*genai.FunctionDeclaration
	for _, decl := range tools {
		functionDeclarations = append(functionDeclarations, &genai.FunctionDeclaration{
			Name:        decl.Name,
			Description: decl.Description,
			Parameters:  convertSchema(decl.Schema),
		})
	}

	return []*genai.Tool{{
		FunctionDeclarations: functionDeclarations,
	}}
}

// convertSchema converts a JSON-schema map to genai.Schema
func convertSchema(params map[string]any) *genai.Schema {
	if params == nil {
		return nil
	}

	schema := &genai.Schema{
		Type: genai.TypeObject,
	}

	if typeVal, ok := params["type"].(string); ok {
		schema.Type = mapSchemaType(typeVal)
	}

	if desc, ok := params["description"].(string); ok {
		schema.Description = desc
	}

	if props, ok := params["properties"].(map[string]any); ok {
		schema.Properties = make(map[string]*genai.Schema)
		for name, propVal := range props {
			if propMap, ok := propVal.(map[string]any); ok {
				schema.Properties[name] = convertSchema(propMap)
			}
		}
	}

	switch required := params["required"].(type) {
	case []string:
		schema.Required = required
	case []any:
		for _, r := range required {
			if str, ok := r.(string); ok {
				schema.Required = append(schema.Required, str)
			}
		}
	}

	if items, ok := params["items"].(map[string]any); ok {
		schema.Items = convertSchema(items)
	}

	if enumVals, ok := params["enum"].([]any); ok {
		for _, e := range enumVals {
			if str, ok := e.(string); ok {
				schema.Enum = append(schema.Enum, str)
			}
		}
	}

	return schema
}

// mapSchemaType converts JSON schema type to genai.Type
func mapSchemaType(t string) genai.Type {
	switch t {
	case "string":
		return genai.TypeString
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	default:
		return genai.TypeUnspecified
	}
}

// mapFinishReason maps Gemini finish reasons to the canonical constants
func mapFinishReason(reason genai.FinishReason) string {
	switch reason {
	case genai.FinishReasonStop:
		return types.FinishReasonStop
	case genai.FinishReasonMaxTokens:
		return types.FinishReasonLength
	case genai.FinishReasonSafety, genai.FinishReasonRecitation:
		return types.FinishReasonContentFilter
	default:
		return types.FinishReasonStop
	}
}
