// Package router selects a provider adapter from per-agent configuration and
// exposes the canonical chat entry points. The tool round-trip protocol is
// implemented once here and shared by all providers.
package router

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ragstack/ragstack/pkg/llm/provider"
	"github.com/ragstack/ragstack/pkg/llm/provider/anthropic"
	"github.com/ragstack/ragstack/pkg/llm/provider/openai"
	"github.com/ragstack/ragstack/pkg/llm/provider/vertex"
	"github.com/ragstack/ragstack/pkg/llm/tool"
	"github.com/ragstack/ragstack/pkg/llm/types"
)

// Provider enumerates the supported LLM vendors.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderVertex    Provider = "vertex"
)

// DefaultProvider is used when a config leaves the provider unset.
const DefaultProvider = ProviderVertex

var defaultModels = map[Provider]string{
	ProviderOpenAI:    "gpt-4o",
	ProviderAnthropic: "claude-3-5-sonnet-20241022",
	ProviderVertex:    "gemini-2.0-flash",
}

// Config selects and parameterizes a provider for one chat turn. APIKey is
// required for the BYOK providers (openai, anthropic) and ignored by vertex,
// which authenticates with ambient project credentials.
type Config struct {
	Provider    Provider `json:"provider"`
	Model       string   `json:"model,omitempty"`
	APIKey      string   `json:"api_key,omitempty"`
	Temperature float32  `json:"temperature,omitempty"`
	MaxTokens   int      `json:"max_tokens,omitempty"`
}

// DefaultConfig returns a config with the provider's default model and no
// credential. Callers must supply credentials for BYOK providers.
func DefaultConfig(p Provider) Config {
	if p == "" {
		p = DefaultProvider
	}

	return Config{
		Provider: p,
		Model:    defaultModels[p],
	}
}

// Options carries the canonical per-turn chat options.
type Options struct {
	SystemPrompt string
	// Tools controls whether registry tools are exposed to the provider
	Tools       bool
	ToolContext *tool.Context
	History     []types.Message
}

// ModelFactory builds a provider adapter for a config. Replaceable for tests.
type ModelFactory func(ctx context.Context, cfg Config) (provider.Model, error)

// Router dispatches chat requests to the configured provider adapter.
type Router struct {
	registry *tool.Registry
	factory  ModelFactory

	vertexProject  string
	vertexLocation string
}

// Option configures a Router.
type Option func(*Router)

// WithModelFactory replaces the adapter constructor, primarily for tests.
func WithModelFactory(f ModelFactory) Option {
	return func(r *Router) {
		r.factory = f
	}
}

// WithVertexProject sets the ambient project and location used by the vertex
// adapter.
func WithVertexProject(project, location string) Option {
	return func(r *Router) {
		r.vertexProject = project
		r.vertexLocation = location
	}
}

// New creates a router backed by the given tool registry.
func New(registry *tool.Registry, opts ...Option) *Router {
	r := &Router{
		registry: registry,
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.factory == nil {
		r.factory = r.buildModel
	}

	return r
}

// Registry returns the tool registry this router reads on tool-enabled turns.
func (r *Router) Registry() *tool.Registry {
	return r.registry
}

func (r *Router) buildModel(ctx context.Context, cfg Config) (provider.Model, error) {
	p := cfg.Provider
	if p == "" {
		p = DefaultProvider
	}

	model := cfg.Model
	if model == "" {
		model = defaultModels[p]
	}

	switch p {
	case ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai: %w", types.ErrMissingAPIKey)
		}
		return openai.New(cfg.APIKey, model), nil

	case ProviderAnthropic:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("anthropic: %w", types.ErrMissingAPIKey)
		}
		return anthropic.New(cfg.APIKey, model), nil

	case ProviderVertex:
		return vertex.New(ctx, r.vertexProject, r.vertexLocation, model)

	default:
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownProvider, cfg.Provider)
	}
}

// Chat performs a full chat turn: one provider round trip, then, when the
// response requests tools, a concurrent execution of every call and a second
// round trip carrying the results. Tool failures degrade into error payloads
// the model can read; provider failures abort the turn.
func (r *Router) Chat(ctx context.Context, message string, cfg Config, opts Options) (*types.ChatResult, error) {
	model, err := r.factory(ctx, cfg)
	if err != nil {
		return nil, err
	}

	req := r.buildRequest(message, cfg, opts)

	resp, err := model.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	if len(resp.ToolCalls) == 0 {
		return &types.ChatResult{
			Content: resp.Content,
			Usage:   resp.Usage,
			Model:   resp.Model,
		}, nil
	}

	// The model asked for tools but the caller gave us no execution scope.
	// Return the unresolved calls instead of guessing an agent to run them
	// under; content stays empty so the caller can decide what to do.
	if opts.ToolContext == nil {
		log.Warn().Str("model", model.ID()).Int("tool_calls", len(resp.ToolCalls)).
			Msg("Provider requested tools but no tool context was supplied")

		return &types.ChatResult{
			ToolCalls: resp.ToolCalls,
			Usage:     resp.Usage,
			Model:     resp.Model,
		}, nil
	}

	results := r.registry.ExecuteMany(ctx, resp.ToolCalls, *opts.ToolContext)

	toolResults := make([]types.ToolResult, len(results))
	for i, res := range results {
		toolResults[i] = types.ToolResult{
			ToolCallID: res.ID,
			Name:       res.Name,
			Content:    res.Content(),
			IsError:    res.IsError(),
		}
	}

	// Second round trip: the assistant turn with its tool calls, then one
	// tool-result turn. Tools stay attached; some providers reject histories
	// containing tool blocks otherwise.
	req.Messages = append(req.Messages,
		types.Message{
			Role:      types.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
			Timestamp: time.Now(),
		},
		types.Message{
			Role:        types.RoleTool,
			ToolResults: toolResults,
			Timestamp:   time.Now(),
		},
	)

	final, err := model.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	return &types.ChatResult{
		Content:     final.Content,
		ToolCalls:   resp.ToolCalls,
		ToolResults: results,
		Usage:       resp.Usage.Add(final.Usage),
		Model:       final.Model,
	}, nil
}

// ChatStream performs the streaming variant. Only the first round trip is
// streamed; tool calls requested mid-stream are reported on the final result
// but never executed.
func (r *Router) ChatStream(ctx context.Context, message string, cfg Config, opts Options) (*Stream, error) {
	model, err := r.factory(ctx, cfg)
	if err != nil {
		return nil, err
	}

	req := r.buildRequest(message, cfg, opts)

	ps, err := model.Stream(ctx, req)
	if err != nil {
		return nil, err
	}

	return &Stream{ps: ps}, nil
}

func (r *Router) buildRequest(message string, cfg Config, opts Options) provider.GenerateRequest {
	messages := make([]types.Message, 0, len(opts.History)+1)
	messages = append(messages, opts.History...)
	messages = append(messages, types.Message{
		Role:      types.RoleUser,
		Content:   message,
		Timestamp: time.Now(),
	})

	req := provider.GenerateRequest{
		Messages:    messages,
		System:      opts.SystemPrompt,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	}

	if opts.Tools && opts.ToolContext != nil {
		// Snapshot the agent's tool set at the moment the request begins
		tools := r.registry.ToolsForAgent(opts.ToolContext.AgentID)
		if len(tools) > 0 {
			decls := make([]types.ToolDecl, len(tools))
			for i, t := range tools {
				decls[i] = t.Declaration()
			}
			req.Tools = decls
		}
	}

	return req
}

// Stream is the router-level view of a streaming chat turn.
type Stream struct {
	ps *provider.Stream
}

// Fragments returns the channel of text fragments.
func (s *Stream) Fragments() <-chan string {
	return s.ps.Fragments()
}

// Err returns the provider failure that terminated the stream, if any. Valid
// once the fragment channel is closed.
func (s *Stream) Err() error {
	return s.ps.Err()
}

// Result returns the final chat result. Valid once the fragment channel is
// closed; nil when the stream failed.
func (s *Stream) Result() *types.ChatResult {
	final := s.ps.Final()
	if final == nil {
		return nil
	}

	return &types.ChatResult{
		Content:   final.Content,
		ToolCalls: final.ToolCalls,
		Usage:     final.Usage,
		Model:     final.Model,
	}
}
