package tool

import (
	"context"
	"fmt"
	"strings"

	"github.com/ragstack/ragstack/pkg/llm/types"
)

// Context carries per-invocation data into every handler. It is constructed
// fresh for each request and never persisted.
type Context struct {
	AgentID        string
	UserID         string
	ConversationID string
}

// Handler executes a tool. Arguments have already passed the validation gate
// when the handler runs.
type Handler func(ctx context.Context, args map[string]any, tc Context) (any, error)

// Tool pairs an immutable definition with its validated handler.
type Tool struct {
	def     Definition
	handler Handler
}

// Options describes a tool to construct.
type Options struct {
	Name        string
	Description string
	Parameters  []Parameter
	Handler     Handler
}

// New constructs a tool, validating the naming convention up front so a
// malformed tool can never enter a registry.
func New(opts Options) (*Tool, error) {
	if err := validateName(opts.Name); err != nil {
		return nil, err
	}

	if opts.Handler == nil {
		return nil, fmt.Errorf("tool %q has no handler", opts.Name)
	}

	return &Tool{
		def: Definition{
			Name:        opts.Name,
			Description: opts.Description,
			Parameters:  opts.Parameters,
		},
		handler: opts.Handler,
	}, nil
}

// Name returns the tool's registered name.
func (t *Tool) Name() string {
	return t.def.Name
}

// Description returns the human-readable description shown to the model.
func (t *Tool) Description() string {
	return t.def.Description
}

// Definition returns a copy of the tool's definition.
func (t *Tool) Definition() Definition {
	return t.def
}

// Declaration returns the provider-agnostic function declaration for the tool.
func (t *Tool) Declaration() types.ToolDecl {
	return t.def.Declaration()
}

// Execute runs the validation gate and then the handler. Declared parameters
// are checked for presence, defaults and enums; undeclared arguments pass
// through unchanged. The caller's argument map is never mutated.
func (t *Tool) Execute(ctx context.Context, args map[string]any, tc Context) (any, error) {
	effective := make(map[string]any, len(args))
	for k, v := range args {
		effective[k] = v
	}

	for _, p := range t.def.Parameters {
		value, present := effective[p.Name]

		if !present || value == nil {
			if p.Required {
				return nil, fmt.Errorf("missing required parameter: %s", p.Name)
			}
			if p.Default != nil {
				effective[p.Name] = p.Default
			}
			continue
		}

		if len(p.Enum) > 0 {
			str, ok := value.(string)
			if !ok || !containsString(p.Enum, str) {
				return nil, fmt.Errorf("invalid value %v for parameter %s, allowed values: %s",
					value, p.Name, strings.Join(p.Enum, ", "))
			}
		}
	}

	return t.handler(ctx, effective, tc)
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}

	return false
}
