// Package tool implements the tool-calling subsystem: typed tool definitions
// with argument validation, conversion to provider function declarations, and
// a registry with global and agent-scoped tool sets.
package tool

import (
	"fmt"
	"regexp"

	"github.com/ragstack/ragstack/pkg/llm/types"
)

// ParameterType is the JSON-schema type of a single tool parameter.
type ParameterType string

const (
	TypeString  ParameterType = "string"
	TypeNumber  ParameterType = "number"
	TypeBoolean ParameterType = "boolean"
	TypeArray   ParameterType = "array"
	TypeObject  ParameterType = "object"
)

// ParameterSpec describes one declared parameter of a tool. When Required is
// set, Default is ignored at validation time; a missing required argument is
// always an error.
type ParameterSpec struct {
	Type        ParameterType `json:"type"`
	Description string        `json:"description"`
	Required    bool          `json:"required"`
	Enum        []string      `json:"enum,omitempty"`
	Items       ParameterType `json:"items,omitempty"`
	Default     any           `json:"default,omitempty"`
}

// Parameter pairs a name with its spec. Definitions keep parameters as an
// ordered slice so declaration conversion is deterministic.
type Parameter struct {
	Name string
	ParameterSpec
}

// Definition is the immutable description of a callable tool.
type Definition struct {
	Name        string
	Description string
	Parameters  []Parameter
}

var nameRe = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

func validateName(name string) error {
	if !nameRe.MatchString(name) {
		return fmt.Errorf("invalid tool name %q: must match %s", name, nameRe.String())
	}

	return nil
}

// Declaration converts the definition to the provider-agnostic function
// declaration shape. The conversion is pure and idempotent.
func (d Definition) Declaration() types.ToolDecl {
	properties := make(map[string]any, len(d.Parameters))
	required := make([]string, 0, len(d.Parameters))

	for _, p := range d.Parameters {
		prop := map[string]any{
			"type": string(p.Type),
		}

		if p.Description != "" {
			prop["description"] = p.Description
		}

		if len(p.Enum) > 0 {
			enum := make([]any, len(p.Enum))
			for i, e := range p.Enum {
				enum[i] = e
			}
			prop["enum"] = enum
		}

		if p.Type == TypeArray && p.Items != "" {
			prop["items"] = map[string]any{"type": string(p.Items)}
		}

		properties[p.Name] = prop

		if p.Required {
			required = append(required, p.Name)
		}
	}

	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}

	if len(required) > 0 {
		schema["required"] = required
	}

	return types.ToolDecl{
		Name:        d.Name,
		Description: d.Description,
		Schema:      schema,
	}
}
