package tool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoHandler(ctx context.Context, args map[string]any, tc Context) (any, error) {
	return args, nil
}

func TestNew_NameValidation(t *testing.T) {
	tests := []struct {
		name     string
		toolName string
		valid    bool
	}{
		{name: "simple lowercase", toolName: "search", valid: true},
		{name: "snake case", toolName: "get_current_time", valid: true},
		{name: "with digits", toolName: "tool2", valid: true},
		{name: "single letter", toolName: "t", valid: true},
		{name: "uppercase", toolName: "GetTime", valid: false},
		{name: "leading digit", toolName: "2tool", valid: false},
		{name: "hyphen", toolName: "get-time", valid: false},
		{name: "leading underscore", toolName: "_tool", valid: false},
		{name: "empty", toolName: "", valid: false},
		{name: "space", toolName: "get time", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tool, err := New(Options{
				Name:    tt.toolName,
				Handler: echoHandler,
			})

			if tt.valid {
				require.NoError(t, err)
				assert.Equal(t, tt.toolName, tool.Name())
			} else {
				require.Error(t, err)
				assert.Nil(t, tool)
			}
		})
	}
}

func TestNew_RequiresHandler(t *testing.T) {
	_, err := New(Options{Name: "no_handler"})
	require.Error(t, err)
}

func TestExecute_RequiredParameter(t *testing.T) {
	tool, err := New(Options{
		Name: "greet",
		Parameters: []Parameter{
			{Name: "who", ParameterSpec: ParameterSpec{Type: TypeString, Required: true}},
		},
		Handler: echoHandler,
	})
	require.NoError(t, err)

	_, err = tool.Execute(context.Background(), map[string]any{}, Context{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required parameter: who")

	_, err = tool.Execute(context.Background(), map[string]any{"who": nil}, Context{})
	require.Error(t, err)

	result, err := tool.Execute(context.Background(), map[string]any{"who": "world"}, Context{})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"who": "world"}, result)
}

func TestExecute_RequiredIgnoresDefault(t *testing.T) {
	// A missing required parameter is always an error, even with a default declared
	tool, err := New(Options{
		Name: "greet",
		Parameters: []Parameter{
			{Name: "who", ParameterSpec: ParameterSpec{Type: TypeString, Required: true, Default: "world"}},
		},
		Handler: echoHandler,
	})
	require.NoError(t, err)

	_, err = tool.Execute(context.Background(), map[string]any{}, Context{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required parameter")
}

func TestExecute_DefaultInjection(t *testing.T) {
	tests := []struct {
		name       string
		parameters []Parameter
	}{
		{
			name: "default first",
			parameters: []Parameter{
				{Name: "timezone", ParameterSpec: ParameterSpec{Type: TypeString, Default: "UTC"}},
				{Name: "format", ParameterSpec: ParameterSpec{Type: TypeString}},
			},
		},
		{
			name: "default last",
			parameters: []Parameter{
				{Name: "format", ParameterSpec: ParameterSpec{Type: TypeString}},
				{Name: "timezone", ParameterSpec: ParameterSpec{Type: TypeString, Default: "UTC"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen map[string]any

			tool, err := New(Options{
				Name:       "clock",
				Parameters: tt.parameters,
				Handler: func(ctx context.Context, args map[string]any, tc Context) (any, error) {
					seen = args
					return nil, nil
				},
			})
			require.NoError(t, err)

			_, err = tool.Execute(context.Background(), map[string]any{}, Context{})
			require.NoError(t, err)
			assert.Equal(t, "UTC", seen["timezone"])
		})
	}
}

func TestExecute_DefaultDoesNotOverrideSupplied(t *testing.T) {
	var seen map[string]any

	tool, err := New(Options{
		Name: "clock",
		Parameters: []Parameter{
			{Name: "timezone", ParameterSpec: ParameterSpec{Type: TypeString, Default: "UTC"}},
		},
		Handler: func(ctx context.Context, args map[string]any, tc Context) (any, error) {
			seen = args
			return nil, nil
		},
	})
	require.NoError(t, err)

	_, err = tool.Execute(context.Background(), map[string]any{"timezone": "Europe/Istanbul"}, Context{})
	require.NoError(t, err)
	assert.Equal(t, "Europe/Istanbul", seen["timezone"])
}

func TestExecute_EnumValidation(t *testing.T) {
	calls := 0

	tool, err := New(Options{
		Name: "set_mode",
		Parameters: []Parameter{
			{Name: "mode", ParameterSpec: ParameterSpec{Type: TypeString, Enum: []string{"fast", "slow"}}},
		},
		Handler: func(ctx context.Context, args map[string]any, tc Context) (any, error) {
			calls++
			return args["mode"], nil
		},
	})
	require.NoError(t, err)

	_, err = tool.Execute(context.Background(), map[string]any{"mode": "turbo"}, Context{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "turbo")
	assert.Contains(t, err.Error(), "fast, slow")
	assert.Equal(t, 0, calls, "handler must not run for a rejected enum value")

	result, err := tool.Execute(context.Background(), map[string]any{"mode": "fast"}, Context{})
	require.NoError(t, err)
	assert.Equal(t, "fast", result)
	assert.Equal(t, 1, calls)
}

func TestExecute_UndeclaredParametersPassThrough(t *testing.T) {
	var seen map[string]any

	tool, err := New(Options{
		Name: "echo",
		Parameters: []Parameter{
			{Name: "declared", ParameterSpec: ParameterSpec{Type: TypeString}},
		},
		Handler: func(ctx context.Context, args map[string]any, tc Context) (any, error) {
			seen = args
			return nil, nil
		},
	})
	require.NoError(t, err)

	_, err = tool.Execute(context.Background(), map[string]any{
		"declared":   "a",
		"undeclared": 42,
	}, Context{})
	require.NoError(t, err)
	assert.Equal(t, 42, seen["undeclared"])
}

func TestExecute_DoesNotMutateCallerArguments(t *testing.T) {
	tool, err := New(Options{
		Name: "clock",
		Parameters: []Parameter{
			{Name: "timezone", ParameterSpec: ParameterSpec{Type: TypeString, Default: "UTC"}},
		},
		Handler: echoHandler,
	})
	require.NoError(t, err)

	args := map[string]any{}
	_, err = tool.Execute(context.Background(), args, Context{})
	require.NoError(t, err)
	assert.NotContains(t, args, "timezone")
}

func TestDeclaration_Idempotent(t *testing.T) {
	tool, err := New(Options{
		Name:        "search_documents",
		Description: "Search the knowledge base",
		Parameters: []Parameter{
			{Name: "query", ParameterSpec: ParameterSpec{Type: TypeString, Description: "Search query", Required: true}},
			{Name: "limit", ParameterSpec: ParameterSpec{Type: TypeNumber, Default: float64(5)}},
			{Name: "mode", ParameterSpec: ParameterSpec{Type: TypeString, Enum: []string{"exact", "fuzzy"}}},
			{Name: "tags", ParameterSpec: ParameterSpec{Type: TypeArray, Items: TypeString}},
		},
		Handler: echoHandler,
	})
	require.NoError(t, err)

	first := tool.Declaration()
	second := tool.Declaration()

	assert.Equal(t, first, second)
}

func TestDeclaration_Schema(t *testing.T) {
	tool, err := New(Options{
		Name:        "search_documents",
		Description: "Search the knowledge base",
		Parameters: []Parameter{
			{Name: "query", ParameterSpec: ParameterSpec{Type: TypeString, Description: "Search query", Required: true}},
			{Name: "limit", ParameterSpec: ParameterSpec{Type: TypeNumber}},
		},
		Handler: echoHandler,
	})
	require.NoError(t, err)

	decl := tool.Declaration()

	assert.Equal(t, "search_documents", decl.Name)
	assert.Equal(t, "Search the knowledge base", decl.Description)
	assert.Equal(t, "object", decl.Schema["type"])

	properties, ok := decl.Schema["properties"].(map[string]any)
	require.True(t, ok)

	query, ok := properties["query"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "string", query["type"])
	assert.Equal(t, "Search query", query["description"])

	assert.Equal(t, []string{"query"}, decl.Schema["required"])
}
