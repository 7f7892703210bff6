package tool

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/ragstack/ragstack/pkg/llm/types"
)

// Registry holds the global tool set and per-agent tool sets. An agent-scoped
// tool shadows a global tool of the same name. All methods are safe for
// concurrent use; reads snapshot the relevant tools under the lock so a chat
// turn in flight is unaffected by later mutation.
type Registry struct {
	mu     sync.RWMutex
	global map[string]*Tool
	agents map[string]map[string]*Tool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		global: make(map[string]*Tool),
		agents: make(map[string]map[string]*Tool),
	}
}

// Register inserts a tool into the global set. Overwriting an existing name
// is allowed but logged at warning level.
func (r *Registry) Register(t *Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.global[t.Name()]; exists {
		log.Warn().Str("tool", t.Name()).Msg("Overwriting globally registered tool")
	}

	r.global[t.Name()] = t
}

// RegisterForAgent inserts a tool into an agent's private set.
func (r *Registry) RegisterForAgent(agentID string, t *Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tools, ok := r.agents[agentID]
	if !ok {
		tools = make(map[string]*Tool)
		r.agents[agentID] = tools
	}

	if _, exists := tools[t.Name()]; exists {
		log.Warn().Str("tool", t.Name()).Str("agent_id", agentID).Msg("Overwriting agent-scoped tool")
	}

	tools[t.Name()] = t
}

// Unregister removes a tool from the global set and reports whether anything
// was removed.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.global[name]; !exists {
		return false
	}

	delete(r.global, name)

	return true
}

// UnregisterForAgent removes a tool from an agent's set and reports whether
// anything was removed.
func (r *Registry) UnregisterForAgent(agentID, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	tools, ok := r.agents[agentID]
	if !ok {
		return false
	}

	if _, exists := tools[name]; !exists {
		return false
	}

	delete(tools, name)

	return true
}

// Get resolves a tool by name. When agentID is non-empty the agent's set is
// checked first, then the global set.
func (r *Registry) Get(name, agentID string) (*Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if agentID != "" {
		if t, ok := r.agents[agentID][name]; ok {
			return t, true
		}
	}

	t, ok := r.global[name]

	return t, ok
}

// ToolsForAgent returns the union of the global set and the agent's set,
// agent-scoped entries overriding same-named global ones. The result is
// sorted by name so ordering is stable for a given registry state.
func (r *Registry) ToolsForAgent(agentID string) []*Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	merged := make(map[string]*Tool, len(r.global))
	for name, t := range r.global {
		merged[name] = t
	}
	for name, t := range r.agents[agentID] {
		merged[name] = t
	}

	tools := make([]*Tool, 0, len(merged))
	for _, t := range merged {
		tools = append(tools, t)
	}

	sort.Slice(tools, func(i, j int) bool {
		return tools[i].Name() < tools[j].Name()
	})

	return tools
}

// Execute resolves and runs one tool call, scoped to tc.AgentID. Every
// failure mode funnels into ToolCallResult.Error; the registry never raises
// an error to its caller, so a failed tool degrades the turn instead of
// aborting it.
func (r *Registry) Execute(ctx context.Context, call types.ToolCall, tc Context) types.ToolCallResult {
	result := types.ToolCallResult{
		ID:   call.ID,
		Name: call.Name,
	}

	t, ok := r.Get(call.Name, tc.AgentID)
	if !ok {
		result.Error = fmt.Sprintf("Tool not found: %s", call.Name)

		return result
	}

	value, err := t.Execute(ctx, call.Arguments, tc)
	if err != nil {
		log.Debug().Err(err).Str("tool", call.Name).Msg("Tool execution failed")
		result.Error = err.Error()

		return result
	}

	result.Result = value

	return result
}

// ExecuteMany runs all calls concurrently and returns results in the same
// order as the input, regardless of completion order.
func (r *Registry) ExecuteMany(ctx context.Context, calls []types.ToolCall, tc Context) []types.ToolCallResult {
	results := make([]types.ToolCallResult, len(calls))

	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(i int, call types.ToolCall) {
			defer wg.Done()
			results[i] = r.Execute(ctx, call, tc)
		}(i, call)
	}
	wg.Wait()

	return results
}
