package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	llm "github.com/haasonsaas/case-nexus/internal/llm"
)

// Registry holds the Tool Loop's ≈9 tools, keyed by name.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds or replaces a tool.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Name()] = t
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Dispatch validates input against the tool's schema, then executes it.
// Unknown tools and schema-invalid input both produce a Result error rather
// than a Go error, so the Tool Loop can feed the failure back to the model
// and keep going (spec §4.3, §7 SchemaError).
func (r *Registry) Dispatch(ctx context.Context, name string, input json.RawMessage) Result {
	tool, ok := r.Get(name)
	if !ok {
		return Fail(fmt.Sprintf("unknown_tool: %s", name))
	}
	if err := Validate(name, tool.Schema(), input); err != nil {
		return Fail(fmt.Sprintf("bad_input: %v", err))
	}
	return tool.Execute(ctx, input)
}

// AsLLMTools exposes registered tools in the provider-facing shape the
// Streaming Runner passes to internal/llm.Provider.Complete.
func (r *Registry) AsLLMTools() []llm.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]llm.Tool, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t)
	}
	return out
}
