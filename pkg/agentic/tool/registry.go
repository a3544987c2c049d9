package tool

import "github.com/usherbot/usher/pkg/agentic/types"

// Registry is the static catalogue of tools available to the agent. It is
// built once at startup and never mutated afterwards, so lookups need no
// synchronization.
type Registry struct {
	order []string
	tools map[string]Tool
}

// NewRegistry builds a registry from the given tools. Registration order is
// preserved for listings; a duplicate name overwrites the earlier entry.
func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{
		tools: make(map[string]Tool, len(tools)),
	}
	for _, t := range tools {
		if _, exists := r.tools[t.Name()]; !exists {
			r.order = append(r.order, t.Name())
		}
		r.tools[t.Name()] = t
	}
	return r
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Specs returns the backend-facing descriptions of every registered tool,
// in registration order.
func (r *Registry) Specs() []types.Tool {
	out := make([]types.Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, Spec(r.tools[name]))
	}
	return out
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	return len(r.tools)
}
