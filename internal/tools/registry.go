package tools

import (
	"encoding/json"
	"sort"

	"github.com/docpilot/docpilot/internal/schema"
)

// Descriptor is the display record for one registered tool.
type Descriptor struct {
	Name        string
	Description string
	Schema      json.RawMessage
}

// Registry is the immutable per-session tool inventory. It is built once at
// startup, after all tool servers have been enumerated, and never changes
// while the session runs.
type Registry struct {
	tools map[string]schema.Tool
}

// Get returns the tool with the given name.
func (r *Registry) Get(name string) (schema.Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Has reports whether a tool with the given name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.tools[name]
	return ok
}

// Len returns the number of registered tools.
func (r *Registry) Len() int { return len(r.tools) }

// Descriptors returns all tools sorted by name. The order is deterministic
// so prompts and listings render identically across runs.
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, Descriptor{Name: t.Name(), Description: t.Description(), Schema: t.Parameters()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
