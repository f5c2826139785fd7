package tools

import "github.com/docpilot/docpilot/internal/schema"

// RegistryBuilder accumulates tools during the construction phase.
// Call Build() to produce an immutable Registry ready for use.
type RegistryBuilder struct {
	tools map[string]schema.Tool
}

// NewRegistryBuilder returns a fresh RegistryBuilder.
func NewRegistryBuilder() *RegistryBuilder {
	return &RegistryBuilder{tools: make(map[string]schema.Tool)}
}

// Add registers a tool, replacing any existing tool with the same name.
// Implements schema.ToolRegistrar.
func (b *RegistryBuilder) Add(t schema.Tool) {
	b.tools[t.Name()] = t
}

// WithTool adds a tool and returns the builder, enabling chaining.
func (b *RegistryBuilder) WithTool(t schema.Tool) *RegistryBuilder {
	b.Add(t)
	return b
}

// Build produces an immutable Registry from the accumulated tools.
func (b *RegistryBuilder) Build() *Registry {
	tools := make(map[string]schema.Tool, len(b.tools))
	for k, v := range b.tools {
		tools[k] = v
	}
	return &Registry{tools: tools}
}

var _ schema.ToolRegistrar = (*RegistryBuilder)(nil)
