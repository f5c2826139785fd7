package schema

import (
	"context"
	"encoding/json"
)

// Tool is the interface all invocable tools must satisfy.
// Built-in tools and MCP-wrapped remote tools both implement this interface.
type Tool interface {
	Name() string
	Description() string
	// Parameters returns the JSON Schema (as raw JSON bytes) for this tool's parameters.
	Parameters() json.RawMessage
	Execute(ctx context.Context, params map[string]any) (string, error)
}

// ToolRegistrar receives tools discovered at startup (MCP enumeration or
// built-ins). The registry builder implements it.
type ToolRegistrar interface {
	Add(t Tool)
}
