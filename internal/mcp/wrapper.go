package mcp

import (
	"context"
	"encoding/json"

	"github.com/docpilot/docpilot/internal/schema"
)

// toolWrapper adapts a single tool discovered on a tool server to schema.Tool.
// Tools keep their server-side names so command routing can address them
// directly.
type toolWrapper struct {
	client      *client
	server      string
	name        string
	description string
	parameters  json.RawMessage
}

func (w *toolWrapper) Name() string { return w.name }

func (w *toolWrapper) Description() string { return w.description }

func (w *toolWrapper) Parameters() json.RawMessage { return w.parameters }

func (w *toolWrapper) Execute(ctx context.Context, params map[string]any) (string, error) {
	return w.client.callTool(ctx, w.name, params)
}

var _ schema.Tool = (*toolWrapper)(nil)
