package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/docpilot/docpilot/internal/shared/textutils"
	"github.com/docpilot/docpilot/internal/tools"
)

// Reply markers. Tool output is surfaced verbatim behind one of these.
const (
	markerSuccess = "✅"
	markerFailure = "❌"
	markerNotice  = "❗"
)

// Invoker resolves a tool in the registry and awaits its result under a
// per-call timeout. Every failure shape a tool can produce — transport
// errors, remote errors, panics — is normalized here into failure-marked
// text, so the router never sees an error from a tool call.
type Invoker struct {
	registry *tools.Registry
	timeout  time.Duration
}

// NewInvoker creates an Invoker. timeout <= 0 disables the per-call bound.
func NewInvoker(registry *tools.Registry, timeout time.Duration) *Invoker {
	return &Invoker{registry: registry, timeout: timeout}
}

// Invoke runs the named tool with args and returns marker-prefixed text.
func (i *Invoker) Invoke(ctx context.Context, name string, args map[string]any) (reply string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("tool panicked", "tool", name, "panic", r)
			reply = fmt.Sprintf("%s %s: internal error", markerFailure, name)
		}
	}()

	tool, ok := i.registry.Get(name)
	if !ok {
		return fmt.Sprintf("%s %s: tool not found", markerFailure, name)
	}

	if i.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := tool.Execute(ctx, args)
	if err != nil {
		slog.Error("tool failed", "tool", name, "err", err, "elapsed", time.Since(start))
		return fmt.Sprintf("%s %s: %v", markerFailure, name, err)
	}

	slog.Debug("tool succeeded", "tool", name, "elapsed", time.Since(start), "result", textutils.Truncate(result, 120))
	return markerSuccess + " " + result
}
