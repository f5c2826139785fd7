package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/docpilot/docpilot/internal/bus"
	"github.com/docpilot/docpilot/internal/schema"
	"github.com/docpilot/docpilot/internal/tools"
)

const replyPanic = markerNotice + " Something went wrong while handling that. Please try again."

// Loop is the session engine. It consumes InboundMessages from the bus one
// at a time, routes each through the Router, and publishes the reply.
//
// One utterance runs to completion before the next is read; there is no
// concurrent processing within a session. A recovered panic inside an
// iteration produces an apology reply and the loop continues — only exit
// tokens and context cancellation terminate it.
type Loop struct {
	bus      bus.Bus
	router   *Router
	registry *tools.Registry
	settings schema.AgentSettings
	teardown func()
}

// NewLoop wires a Loop. teardown runs exactly once when Run returns, on
// every exit path, and may be nil.
func NewLoop(
	b bus.Bus,
	router *Router,
	registry *tools.Registry,
	settings schema.AgentSettings,
	teardown func(),
) *Loop {
	return &Loop{
		bus:      b,
		router:   router,
		registry: registry,
		settings: settings,
		teardown: teardown,
	}
}

// Run blocks until an exit token arrives or ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	if l.teardown != nil {
		defer l.teardown()
	}
	slog.Info("agent loop started", "tools", l.registry.Len())

	for {
		select {
		case msg := <-l.bus.InboundChan():
			if stop := l.handleMessage(ctx, msg); stop {
				slog.Info("agent loop stopping", "reason", "exit token")
				return nil
			}
		case <-ctx.Done():
			slog.Info("agent loop stopping", "reason", "context cancelled")
			return ctx.Err()
		}
	}
}

// ProcessDirect handles one utterance outside the bus (one-shot CLI runs,
// scheduled prompts). Meta commands are not recognized on this path.
func (l *Loop) ProcessDirect(ctx context.Context, content string) string {
	reply, ok := l.safeRoute(ctx, content)
	if !ok {
		return ""
	}
	return reply
}

// handleMessage processes one inbound message. Returns true when the loop
// should terminate.
func (l *Loop) handleMessage(ctx context.Context, msg bus.InboundMessage) bool {
	slog.Debug("processing message", "channel", msg.Channel(), "content", msg.Preview())

	token := strings.ToLower(strings.TrimSpace(msg.Content()))
	switch token {
	case "exit", "quit":
		l.reply(msg, "Goodbye!")
		return true
	case "help":
		l.reply(msg, l.helpText())
		return false
	case "status":
		l.reply(msg, l.statusText())
		return false
	}

	reply, ok := l.safeRoute(ctx, msg.Content())
	if !ok {
		return false
	}
	l.reply(msg, reply)
	return false
}

// safeRoute runs the router with panic recovery. ok mirrors Route's: false
// means empty input, nothing to reply.
func (l *Loop) safeRoute(ctx context.Context, content string) (reply string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic while routing", "panic", r)
			reply, ok = replyPanic, true
		}
	}()
	return l.router.Route(ctx, content)
}

func (l *Loop) reply(msg bus.InboundMessage, content string) {
	l.bus.PublishOutbound(bus.NewOutboundMessage(msg.Channel(), content))
}

func (l *Loop) helpText() string {
	var sb strings.Builder
	sb.WriteString("Commands:\n")
	for _, p := range l.router.patterns {
		usage := p.Prefix
		for i, key := range p.Keys {
			if i < p.MinArgs {
				usage += fmt.Sprintf(" <%s>", key)
			} else {
				usage += fmt.Sprintf(" [%s]", key)
			}
		}
		sb.WriteString("  " + usage + "\n")
	}
	sb.WriteString("  status\n  help\n  exit | quit\n\nAnything else goes to the model.")
	return sb.String()
}

func (l *Loop) statusText() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Model: %s\n", l.settings.Model)
	fmt.Fprintf(&sb, "History: %d messages\n", l.router.history.Len())
	fmt.Fprintf(&sb, "Tools (%d):\n", l.registry.Len())
	for _, d := range l.registry.Descriptors() {
		sb.WriteString("  " + d.Name + "\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

var _ schema.AgentLooper = (*Loop)(nil)
