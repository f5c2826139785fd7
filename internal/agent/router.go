package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/docpilot/docpilot/internal/schema"
	"github.com/docpilot/docpilot/internal/shared/textutils"
	"github.com/docpilot/docpilot/internal/tools"
)

const defaultLLMTimeout = 60 * time.Second

// toolCaller is the invocation contract the router depends on.
type toolCaller interface {
	Invoke(ctx context.Context, name string, args map[string]any) string
}

// Router classifies one raw utterance and produces exactly one reply, with
// at most one side effect: one tool invocation or one LLM call, never both.
//
// The fallback path is the only one that mutates History. Tool dispatches
// deliberately leave the conversation record untouched, so the model never
// sees direct command traffic.
type Router struct {
	patterns   []CommandPattern
	registry   *tools.Registry
	caller     toolCaller
	llm        schema.LLMProvider
	history    *History
	settings   schema.AgentSettings
	llmTimeout time.Duration
}

// NewRouter wires a Router. llmTimeout <= 0 selects the 60s default.
func NewRouter(
	patterns []CommandPattern,
	registry *tools.Registry,
	caller toolCaller,
	llm schema.LLMProvider,
	history *History,
	settings schema.AgentSettings,
	llmTimeout time.Duration,
) *Router {
	if llmTimeout <= 0 {
		llmTimeout = defaultLLMTimeout
	}
	return &Router{
		patterns:   patterns,
		registry:   registry,
		caller:     caller,
		llm:        llm,
		history:    history,
		settings:   settings,
		llmTimeout: llmTimeout,
	}
}

// Route handles one utterance. ok is false only for empty or whitespace-only
// input, which is a no-op: no reply, no side effect, nothing logged.
func (r *Router) Route(ctx context.Context, raw string) (reply string, ok bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", false
	}

	for _, p := range r.patterns {
		rest, matched := matchPrefix(trimmed, p.Prefix)
		if !matched {
			continue
		}

		// Prefix match is terminal: a matched command never falls through
		// to later patterns or to the LLM, even when its tool is missing.
		if !r.registry.Has(p.Tool) {
			return replyToolMissing(p.Tool), true
		}

		args := splitArgs(rest, len(p.Keys))
		if len(args) < p.MinArgs {
			return replyMissingArgs(p.Prefix), true
		}

		slog.Debug("command dispatched", "prefix", p.Prefix, "tool", p.Tool)
		return r.caller.Invoke(ctx, p.Tool, p.BuildArgs(args)), true
	}

	return r.fallbackLLM(ctx, trimmed), true
}

// fallbackLLM appends the utterance to history and asks the model.
// On timeout the user message stays in history but no assistant message is
// appended, since none was produced.
func (r *Router) fallbackLLM(ctx context.Context, utterance string) string {
	r.history.AddUser(utterance)

	tctx, cancel := context.WithTimeout(ctx, r.llmTimeout)
	defer cancel()

	resp, err := r.llm.Chat(tctx, r.history.Window(r.settings.HistoryWindow), schema.ChatOptions{
		Model:       r.settings.Model,
		MaxTokens:   r.settings.MaxTokens,
		Temperature: r.settings.Temperature,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			slog.Warn("LLM call timed out", "timeout", r.llmTimeout)
			return replyLLMTimeout
		}
		slog.Error("LLM call failed", "err", err)
		return fmt.Sprintf("%s Model request failed: %v", markerNotice, err)
	}

	content := strings.TrimSpace(textutils.StripThink(resp.Content))
	r.history.AddAssistant(content)
	return content
}

// matchPrefix reports whether trimmed starts with prefix (case-insensitive)
// at a word boundary, and returns the trailing argument text.
func matchPrefix(trimmed, prefix string) (rest string, ok bool) {
	if len(trimmed) < len(prefix) || !strings.EqualFold(trimmed[:len(prefix)], prefix) {
		return "", false
	}
	rest = trimmed[len(prefix):]
	if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
		return "", false
	}
	return strings.TrimSpace(rest), true
}

const replyLLMTimeout = markerNotice + " The model took too long to respond. Please try again."

func replyToolMissing(tool string) string {
	return fmt.Sprintf("%s Tool %q is not available in this session", markerNotice, tool)
}

func replyMissingArgs(prefix string) string {
	return fmt.Sprintf("%s Missing required argument for %q", markerNotice, prefix)
}
