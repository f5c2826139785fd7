package agent

import "github.com/docpilot/docpilot/internal/schema"

// History is the append-only conversation record for one session. It is
// seeded with the system prompt and grows strictly chronologically; messages
// are never reordered or deleted. Only the LLM fallback path appends to it —
// direct tool dispatches leave it untouched.
type History struct {
	msgs schema.Messages
}

// NewHistory creates a History seeded with the given system prompt.
func NewHistory(systemPrompt string) *History {
	h := &History{}
	if systemPrompt != "" {
		h.msgs.AddSystem(systemPrompt)
	}
	return h
}

func (h *History) AddUser(content string)      { h.msgs.AddUser(content) }
func (h *History) AddAssistant(content string) { h.msgs.AddAssistant(content) }

// Len returns the total message count, including the system message.
func (h *History) Len() int { return h.msgs.Len() }

// Window returns the context to send to the LLM: the system message plus the
// last n non-system messages. n <= 0 means no cap. The returned value is a
// copy; mutating it does not affect the history.
func (h *History) Window(n int) schema.Messages {
	if n <= 0 {
		return h.msgs.Clone()
	}
	all := h.msgs.Messages

	var system []schema.Message
	var rest []schema.Message
	for _, m := range all {
		if m.Role == schema.RoleSystem {
			system = append(system, m)
		} else {
			rest = append(rest, m)
		}
	}
	if n > 0 && len(rest) > n {
		rest = rest[len(rest)-n:]
	}

	out := schema.Messages{}
	out.Messages = append(out.Messages, system...)
	out.Messages = append(out.Messages, rest...)
	return out
}
