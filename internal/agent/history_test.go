package agent

import (
	"testing"

	"github.com/docpilot/docpilot/internal/schema"
)

func TestHistorySeededWithSystemPrompt(t *testing.T) {
	h := NewHistory("you are a document assistant")
	if h.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", h.Len())
	}
	msgs := h.Window(0).Messages
	if msgs[0].Role != schema.RoleSystem {
		t.Errorf("first message role = %q, want system", msgs[0].Role)
	}
}

func TestHistoryPreservesOrder(t *testing.T) {
	h := NewHistory("sys")
	h.AddUser("first")
	h.AddAssistant("second")
	h.AddUser("third")

	msgs := h.Window(0).Messages
	want := []string{"sys", "first", "second", "third"}
	if len(msgs) != len(want) {
		t.Fatalf("got %d messages, want %d", len(msgs), len(want))
	}
	for i, w := range want {
		if msgs[i].Content != w {
			t.Errorf("message %d = %q, want %q", i, msgs[i].Content, w)
		}
	}
}

func TestHistoryWindowKeepsSystemAndRecent(t *testing.T) {
	h := NewHistory("sys")
	for i := 0; i < 10; i++ {
		h.AddUser("u")
		h.AddAssistant("a")
	}

	win := h.Window(4).Messages
	if len(win) != 5 {
		t.Fatalf("window size = %d, want 5 (system + 4)", len(win))
	}
	if win[0].Role != schema.RoleSystem {
		t.Error("window does not start with the system message")
	}
	for _, m := range win[1:] {
		if m.Role == schema.RoleSystem {
			t.Error("window contains a second system message")
		}
	}
}

func TestHistoryWindowCopyIsIndependent(t *testing.T) {
	h := NewHistory("sys")
	h.AddUser("hello")

	win := h.Window(0)
	win.Messages[1].Content = "mutated"

	if got := h.Window(0).Messages[1].Content; got != "hello" {
		t.Errorf("history mutated through window copy: %q", got)
	}
}
