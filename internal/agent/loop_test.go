package agent

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/docpilot/docpilot/internal/bus"
	"github.com/docpilot/docpilot/internal/schema"
)

func testLoop(t *testing.T, caller *fakeCaller) (*Loop, bus.Bus, <-chan error, *bool) {
	t.Helper()
	b := bus.NewMessageBus(8)
	reg := testRegistry("create_folder", "list_files")
	r, _ := testRouter(reg, caller, &fakeLLM{content: "sure"})

	teardownCalled := false
	l := NewLoop(b, r, reg, schema.NewAgentSettings("test-model", 256, 0, 0), func() {
		teardownCalled = true
	})

	done := make(chan error, 1)
	go func() { done <- l.Run(context.Background()) }()
	return l, b, done, &teardownCalled
}

func send(b bus.Bus, content string) {
	b.PublishInbound(bus.NewInboundMessage(bus.ChannelCLI, content))
}

func recvReply(t *testing.T, b bus.Bus) string {
	t.Helper()
	select {
	case msg := <-b.OutboundChan():
		return msg.Content()
	case <-time.After(2 * time.Second):
		t.Fatal("no reply from the loop")
		return ""
	}
}

func waitDone(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop")
		return nil
	}
}

func TestLoopRecoversPanicAndContinues(t *testing.T) {
	caller := &fakeCaller{reply: func(name string, _ map[string]any) string {
		if name == "create_folder" {
			panic("corrupt state")
		}
		return "✅ ok"
	}}
	_, b, done, teardownCalled := testLoop(t, caller)

	send(b, "create folder reports")
	if got := recvReply(t, b); got != replyPanic {
		t.Errorf("reply after panic = %q, want %q", got, replyPanic)
	}

	// The loop must keep serving after the recovery.
	send(b, "list files")
	if got := recvReply(t, b); !strings.HasPrefix(got, markerSuccess) {
		t.Errorf("reply after recovery = %q, want a normal tool reply", got)
	}

	send(b, "exit")
	if got := recvReply(t, b); got != "Goodbye!" {
		t.Errorf("exit reply = %q, want Goodbye!", got)
	}
	if err := waitDone(t, done); err != nil {
		t.Errorf("Run returned %v after exit, want nil", err)
	}
	if !*teardownCalled {
		t.Error("teardown did not run on the exit path")
	}
}

func TestLoopMetaTokens(t *testing.T) {
	_, b, done, _ := testLoop(t, &fakeCaller{})

	send(b, "help")
	help := recvReply(t, b)
	if !strings.Contains(help, "create folder") || !strings.Contains(help, "exit") {
		t.Errorf("help text %q does not list commands", help)
	}

	send(b, "status")
	status := recvReply(t, b)
	if !strings.Contains(status, "test-model") {
		t.Errorf("status text %q does not name the model", status)
	}

	// Token matching is case-insensitive.
	send(b, "QUIT")
	if got := recvReply(t, b); got != "Goodbye!" {
		t.Errorf("quit reply = %q", got)
	}
	if err := waitDone(t, done); err != nil {
		t.Errorf("Run returned %v after quit, want nil", err)
	}
}

func TestLoopStopsOnContextCancel(t *testing.T) {
	b := bus.NewMessageBus(8)
	reg := testRegistry("list_files")
	r, _ := testRouter(reg, &fakeCaller{}, &fakeLLM{})

	teardownCalled := false
	l := NewLoop(b, r, reg, schema.NewAgentSettings("test-model", 256, 0, 0), func() {
		teardownCalled = true
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	cancel()
	if err := waitDone(t, done); err != context.Canceled {
		t.Errorf("Run returned %v, want context.Canceled", err)
	}
	if !teardownCalled {
		t.Error("teardown did not run on the cancellation path")
	}
}

func TestLoopIgnoresEmptyInput(t *testing.T) {
	_, b, done, _ := testLoop(t, &fakeCaller{})

	send(b, "   ")
	send(b, "list files")
	// Only the real command gets a reply; the blank line produced none.
	if got := recvReply(t, b); !strings.HasPrefix(got, markerSuccess) {
		t.Errorf("reply = %q, want the list files reply", got)
	}

	send(b, "exit")
	recvReply(t, b)
	waitDone(t, done)
}
