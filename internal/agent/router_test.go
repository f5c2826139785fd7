package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/docpilot/docpilot/internal/schema"
	"github.com/docpilot/docpilot/internal/tools"
)

// ---- fakes -----------------------------------------------------------------

type fakeTool struct {
	name string
	fn   func(ctx context.Context, args map[string]any) (string, error)
}

func (f fakeTool) Name() string { return f.name }

func (f fakeTool) Description() string { return "" }

func (f fakeTool) Parameters() json.RawMessage { return json.RawMessage(`{"type":"object"}`) }
func (f fakeTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	if f.fn != nil {
		return f.fn(ctx, args)
	}
	return "done", nil
}

type fakeCaller struct {
	calls []struct {
		name string
		args map[string]any
	}
	reply func(name string, args map[string]any) string
}

func (f *fakeCaller) Invoke(_ context.Context, name string, args map[string]any) string {
	f.calls = append(f.calls, struct {
		name string
		args map[string]any
	}{name, args})
	if f.reply != nil {
		return f.reply(name, args)
	}
	return "✅ ok"
}

type fakeLLM struct {
	calls   int
	content string
	err     error
}

func (f *fakeLLM) Chat(ctx context.Context, _ schema.Messages, _ schema.ChatOptions) (schema.LLMResponse, error) {
	f.calls++
	if f.err != nil {
		return schema.LLMResponse{}, f.err
	}
	return schema.LLMResponse{Content: f.content, FinishReason: "stop"}, nil
}

func (f *fakeLLM) DefaultModel() string { return "test-model" }

func testRegistry(names ...string) *tools.Registry {
	b := tools.NewRegistryBuilder()
	for _, n := range names {
		b.Add(fakeTool{name: n})
	}
	return b.Build()
}

func testRouter(reg *tools.Registry, caller toolCaller, llm schema.LLMProvider) (*Router, *History) {
	h := NewHistory("system prompt")
	r := NewRouter(DefaultPatterns(), reg, caller, llm, h, schema.NewAgentSettings("test-model", 256, 0, 0), time.Second)
	return r, h
}

// ---- dispatch paths --------------------------------------------------------

func TestRouteDispatchesToolWithParsedArgs(t *testing.T) {
	caller := &fakeCaller{}
	llm := &fakeLLM{}
	r, h := testRouter(testRegistry("create_folder"), caller, llm)
	before := h.Len()

	reply, ok := r.Route(context.Background(), "create folder reports")
	if !ok {
		t.Fatal("Route returned ok=false for a command")
	}
	if len(caller.calls) != 1 {
		t.Fatalf("expected exactly 1 tool invocation, got %d", len(caller.calls))
	}
	if caller.calls[0].name != "create_folder" {
		t.Errorf("invoked tool %q, want create_folder", caller.calls[0].name)
	}
	want := map[string]any{"folder_path": "reports"}
	if !reflect.DeepEqual(caller.calls[0].args, want) {
		t.Errorf("args = %v, want %v", caller.calls[0].args, want)
	}
	if llm.calls != 0 {
		t.Error("LLM was called on the tool path")
	}
	if h.Len() != before {
		t.Error("history changed on the tool path")
	}
	if reply == "" {
		t.Error("expected a non-empty reply")
	}
}

func TestRouteSuccessReplyContainsArgument(t *testing.T) {
	caller := &fakeCaller{reply: func(_ string, args map[string]any) string {
		return fmt.Sprintf("✅ Folder created: %s", args["folder_path"])
	}}
	r, _ := testRouter(testRegistry("create_folder"), caller, &fakeLLM{})

	reply, _ := r.Route(context.Background(), "create folder reports")
	if !strings.Contains(reply, "reports") {
		t.Errorf("reply %q does not contain the folder path", reply)
	}
}

func TestRouteBoundedSplitKeepsTrailingText(t *testing.T) {
	caller := &fakeCaller{}
	r, _ := testRouter(testRegistry("create_docx"), caller, &fakeLLM{})

	r.Route(context.Background(), "create file report.docx Quarterly results for Q3")
	if len(caller.calls) != 1 {
		t.Fatalf("expected 1 invocation, got %d", len(caller.calls))
	}
	want := map[string]any{"filename": "report.docx", "text": "Quarterly results for Q3"}
	if !reflect.DeepEqual(caller.calls[0].args, want) {
		t.Errorf("args = %v, want %v", caller.calls[0].args, want)
	}
}

func TestRouteMatchIsCaseInsensitiveButArgsKeepCase(t *testing.T) {
	caller := &fakeCaller{}
	r, _ := testRouter(testRegistry("delete_file"), caller, &fakeLLM{})

	r.Route(context.Background(), "Delete File Report.DOCX")
	if len(caller.calls) != 1 {
		t.Fatalf("expected 1 invocation, got %d", len(caller.calls))
	}
	if got := caller.calls[0].args["filename"]; got != "Report.DOCX" {
		t.Errorf("filename = %v, want original case preserved", got)
	}
}

func TestRouteOptionalArgumentMayBeOmitted(t *testing.T) {
	caller := &fakeCaller{}
	r, _ := testRouter(testRegistry("list_files"), caller, &fakeLLM{})

	r.Route(context.Background(), "list files")
	if len(caller.calls) != 1 {
		t.Fatalf("expected 1 invocation, got %d", len(caller.calls))
	}
	if len(caller.calls[0].args) != 0 {
		t.Errorf("expected empty args, got %v", caller.calls[0].args)
	}

	r.Route(context.Background(), "list files drafts/2026")
	if got := caller.calls[1].args["directory"]; got != "drafts/2026" {
		t.Errorf("directory = %v, want drafts/2026", got)
	}
}

// ---- validation ------------------------------------------------------------

func TestRouteMissingArgumentNoInvocation(t *testing.T) {
	caller := &fakeCaller{}
	llm := &fakeLLM{}
	r, h := testRouter(testRegistry("create_docx"), caller, llm)
	before := h.Len()

	reply, ok := r.Route(context.Background(), "create file")
	if !ok {
		t.Fatal("Route returned ok=false")
	}
	if reply != replyMissingArgs("create file") {
		t.Errorf("reply = %q, want the missing-argument message", reply)
	}
	if len(caller.calls) != 0 {
		t.Error("tool was invoked despite missing arguments")
	}
	if llm.calls != 0 {
		t.Error("LLM was called despite a terminal prefix match")
	}
	if h.Len() != before {
		t.Error("history changed on a validation failure")
	}
}

func TestRouteToolAbsentIsTerminal(t *testing.T) {
	caller := &fakeCaller{}
	llm := &fakeLLM{}
	r, h := testRouter(testRegistry(), caller, llm) // empty registry
	before := h.Len()

	reply, ok := r.Route(context.Background(), "create folder reports")
	if !ok {
		t.Fatal("Route returned ok=false")
	}
	if reply != replyToolMissing("create_folder") {
		t.Errorf("reply = %q, want the tool-missing message", reply)
	}
	if len(caller.calls) != 0 {
		t.Error("tool invocation happened for an absent tool")
	}
	if llm.calls != 0 {
		t.Error("router fell through to the LLM despite a prefix match")
	}
	if h.Len() != before {
		t.Error("history changed")
	}
}

func TestRouteEmptyInputIsNoOp(t *testing.T) {
	caller := &fakeCaller{}
	llm := &fakeLLM{}
	r, h := testRouter(testRegistry("list_files"), caller, llm)
	before := h.Len()

	for _, in := range []string{"", "   ", "\t", " \t "} {
		reply, ok := r.Route(context.Background(), in)
		if ok || reply != "" {
			t.Errorf("Route(%q) = (%q, %v), want no-op", in, reply, ok)
		}
	}
	if len(caller.calls) != 0 || llm.calls != 0 || h.Len() != before {
		t.Error("empty input caused a side effect")
	}
}

// ---- LLM fallback ----------------------------------------------------------

func TestRouteFallbackGrowsHistoryByTwo(t *testing.T) {
	caller := &fakeCaller{}
	llm := &fakeLLM{content: "Of course, happy to help."}
	r, h := testRouter(testRegistry("list_files"), caller, llm)
	before := h.Len()

	reply, ok := r.Route(context.Background(), "what can you do?")
	if !ok {
		t.Fatal("Route returned ok=false")
	}
	if reply != "Of course, happy to help." {
		t.Errorf("reply = %q", reply)
	}
	if llm.calls != 1 {
		t.Fatalf("expected 1 LLM call, got %d", llm.calls)
	}
	if len(caller.calls) != 0 {
		t.Error("tool was invoked on the fallback path")
	}
	if got := h.Len() - before; got != 2 {
		t.Fatalf("history grew by %d messages, want 2", got)
	}

	msgs := h.Window(0).Messages
	if msgs[len(msgs)-2].Role != schema.RoleUser || msgs[len(msgs)-2].Content != "what can you do?" {
		t.Error("second-to-last message is not the user utterance")
	}
	if msgs[len(msgs)-1].Role != schema.RoleAssistant {
		t.Error("last message is not the assistant reply")
	}
}

func TestRouteLLMTimeoutLeavesUserMessageOnly(t *testing.T) {
	llm := &fakeLLM{err: context.DeadlineExceeded}
	r, h := testRouter(testRegistry(), &fakeCaller{}, llm)
	before := h.Len()

	reply, ok := r.Route(context.Background(), "summarize my week")
	if !ok {
		t.Fatal("Route returned ok=false")
	}
	if reply != replyLLMTimeout {
		t.Errorf("reply = %q, want the timeout message", reply)
	}
	if got := h.Len() - before; got != 1 {
		t.Fatalf("history grew by %d messages, want 1 (user only)", got)
	}
	msgs := h.Window(0).Messages
	if last := msgs[len(msgs)-1]; last.Role != schema.RoleUser {
		t.Errorf("last message role = %q, want user", last.Role)
	}
}

func TestRouteFallbackStripsThinkBlocks(t *testing.T) {
	llm := &fakeLLM{content: "<think>internal reasoning</think>\nHere is your summary."}
	r, h := testRouter(testRegistry(), &fakeCaller{}, llm)

	reply, ok := r.Route(context.Background(), "summarize this")
	if !ok {
		t.Fatal("Route returned ok=false")
	}
	if reply != "Here is your summary." {
		t.Errorf("reply = %q, want the think block removed", reply)
	}

	msgs := h.Window(0).Messages
	if last := msgs[len(msgs)-1]; strings.Contains(last.Content, "<think>") {
		t.Errorf("history kept the think block: %q", last.Content)
	}
}

func TestRouteLLMErrorIsRecovered(t *testing.T) {
	llm := &fakeLLM{err: errors.New("boom")}
	r, _ := testRouter(testRegistry(), &fakeCaller{}, llm)

	reply, ok := r.Route(context.Background(), "hello")
	if !ok {
		t.Fatal("Route returned ok=false")
	}
	if !strings.Contains(reply, "boom") {
		t.Errorf("reply %q does not surface the failure", reply)
	}
}

// ---- registry snapshot -----------------------------------------------------

func TestRegistryEnumerationIsIdempotent(t *testing.T) {
	reg := testRegistry("create_folder", "list_files", "read_docx")
	first := reg.Descriptors()
	second := reg.Descriptors()
	if !reflect.DeepEqual(first, second) {
		t.Error("two enumerations of the same registry differ")
	}
}
