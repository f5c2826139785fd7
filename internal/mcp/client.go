package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
)

// client manages JSON-RPC communication with a single stdio tool server.
// Requests and responses are newline-delimited JSON objects; responses are
// matched to requests by id, and non-JSON lines (server log output) are
// skipped.
//
// Reading happens on a dedicated goroutine so that call can honor its
// context deadline even against a subprocess that launches and then never
// answers. On deadline the process is killed, which also unblocks the reader.
type client struct {
	name string
	cfg  ServerConfig

	cmd   *exec.Cmd
	stdin io.WriteCloser

	// responses carries parsed server replies from the reader goroutine.
	// Closed when the server's stdout closes.
	responses chan rpcResponse

	mu       sync.Mutex
	nextID   int64
	killOnce sync.Once
}

// rpcResponse is one id-tagged reply from the server.
type rpcResponse struct {
	id     int64
	result json.RawMessage
	err    error
}

func newClient(name string, cfg ServerConfig) *client {
	return &client{name: name, cfg: cfg}
}

// connect launches the server subprocess, starts the reader, and performs
// the initialize handshake. Any failure here is fatal to startup; the caller
// aborts. A server that never answers fails when ctx expires.
func (c *client) connect(ctx context.Context) error {
	if c.cfg.Command == "" {
		return fmt.Errorf("tool server %q: no command configured", c.name)
	}

	c.cmd = exec.Command(c.cfg.Command, c.cfg.Args...)
	c.cmd.Env = os.Environ()
	for k, v := range c.cfg.Env {
		c.cmd.Env = append(c.cmd.Env, k+"="+v)
	}

	stdinPipe, err := c.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe: %w", err)
	}
	stdoutPipe, err := c.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	c.stdin = stdinPipe
	c.responses = make(chan rpcResponse, 16)

	if err := c.cmd.Start(); err != nil {
		return fmt.Errorf("start tool server: %w", err)
	}
	go c.readLoop(stdoutPipe)

	if err := c.initialize(ctx); err != nil {
		c.kill()
		return fmt.Errorf("initialize: %w", err)
	}
	return nil
}

// close shuts the server down: stdin is closed so a well-behaved server
// exits on its own, then the process is killed and reaped.
func (c *client) close() {
	if c.stdin != nil {
		c.stdin.Close() //nolint:errcheck
	}
	c.kill()
}

func (c *client) kill() {
	c.killOnce.Do(func() {
		if c.cmd != nil && c.cmd.Process != nil {
			c.cmd.Process.Kill() //nolint:errcheck
			c.cmd.Wait()         //nolint:errcheck
		}
	})
}

// listTools returns the tool definitions exposed by this server.
func (c *client) listTools(ctx context.Context) ([]map[string]any, error) {
	resp, err := c.call(ctx, "tools/list", nil)
	if err != nil {
		return nil, err
	}
	var result struct {
		Tools []map[string]any `json:"tools"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, err
	}
	return result.Tools, nil
}

// callTool invokes a named tool with the given arguments and flattens the
// content blocks of the result into one text payload.
func (c *client) callTool(ctx context.Context, toolName string, args map[string]any) (string, error) {
	payload := map[string]any{
		"name":      toolName,
		"arguments": args,
	}
	resp, err := c.call(ctx, "tools/call", payload)
	if err != nil {
		return "", err
	}

	var result struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		IsError bool `json:"isError"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return string(resp), nil
	}

	var parts []string
	for _, block := range result.Content {
		if block.Text != "" {
			parts = append(parts, block.Text)
		}
	}
	out := strings.Join(parts, "\n")
	if out == "" {
		out = "(no output)"
	}
	if result.IsError {
		return "", fmt.Errorf("%s", out)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// JSON-RPC plumbing
// ---------------------------------------------------------------------------

func (c *client) initialize(ctx context.Context) error {
	params := map[string]any{
		"protocolVersion": "2024-11-05",
		"capabilities":    map[string]any{},
		"clientInfo":      map[string]any{"name": "docpilot", "version": "1.0"},
	}
	if _, err := c.call(ctx, "initialize", params); err != nil {
		return err
	}
	// Initialized notification: no id, no response expected.
	notif := map[string]any{"jsonrpc": "2.0", "method": "notifications/initialized"}
	data, _ := json.Marshal(notif)
	_, _ = fmt.Fprintf(c.stdin, "%s\n", data)
	return nil
}

// readLoop parses server stdout line by line and delivers id-tagged replies.
// It exits, closing the responses channel, when stdout closes — either
// because the server exited on its own or because kill reaped it.
func (c *client) readLoop(stdout io.Reader) {
	r := bufio.NewReader(stdout)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			close(c.responses)
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var resp map[string]any
		if err := json.Unmarshal([]byte(line), &resp); err != nil {
			continue
		}
		respID, ok := resp["id"].(float64)
		if !ok {
			continue
		}

		out := rpcResponse{id: int64(respID)}
		if errObj, ok := resp["error"]; ok {
			out.err = fmt.Errorf("tool server error: %v", errObj)
		} else {
			result, _ := json.Marshal(resp["result"])
			out.result = json.RawMessage(result)
		}

		// Drop instead of blocking: a reply nobody is waiting for anymore
		// (its call timed out) must not wedge the reader.
		select {
		case c.responses <- out:
		default:
		}
	}
}

func (c *client) nextRequestID() int64 {
	return atomic.AddInt64(&c.nextID, 1)
}

func (c *client) call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	id := c.nextRequestID()
	req := map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  method,
	}
	if params != nil {
		req["params"] = params
	}
	data, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	// One in-flight request per server.
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := fmt.Fprintf(c.stdin, "%s\n", data); err != nil {
		return nil, fmt.Errorf("write to tool server stdin: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			// A server that stopped answering is dead to this session; kill
			// it so the reader unblocks and later calls fail fast.
			c.kill()
			return nil, fmt.Errorf("tool server %q: %w", c.name, ctx.Err())
		case resp, ok := <-c.responses:
			if !ok {
				return nil, fmt.Errorf("tool server %q closed its stdout", c.name)
			}
			if resp.id != id {
				continue
			}
			return resp.result, resp.err
		}
	}
}
