package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/docpilot/docpilot/internal/config"
	"github.com/docpilot/docpilot/internal/schema"
)

const defaultConnectTimeout = 30 * time.Second

// Manager owns the lifecycle of all tool-server connections for a session.
// Servers are launched once at startup; a failed launch aborts startup
// entirely, because a session running with a partial tool inventory would
// silently misroute commands.
type Manager struct {
	servers map[string]config.MCPServerConfig
	timeout time.Duration

	mu      sync.Mutex
	clients []*client
	closed  bool
}

// NewManager returns a Manager for the enabled servers in the given file.
func NewManager(servers *config.Servers) *Manager {
	timeout := defaultConnectTimeout
	if ms := servers.Settings.TimeoutMs; ms > 0 {
		timeout = time.Duration(ms) * time.Millisecond
	}
	return &Manager{servers: servers.Enabled(), timeout: timeout}
}

// ConnectAll launches every configured server concurrently, enumerates its
// tools, and registers them into ts. Any connection or enumeration failure
// tears down the already-launched servers and returns the error.
func (m *Manager) ConnectAll(ctx context.Context, ts schema.ToolRegistrar) error {
	if len(m.servers) == 0 {
		return fmt.Errorf("no tool servers enabled in %s", config.ServersPath())
	}

	type serverTools struct {
		client   *client
		wrappers []*toolWrapper
	}

	results := make([]serverTools, 0, len(m.servers))
	var resultsMu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for name, cfg := range m.servers {
		name, cfg := name, cfg
		g.Go(func() error {
			connectCtx, cancel := context.WithTimeout(gctx, m.timeout)
			defer cancel()

			c := newClient(name, ServerConfig{
				Command: cfg.Command,
				Args:    cfg.Args,
				Env:     cfg.Env,
			})
			if err := c.connect(connectCtx); err != nil {
				return fmt.Errorf("tool server %q: %w", name, err)
			}

			toolDefs, err := c.listTools(connectCtx)
			if err != nil {
				c.close()
				return fmt.Errorf("tool server %q: list tools: %w", name, err)
			}

			st := serverTools{client: c}
			for _, def := range toolDefs {
				toolName, _ := def["name"].(string)
				if toolName == "" {
					continue
				}
				desc, _ := def["description"].(string)
				inputSchema, _ := def["inputSchema"].(map[string]any)
				if inputSchema == nil {
					inputSchema = map[string]any{"type": "object", "properties": map[string]any{}}
				}
				schemaBytes, _ := json.Marshal(inputSchema)

				st.wrappers = append(st.wrappers, &toolWrapper{
					client:      c,
					server:      name,
					name:        toolName,
					description: desc,
					parameters:  json.RawMessage(schemaBytes),
				})
			}

			resultsMu.Lock()
			results = append(results, st)
			resultsMu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		for _, st := range results {
			st.client.close()
		}
		return err
	}

	// Deterministic registration order regardless of connect timing.
	sort.Slice(results, func(i, j int) bool {
		return results[i].client.name < results[j].client.name
	})

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, st := range results {
		for _, w := range st.wrappers {
			ts.Add(w)
			slog.Debug("tool registered", "server", w.server, "tool", w.name)
		}
		slog.Info("tool server connected", "server", st.client.name, "tools", len(st.wrappers))
		m.clients = append(m.clients, st.client)
	}
	return nil
}

// Close stops all tool-server subprocesses. Safe to call more than once;
// every exit path of the session loop funnels through here.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	for _, c := range m.clients {
		c.close()
	}
	m.clients = nil
}
