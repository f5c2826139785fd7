// Package dependency wires core docpilot services using go.uber.org/dig.
package dependency

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/dig"

	"github.com/docpilot/docpilot/internal/agent"
	"github.com/docpilot/docpilot/internal/bus"
	"github.com/docpilot/docpilot/internal/config"
	"github.com/docpilot/docpilot/internal/cron"
	"github.com/docpilot/docpilot/internal/mcp"
	"github.com/docpilot/docpilot/internal/providers"
	"github.com/docpilot/docpilot/internal/schema"
	"github.com/docpilot/docpilot/internal/tools"
)

// Container holds the resolved core service singletons.
// Callers use the typed getter methods; they never need to import dig directly.
type Container struct {
	provider schema.LLMProvider
	msgBus   bus.Bus
	loop     *agent.Loop
	registry *tools.Registry
	mcpMgr   *mcp.Manager
	cronSvc  *cron.Service
}

func (c *Container) Provider() schema.LLMProvider { return c.provider }

func (c *Container) MessageBus() bus.Bus { return c.msgBus }

func (c *Container) AgentLoop() *agent.Loop { return c.loop }

func (c *Container) Registry() *tools.Registry { return c.registry }

func (c *Container) MCPManager() *mcp.Manager { return c.mcpMgr }

func (c *Container) CronService() *cron.Service { return c.cronSvc }

// New builds and wires all core services. Tool servers are launched and
// enumerated here, so a connection failure surfaces as a startup error before
// the interactive loop ever runs.
func New(ctx context.Context, cfg *config.Config, rules *config.Rules, servers *config.Servers) (*Container, error) {
	d := dig.New()

	statics := []any{
		func() context.Context { return ctx },
		func() *config.Config { return cfg },
		func() *config.Rules { return rules },
		func() *config.Servers { return servers },
	}
	for _, s := range statics {
		if err := d.Provide(s); err != nil {
			return nil, err
		}
	}

	constructors := []any{
		newProvider,
		newMessageBus,
		newMCPManager,
		newRegistry,
		newSettings,
		newHistory,
		newRouter,
		newCronService,
		newLoop,
	}
	for _, c := range constructors {
		if err := d.Provide(c); err != nil {
			return nil, err
		}
	}

	var result *Container
	err := d.Invoke(func(
		provider schema.LLMProvider,
		msgBus bus.Bus,
		loop *agent.Loop,
		registry *tools.Registry,
		mcpMgr *mcp.Manager,
		cronSvc *cron.Service,
	) {
		result = &Container{
			provider: provider,
			msgBus:   msgBus,
			loop:     loop,
			registry: registry,
			mcpMgr:   mcpMgr,
			cronSvc:  cronSvc,
		}
	})
	return result, err
}

func newProvider(cfg *config.Config) (schema.LLMProvider, error) {
	model := cfg.Agents.Defaults.Model
	spec, pc := cfg.MatchProvider(model)
	if pc == nil {
		return nil, fmt.Errorf("no API key configured for model %q — edit %s", model, config.ConfigPath())
	}

	name := ""
	if spec != nil {
		name = spec.Name
	}
	return providers.New(providers.Params{
		APIKey:       pc.APIKey,
		APIBase:      pc.APIBase,
		ExtraHeaders: pc.ExtraHeaders,
		DefaultModel: model,
		ProviderName: name,
	}), nil
}

func newMessageBus() bus.Bus {
	return bus.NewMessageBus(100)
}

func newMCPManager(servers *config.Servers) *mcp.Manager {
	return mcp.NewManager(servers)
}

// newRegistry launches the tool servers and snapshots their tools plus the
// built-ins into the immutable session registry.
func newRegistry(ctx context.Context, cfg *config.Config, mgr *mcp.Manager) (*tools.Registry, error) {
	builder := tools.NewRegistryBuilder()
	if cfg.Tools.WebFetchEnabled {
		builder.Add(tools.NewWebFetchTool(0))
	}
	if err := mgr.ConnectAll(ctx, builder); err != nil {
		return nil, err
	}
	return builder.Build(), nil
}

func newSettings(cfg *config.Config) schema.AgentSettings {
	d := cfg.Agents.Defaults
	return schema.NewAgentSettings(d.Model, d.MaxTokens, d.Temperature, d.HistoryWindow)
}

func newHistory(rules *config.Rules, registry *tools.Registry) *agent.History {
	return agent.NewHistory(agent.BuildSystemPrompt(rules, registry.Descriptors()))
}

func newRouter(
	cfg *config.Config,
	registry *tools.Registry,
	provider schema.LLMProvider,
	history *agent.History,
	settings schema.AgentSettings,
) *agent.Router {
	invoker := agent.NewInvoker(registry, time.Duration(cfg.Tools.InvokeTimeout)*time.Second)
	llmTimeout := time.Duration(cfg.Agents.Defaults.LLMTimeout) * time.Second
	return agent.NewRouter(agent.DefaultPatterns(), registry, invoker, provider, history, settings, llmTimeout)
}

func newCronService() *cron.Service {
	return cron.NewService(filepath.Join(config.DataDir(), "cron", "jobs.json"))
}

func newLoop(
	b bus.Bus,
	router *agent.Router,
	registry *tools.Registry,
	settings schema.AgentSettings,
	mgr *mcp.Manager,
) *agent.Loop {
	return agent.NewLoop(b, router, registry, settings, mgr.Close)
}
