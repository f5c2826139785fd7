// Package config defines the configuration surface for docpilot.
//
// Three files make up the surface:
//
//	~/.docpilot/config.json      — provider credentials and agent defaults
//	~/.docpilot/rules.yaml       — assistant persona: role, rules, workflows
//	~/.docpilot/mcp_servers.json — tool-server processes to launch at startup
//
// The rules file is parsed with YAML, which is a superset of JSON, so an
// existing rules.json loads unchanged.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// ProviderConfig holds credentials for one LLM provider.
type ProviderConfig struct {
	APIKey       string            `json:"apiKey"`
	APIBase      string            `json:"apiBase,omitempty"`
	ExtraHeaders map[string]string `json:"extraHeaders,omitempty"`
}

// ProvidersConfig holds credentials for all supported LLM providers.
type ProvidersConfig struct {
	Custom     ProviderConfig `json:"custom"`
	GigaChat   ProviderConfig `json:"gigachat"`
	OpenAI     ProviderConfig `json:"openai"`
	DeepSeek   ProviderConfig `json:"deepseek"`
	OpenRouter ProviderConfig `json:"openrouter"`
}

// AgentDefaults holds default values for agent behaviour.
type AgentDefaults struct {
	Workspace     string  `json:"workspace"`
	Model         string  `json:"model"`
	MaxTokens     int     `json:"maxTokens"`
	Temperature   float64 `json:"temperature"`
	HistoryWindow int     `json:"historyWindow"`
	LLMTimeout    int     `json:"llmTimeoutSeconds"`
}

func defaultAgentDefaults() AgentDefaults {
	return AgentDefaults{
		Workspace:     "~/.docpilot/workspace",
		Model:         "gigachat/GigaChat",
		MaxTokens:     2048,
		Temperature:   0.1,
		HistoryWindow: 50,
		LLMTimeout:    60,
	}
}

// AgentsConfig wraps agent defaults.
type AgentsConfig struct {
	Defaults AgentDefaults `json:"defaults"`
}

// ---- Tool configs ----------------------------------------------------------

// ToolsConfig groups tool-level settings.
type ToolsConfig struct {
	// InvokeTimeout bounds a single tool invocation, in seconds.
	InvokeTimeout int `json:"invokeTimeoutSeconds"`
	// WebFetchEnabled registers the built-in web_fetch tool.
	WebFetchEnabled bool `json:"webFetchEnabled"`
}

func defaultToolsConfig() ToolsConfig {
	return ToolsConfig{InvokeTimeout: 30, WebFetchEnabled: true}
}

// ---- Root config -----------------------------------------------------------

// Config is the root configuration object, loaded from ~/.docpilot/config.json.
type Config struct {
	Agents    AgentsConfig    `json:"agents"`
	Providers ProvidersConfig `json:"providers"`
	Tools     ToolsConfig     `json:"tools"`
}

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() Config {
	return Config{
		Agents: AgentsConfig{Defaults: defaultAgentDefaults()},
		Tools:  defaultToolsConfig(),
	}
}

// WorkspacePath returns the expanded absolute path to the agent workspace.
func (c *Config) WorkspacePath() string {
	ws := c.Agents.Defaults.Workspace
	if ws == "" {
		ws = "~/.docpilot/workspace"
	}
	if len(ws) >= 2 && ws[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err == nil {
			ws = filepath.Join(home, ws[2:])
		}
	}
	return ws
}

// ProviderByName returns a pointer to the ProviderConfig field matching the
// given registry name (e.g. "gigachat", "openai"). Returns nil if unknown.
func (c *Config) ProviderByName(name string) *ProviderConfig {
	switch name {
	case "custom":
		return &c.Providers.Custom
	case "gigachat":
		return &c.Providers.GigaChat
	case "openai":
		return &c.Providers.OpenAI
	case "deepseek":
		return &c.Providers.DeepSeek
	case "openrouter":
		return &c.Providers.OpenRouter
	}
	return nil
}

// ---- Persona rules file ----------------------------------------------------

// Personality tunes the assistant's communication style.
type Personality struct {
	Style    string `yaml:"style" json:"style"`
	Tone     string `yaml:"tone" json:"tone"`
	Approach string `yaml:"approach" json:"approach"`
}

// Examples holds canned persona snippets.
type Examples struct {
	Greetings []string `yaml:"greetings" json:"greetings"`
}

// Rules is the declarative persona file: who the assistant is and how it
// behaves. Role, Language, and Rules are required.
type Rules struct {
	Role        string              `yaml:"role" json:"role"`
	Language    string              `yaml:"language" json:"language"`
	Rules       []string            `yaml:"rules" json:"rules"`
	Workflows   map[string][]string `yaml:"workflows" json:"workflows"`
	Personality *Personality        `yaml:"personality" json:"personality"`
	Examples    *Examples           `yaml:"examples" json:"examples"`
}

// Validate reports the first missing required field.
func (r *Rules) Validate() error {
	if r.Role == "" {
		return fmt.Errorf("rules file: required field %q is missing", "role")
	}
	if r.Language == "" {
		return fmt.Errorf("rules file: required field %q is missing", "language")
	}
	if len(r.Rules) == 0 {
		return fmt.Errorf("rules file: required field %q is missing", "rules")
	}
	return nil
}

// ---- Tool-server file ------------------------------------------------------

// MCPServerConfig describes one tool-server subprocess.
// Enabled defaults to true when omitted.
type MCPServerConfig struct {
	Command string            `json:"command"`
	Args    []string          `json:"args"`
	Env     map[string]string `json:"env"`
	Enabled *bool             `json:"enabled"`
}

// IsEnabled reports whether the server should be launched.
func (s MCPServerConfig) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// ServerSettings holds connection-level settings shared by all servers.
type ServerSettings struct {
	// TimeoutMs bounds the startup connection handshake, in milliseconds.
	TimeoutMs int `json:"timeout"`
}

// Servers is the declarative tool-server file.
type Servers struct {
	MCPServers map[string]MCPServerConfig `json:"mcpServers"`
	Settings   ServerSettings             `json:"settings"`
}

// Validate reports a missing mcpServers section.
func (s *Servers) Validate() error {
	if s.MCPServers == nil {
		return fmt.Errorf("servers file: required section %q is missing", "mcpServers")
	}
	return nil
}

// Enabled returns only the servers flagged for launch.
func (s *Servers) Enabled() map[string]MCPServerConfig {
	out := make(map[string]MCPServerConfig)
	for name, cfg := range s.MCPServers {
		if cfg.IsEnabled() {
			out[name] = cfg
		}
	}
	return out
}
