package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DataDir returns the docpilot data directory: ~/.docpilot.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".docpilot"
	}
	return filepath.Join(home, ".docpilot")
}

// ConfigPath returns the default root configuration file path.
func ConfigPath() string { return filepath.Join(DataDir(), "config.json") }

// RulesPath returns the default persona rules file path.
func RulesPath() string { return filepath.Join(DataDir(), "rules.yaml") }

// ServersPath returns the default tool-server file path.
func ServersPath() string { return filepath.Join(DataDir(), "mcp_servers.json") }

// Load reads and parses the root config file at path.
// If path is empty, ConfigPath() is used. A missing file yields defaults;
// malformed JSON is an error because silently ignoring credentials would be
// worse than failing.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes cfg to path as indented JSON.
// If path is empty, ConfigPath() is used.
func Save(cfg *Config, path string) error {
	if path == "" {
		path = ConfigPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

// LoadRules reads and validates the persona rules file.
// A missing or malformed file is a configuration error: the caller aborts
// before entering the interactive loop.
func LoadRules(path string) (*Rules, error) {
	if path == "" {
		path = RulesPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules %s: %w", path, err)
	}

	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("parse rules %s: %w", path, err)
	}
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	return &rules, nil
}

// LoadServers reads and validates the tool-server file.
// Same fatality contract as LoadRules.
func LoadServers(path string) (*Servers, error) {
	if path == "" {
		path = ServersPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read servers %s: %w", path, err)
	}

	var servers Servers
	if err := json.Unmarshal(data, &servers); err != nil {
		return nil, fmt.Errorf("parse servers %s: %w", path, err)
	}
	if err := servers.Validate(); err != nil {
		return nil, err
	}
	return &servers, nil
}
