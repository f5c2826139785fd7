package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/docpilot/docpilot/internal/config"
	"github.com/docpilot/docpilot/internal/providers"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show docpilot status",
	RunE:  runStatus,
}

func runStatus(_ *cobra.Command, _ []string) error {
	fmt.Printf("%s docpilot status\n\n", logo)

	printFileStatus("Config", config.ConfigPath())
	printFileStatus("Rules", config.RulesPath())
	printFileStatus("Servers", config.ServersPath())

	cfg, err := config.Load("")
	if err != nil {
		fmt.Printf("  (could not load config: %v)\n", err)
		return nil
	}

	ws := cfg.WorkspacePath()
	printFileStatus("Workspace", ws)
	fmt.Printf("Model:     %s\n\n", cfg.Agents.Defaults.Model)

	fmt.Println("Providers:")
	for _, spec := range providers.PROVIDERS {
		p := cfg.ProviderByName(spec.Name)
		if p == nil {
			continue
		}
		if p.APIKey != "" {
			fmt.Printf("  %-12s ✓\n", spec.Label())
		} else {
			fmt.Printf("  %-12s (not set)\n", spec.Label())
		}
	}

	if servers, err := config.LoadServers(""); err == nil {
		fmt.Println("\nTool servers:")
		for name, sc := range servers.MCPServers {
			state := "enabled"
			if !sc.IsEnabled() {
				state = "disabled"
			}
			fmt.Printf("  %-12s %s (%s)\n", name, sc.Command, state)
		}
	}
	return nil
}

func printFileStatus(label, path string) {
	mark := "✗"
	if _, err := os.Stat(path); err == nil {
		mark = "✓"
	}
	fmt.Printf("%-10s %s %s\n", label+":", path, mark)
}
