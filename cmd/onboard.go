package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/docpilot/docpilot/internal/config"
)

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Initialize configuration and workspace",
	RunE:  runOnboard,
}

const defaultRules = `role: >
  You are a document assistant. You help the user create, read, and organize
  documents and files in their workspace.
language: English
rules:
  - Be concise and accurate.
  - Confirm destructive operations before suggesting them.
  - When an operation needs a tool, tell the user which command to type.
workflows:
  report:
    - Ask for the report topic and deadline.
    - Draft an outline.
    - Create the document from the outline.
personality:
  style: professional
  tone: friendly
  approach: step-by-step
examples:
  greetings:
    - "Hello! What would you like to work on today?"
`

const defaultServers = `{
  "mcpServers": {
    "filesystem": {
      "command": "docpilot-fs-server",
      "args": [],
      "enabled": true
    }
  },
  "settings": {
    "timeout": 30000
  }
}
`

func runOnboard(_ *cobra.Command, _ []string) error {
	cfgPath := config.ConfigPath()

	if err := os.MkdirAll(config.DataDir(), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	if _, err := os.Stat(cfgPath); err == nil {
		fmt.Printf("Config already exists at %s\n", cfgPath)
	} else {
		cfg := config.DefaultConfig()
		if err := config.Save(&cfg, cfgPath); err != nil {
			return err
		}
		fmt.Printf("✓ Created config at %s\n", cfgPath)
	}

	if err := writeIfMissing(config.RulesPath(), defaultRules); err != nil {
		return err
	}
	if err := writeIfMissing(config.ServersPath(), defaultServers); err != nil {
		return err
	}

	cfg := config.DefaultConfig()
	workspace := cfg.WorkspacePath()
	if err := os.MkdirAll(workspace, 0o755); err != nil {
		return fmt.Errorf("create workspace: %w", err)
	}
	fmt.Printf("✓ Workspace at %s\n", workspace)

	fmt.Printf("\n%s docpilot is ready!\n\n", logo)
	fmt.Println("Next steps:")
	fmt.Printf("  1. Add your API key to %s\n", cfgPath)
	fmt.Printf("  2. Point %s at your tool servers\n", config.ServersPath())
	fmt.Printf("  3. Chat: docpilot agent -m \"Hello!\"\n")
	return nil
}

func writeIfMissing(path, content string) error {
	if _, err := os.Stat(path); err == nil {
		fmt.Printf("File already exists at %s\n", path)
		return nil
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Printf("✓ Created %s\n", path)
	return nil
}
