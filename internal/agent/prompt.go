package agent

import (
	"fmt"
	"sort"
	"strings"

	"github.com/docpilot/docpilot/internal/config"
	"github.com/docpilot/docpilot/internal/tools"
)

// BuildSystemPrompt renders the persona rules and the session's tool
// inventory into the system message that seeds History. The inventory is
// listed in sorted order so the prompt is stable across runs.
func BuildSystemPrompt(rules *config.Rules, descriptors []tools.Descriptor) string {
	var sb strings.Builder

	sb.WriteString(rules.Role)
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "Always respond in %s.\n", rules.Language)

	if len(rules.Rules) > 0 {
		sb.WriteString("\nRules:\n")
		for _, r := range rules.Rules {
			sb.WriteString("- " + r + "\n")
		}
	}

	if len(rules.Workflows) > 0 {
		sb.WriteString("\nWorkflows:\n")
		for _, name := range workflowNames(rules.Workflows) {
			fmt.Fprintf(&sb, "%s:\n", name)
			for i, step := range rules.Workflows[name] {
				fmt.Fprintf(&sb, "  %d. %s\n", i+1, step)
			}
		}
	}

	if p := rules.Personality; p != nil {
		sb.WriteString("\nCommunication style:\n")
		if p.Style != "" {
			sb.WriteString("- Style: " + p.Style + "\n")
		}
		if p.Tone != "" {
			sb.WriteString("- Tone: " + p.Tone + "\n")
		}
		if p.Approach != "" {
			sb.WriteString("- Approach: " + p.Approach + "\n")
		}
	}

	if len(descriptors) > 0 {
		sb.WriteString("\nAvailable tools:\n")
		for _, d := range descriptors {
			if d.Description != "" {
				fmt.Fprintf(&sb, "- %s: %s\n", d.Name, d.Description)
			} else {
				fmt.Fprintf(&sb, "- %s\n", d.Name)
			}
		}
		sb.WriteString("\nYou cannot call tools directly; when an operation is needed, tell the user which command to type.\n")
	}

	return strings.TrimSpace(sb.String())
}

// workflowNames returns workflow names sorted for stable rendering.
func workflowNames(ws map[string][]string) []string {
	names := make([]string, 0, len(ws))
	for name := range ws {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
