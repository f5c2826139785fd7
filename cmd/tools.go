package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List tools available in a session",
	RunE:  runTools,
}

func runTools(_ *cobra.Command, _ []string) error {
	setupLogging(false)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := buildContainer(ctx)
	if err != nil {
		return err
	}
	defer container.MCPManager().Close()

	descs := container.Registry().Descriptors()
	if len(descs) == 0 {
		fmt.Println("No tools available.")
		return nil
	}

	fmt.Printf("Tools (%d):\n", len(descs))
	for _, d := range descs {
		if d.Description != "" {
			fmt.Printf("  %-24s %s\n", d.Name, d.Description)
		} else {
			fmt.Printf("  %s\n", d.Name)
		}
	}
	return nil
}
