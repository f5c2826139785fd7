package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/docpilot/docpilot/internal/bus"
	"github.com/docpilot/docpilot/internal/config"
	"github.com/docpilot/docpilot/internal/cron"
	"github.com/docpilot/docpilot/internal/dependency"
	"github.com/docpilot/docpilot/internal/shared/cmdutils"
)

var (
	agentMessage string
	agentLogs    bool
)

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Interact with the assistant",
	RunE:  runAgent,
}

func init() {
	agentCmd.Flags().StringVarP(&agentMessage, "message", "m", "", "Send a single message and exit")
	agentCmd.Flags().BoolVar(&agentLogs, "logs", false, "Show runtime logs")
}

var exitCommands = map[string]bool{
	"exit":  true,
	"quit":  true,
	"/exit": true,
	"/quit": true,
	":q":    true,
}

// buildContainer loads the three config files and wires all services.
// Any missing required field, malformed file, or unreachable tool server is
// fatal here, before the interactive loop starts.
func buildContainer(ctx context.Context) (*dependency.Container, error) {
	cfg, err := config.Load("")
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	rules, err := config.LoadRules("")
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}
	servers, err := config.LoadServers("")
	if err != nil {
		return nil, fmt.Errorf("load servers: %w", err)
	}
	return dependency.New(ctx, cfg, rules, servers)
}

func runAgent(_ *cobra.Command, _ []string) error {
	setupLogging(agentLogs)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	container, err := buildContainer(ctx)
	if err != nil {
		return err
	}
	// Loop.Run tears the tool servers down itself; this covers the one-shot
	// path and startup errors after connect. Close is idempotent.
	defer container.MCPManager().Close()

	if agentMessage != "" {
		return runSingleMessage(ctx, container)
	}
	return runInteractive(ctx, cancel, container)
}

// runSingleMessage sends one message to the assistant and prints the reply.
func runSingleMessage(ctx context.Context, container *dependency.Container) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	res := container.AgentLoop().ProcessDirect(ctx, agentMessage)
	cmdutils.PrintResponse(res)
	return nil
}

// runInteractive starts the REPL: reads lines from stdin, sends each to the
// loop via the bus, and waits for each reply before prompting again.
func runInteractive(ctx context.Context, cancel context.CancelFunc, container *dependency.Container) error {
	fmt.Printf("%s docpilot (type 'help' for commands, 'exit' to quit)\n\n", logo)

	listenForSignals(cancel, container)

	loopDone := make(chan error, 1)
	go func() { loopDone <- container.AgentLoop().Run(ctx) }()

	// Scheduled prompts run through the same loop as typed input.
	cronSvc := container.CronService()
	cronSvc.SetOnJob(func(ctx context.Context, job cron.Job) (string, error) {
		resp := container.AgentLoop().ProcessDirect(ctx, job.Payload.Prompt)
		fmt.Printf("\n[scheduled: %s]\n", job.Name)
		cmdutils.PrintResponse(resp)
		fmt.Print("You: ")
		return resp, nil
	})
	go func() { _ = cronSvc.Start(ctx) }()

	msgBus := container.MessageBus()
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("You: ")

		if !scanner.Scan() {
			fmt.Println("\nGoodbye!")
			cancel()
			<-loopDone
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if exitCommands[strings.ToLower(line)] {
			msgBus.PublishInbound(bus.NewInboundMessage(bus.ChannelCLI, "exit"))
			waitReply(ctx, msgBus)
			<-loopDone
			return nil
		}

		msgBus.PublishInbound(bus.NewInboundMessage(bus.ChannelCLI, line))
		waitReply(ctx, msgBus)
	}
}

// waitReply blocks until the loop publishes the reply (or ctx is cancelled).
func waitReply(ctx context.Context, msgBus bus.Bus) {
	select {
	case msg := <-msgBus.OutboundChan():
		cmdutils.PrintResponse(msg.Content())
	case <-ctx.Done():
	}
}

// listenForSignals tears down and exits on SIGINT or SIGTERM.
func listenForSignals(cancel context.CancelFunc, container *dependency.Container) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nGoodbye!")
		cancel()
		container.MCPManager().Close()
		os.Exit(0)
	}()
}
