package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/docpilot/docpilot/internal/config"
	"github.com/docpilot/docpilot/internal/cron"
	"github.com/docpilot/docpilot/internal/shared/cmdutils"
)

var cronCmd = &cobra.Command{
	Use:   "cron",
	Short: "Manage scheduled prompts",
}

func init() {
	cronCmd.AddCommand(cronListCmd)
	cronCmd.AddCommand(cronAddCmd)
	cronCmd.AddCommand(cronRemoveCmd)
	cronCmd.AddCommand(cronEnableCmd)
	cronCmd.AddCommand(cronRunCmd)
}

// ---- list ------------------------------------------------------------------

var cronListAll bool

var cronListCmd = &cobra.Command{
	Use:   "list",
	Short: "List scheduled prompts",
	RunE: func(_ *cobra.Command, _ []string) error {
		svc := cron.NewService(cronStorePath())
		jobs := svc.ListJobs(cronListAll)
		if len(jobs) == 0 {
			fmt.Println("No scheduled prompts.")
			return nil
		}
		fmt.Printf("%-10s %-20s %-25s %-10s %-20s\n", "ID", "Name", "Schedule", "Status", "Next Run")
		fmt.Println(strings.Repeat("-", 88))
		for _, j := range jobs {
			status := "enabled"
			if !j.Enabled {
				status = "disabled"
			}
			nextRun := ""
			if j.State.NextRunAtMs != nil {
				nextRun = time.UnixMilli(*j.State.NextRunAtMs).Format("2006-01-02 15:04")
			}
			fmt.Printf("%-10s %-20s %-25s %-10s %-20s\n",
				j.ID, truncStr(j.Name, 19), truncStr(formatSchedule(j.Schedule), 24), status, nextRun)
		}
		return nil
	},
}

func init() {
	cronListCmd.Flags().BoolVarP(&cronListAll, "all", "a", false, "Include disabled prompts")
}

// ---- add -------------------------------------------------------------------

var (
	cronAddName   string
	cronAddPrompt string
	cronAddEvery  int
	cronAddCron   string
	cronAddTZ     string
	cronAddAt     string
)

var cronAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a scheduled prompt",
	RunE: func(_ *cobra.Command, _ []string) error {
		if cronAddTZ != "" && cronAddCron == "" {
			return fmt.Errorf("--tz can only be used with --cron")
		}

		var sched cron.Schedule
		switch {
		case cronAddEvery > 0:
			ms := int64(cronAddEvery) * 1000
			sched = cron.Schedule{Kind: "every", EveryMs: &ms}
		case cronAddCron != "":
			sched = cron.Schedule{Kind: "cron", Expr: &cronAddCron}
			if cronAddTZ != "" {
				sched.TZ = &cronAddTZ
			}
		case cronAddAt != "":
			dt, err := time.ParseInLocation("2006-01-02T15:04:05", cronAddAt, time.Local)
			if err != nil {
				dt, err = time.Parse(time.RFC3339, cronAddAt)
				if err != nil {
					return fmt.Errorf("invalid --at value %q: %w", cronAddAt, err)
				}
			}
			ms := dt.UnixMilli()
			sched = cron.Schedule{Kind: "at", AtMs: &ms}
		default:
			return fmt.Errorf("must specify --every, --cron, or --at")
		}

		svc := cron.NewService(cronStorePath())
		id, err := svc.AddJob(cronAddName, cronAddPrompt, sched, sched.Kind == "at")
		if err != nil {
			return err
		}
		fmt.Printf("✓ Added prompt '%s' (%s)\n", cronAddName, id)
		return nil
	},
}

func init() {
	cronAddCmd.Flags().StringVarP(&cronAddName, "name", "n", "", "Job name (required)")
	cronAddCmd.Flags().StringVarP(&cronAddPrompt, "prompt", "p", "", "Prompt for the assistant (required)")
	cronAddCmd.Flags().IntVarP(&cronAddEvery, "every", "e", 0, "Run every N seconds")
	cronAddCmd.Flags().StringVarP(&cronAddCron, "cron", "c", "", "Cron expression (e.g. '0 9 * * *')")
	cronAddCmd.Flags().StringVar(&cronAddTZ, "tz", "", "IANA timezone for --cron")
	cronAddCmd.Flags().StringVar(&cronAddAt, "at", "", "Run once at ISO datetime")

	_ = cronAddCmd.MarkFlagRequired("name")
	_ = cronAddCmd.MarkFlagRequired("prompt")
}

// ---- remove / enable -------------------------------------------------------

var cronRemoveCmd = &cobra.Command{
	Use:   "remove <job-id>",
	Short: "Remove a scheduled prompt",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		svc := cron.NewService(cronStorePath())
		if svc.RemoveJob(args[0]) {
			fmt.Printf("✓ Removed %s\n", args[0])
		} else {
			fmt.Printf("Job %s not found\n", args[0])
		}
		return nil
	},
}

var cronEnableDisable bool

var cronEnableCmd = &cobra.Command{
	Use:   "enable <job-id>",
	Short: "Enable (or disable) a scheduled prompt",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		svc := cron.NewService(cronStorePath())
		job, ok := svc.EnableJob(args[0], !cronEnableDisable)
		if !ok {
			fmt.Printf("Job %s not found\n", args[0])
			return nil
		}
		action := "enabled"
		if cronEnableDisable {
			action = "disabled"
		}
		fmt.Printf("✓ '%s' %s\n", job.Name, action)
		return nil
	},
}

func init() {
	cronEnableCmd.Flags().BoolVar(&cronEnableDisable, "disable", false, "Disable instead of enable")
}

// ---- run -------------------------------------------------------------------

var cronRunForce bool

var cronRunCmd = &cobra.Command{
	Use:   "run <job-id>",
	Short: "Manually run a scheduled prompt",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		setupLogging(false)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		container, err := buildContainer(ctx)
		if err != nil {
			return err
		}
		defer container.MCPManager().Close()

		loop := container.AgentLoop()
		svc := cron.NewService(cronStorePath())
		svc.SetOnJob(func(ctx context.Context, job cron.Job) (string, error) {
			resp := loop.ProcessDirect(ctx, job.Payload.Prompt)
			cmdutils.PrintResponse(resp)
			return resp, nil
		})

		if svc.RunJob(ctx, args[0], cronRunForce) {
			fmt.Println("✓ Job executed")
		} else {
			fmt.Printf("Failed to run job %s (not found or disabled; use --force)\n", args[0])
		}
		return nil
	},
}

func init() {
	cronRunCmd.Flags().BoolVarP(&cronRunForce, "force", "f", false, "Run even if disabled")
}

// ---- helpers ---------------------------------------------------------------

func cronStorePath() string {
	return filepath.Join(config.DataDir(), "cron", "jobs.json")
}

func formatSchedule(s cron.Schedule) string {
	switch s.Kind {
	case "every":
		if s.EveryMs != nil {
			return fmt.Sprintf("every %ds", *s.EveryMs/1000)
		}
	case "cron":
		if s.Expr != nil {
			if s.TZ != nil {
				return *s.Expr + " (" + *s.TZ + ")"
			}
			return *s.Expr
		}
	case "at":
		return "one-time"
	}
	return s.Kind
}

func truncStr(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}
