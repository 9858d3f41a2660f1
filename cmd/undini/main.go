package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/lcroisez/undini/internal/config"
	"github.com/lcroisez/undini/internal/editor"
	undiniLua "github.com/lcroisez/undini/internal/lua"
	"github.com/lcroisez/undini/internal/models"
	"github.com/lcroisez/undini/internal/orchestrator"
	"github.com/lcroisez/undini/internal/steps"
	"github.com/lcroisez/undini/internal/storage"
	"github.com/lcroisez/undini/internal/tui"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "undini",
		Short: "Level generation pipeline driver",
		Long:  "Undini drives the Editor and the Headless Engine through the procedural level generation workflow.",
		RunE:  runTUI,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")

	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newStatusCommand())
	rootCmd.AddCommand(newListCommand())
	rootCmd.AddCommand(newAbortCommand())
	rootCmd.AddCommand(newDeleteCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func openStore() (*config.Config, *storage.Storage, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.EnsureDataDir(); err != nil {
		return nil, nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	store, err := storage.New(cfg.DBPath())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	return cfg, store, nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	orch := orchestrator.New(store, editor.NewRemote(cfg.EditorURL), cfg, logger)

	app := tui.NewApp(store, orch)
	p := tea.NewProgram(app, tea.WithAltScreen())

	_, err = p.Run()
	return err
}

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <iteration>",
		Short: "Execute a workflow variant against an iteration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			iteration, err := strconv.Atoi(args[0])
			if err != nil || iteration < 1 {
				return fmt.Errorf("iteration must be a positive integer, got %q", args[0])
			}
			variantName, _ := cmd.Flags().GetString("variant")
			scriptPath, _ := cmd.Flags().GetString("script")
			continueOnError, _ := cmd.Flags().GetBool("continue-on-error")
			meshDriven, _ := cmd.Flags().GetBool("mesh-driven")
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			timeout, _ := cmd.Flags().GetDuration("timeout")

			cfg, store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

			var session editor.Session
			if dryRun {
				// Walk the workflow against an in-memory editor; nothing real
				// is touched except the artifact directories.
				fake := editor.NewFake()
				fake.AddAsset(cfg.Assets.PCGTemplate)
				session = fake
				fmt.Println("Dry run: using an in-memory editor session")
			} else {
				session = editor.NewRemote(cfg.EditorURL)
			}

			registry := steps.NewRegistry()
			var sequence []steps.Step
			if scriptPath != "" {
				if !undiniLua.IsWorkflowScript(scriptPath) {
					return fmt.Errorf("not a workflow script: %s", scriptPath)
				}
				rt := undiniLua.NewRuntime(registry, logger)
				sequence, err = rt.Plan(scriptPath, iteration)
				if err != nil {
					return err
				}
				variantName = "script"
			} else {
				sequence, err = registry.Variant(variantName)
				if err != nil {
					return err
				}
			}

			// Ctrl-C aborts the run; a cooking engine child is killed with
			// its process group.
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			orch := orchestrator.New(store, session, cfg, logger)
			summary, err := orch.Execute(ctx, orchestrator.Options{
				Iteration:       iteration,
				Variant:         variantName,
				ScriptPath:      scriptPath,
				Steps:           sequence,
				ContinueOnError: continueOnError,
				MeshDriven:      meshDriven,
				EngineTimeout:   timeout,
			})
			if err != nil {
				return err
			}

			printSummary(summary)
			if summary.Status == models.RunStatusHalted {
				return fmt.Errorf("run #%d halted on failure", summary.RunID)
			}
			return nil
		},
	}

	cmd.Flags().String("variant", "full", "Workflow variant (full, buildings, roads)")
	cmd.Flags().String("script", "", "Lua workflow script instead of a built-in variant")
	cmd.Flags().Bool("continue-on-error", false, "Continue past failures in optional steps")
	cmd.Flags().Bool("mesh-driven", false, "Cook the engine graphs from the exported mesh set instead of the splines")
	cmd.Flags().Bool("dry-run", false, "Run against an in-memory editor session")
	cmd.Flags().Duration("timeout", 0, "Per-cook engine timeout override (e.g. 45m)")
	return cmd
}

func printSummary(summary *models.RunSummary) {
	fmt.Printf("\nRun #%d (%s, iteration %d): %s\n",
		summary.RunID, summary.Variant, summary.Iteration, summary.Status)
	for _, res := range summary.Results {
		line := fmt.Sprintf("  %d. %-20s [%s]", res.SequenceNum, res.StepName, res.Status)
		if res.Diagnostic != "" {
			line += " " + res.Diagnostic
		}
		fmt.Println(line)
	}
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status <run-id>",
		Short: "Show run status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid run ID: %w", err)
			}

			_, store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := store.GetRun(runID)
			if err != nil {
				return fmt.Errorf("failed to get run: %w", err)
			}

			fmt.Printf("Run #%d: %s, iteration %d\n", run.ID, run.Variant, run.Iteration)
			fmt.Printf("Status: %s\n", run.Status)
			if run.ScriptPath != "" {
				fmt.Printf("Script: %s\n", run.ScriptPath)
			}
			if run.CurrentStep != "" {
				fmt.Printf("Current Step: %s\n", run.CurrentStep)
			}
			if run.Error != "" {
				fmt.Printf("Error: %s\n", run.Error)
			}

			results, err := store.GetStepResultsForRun(runID)
			if err != nil {
				return err
			}

			if len(results) > 0 {
				fmt.Println("\nSteps:")
				for _, res := range results {
					line := fmt.Sprintf("  %d. %-20s [%s]", res.SequenceNum, res.StepName, res.Status)
					if res.Diagnostic != "" {
						line += " " + res.Diagnostic
					}
					fmt.Println(line)
					for _, artifact := range res.Artifacts {
						fmt.Printf("       %s\n", artifact)
					}
				}
			}

			return nil
		},
	}
}

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recent runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns(20)
			if err != nil {
				return err
			}

			if len(runs) == 0 {
				fmt.Println("No runs found.")
				return nil
			}

			for _, run := range runs {
				fmt.Printf("#%d iter %d %s [%s] %s\n",
					run.ID, run.Iteration, run.Variant, run.Status,
					storage.FormatTimeAgo(run.CreatedAt))
			}

			return nil
		},
	}
}

func newAbortCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "abort <run-id>",
		Short: "Mark a stale running run as halted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid run ID: %w", err)
			}

			_, store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := store.GetRun(runID)
			if err != nil {
				return fmt.Errorf("failed to get run: %w", err)
			}
			if run.Status.Terminal() {
				return fmt.Errorf("run #%d already finished (%s)", runID, run.Status)
			}

			// A live `undini run` aborts itself on Ctrl-C; this command cleans
			// up runs left behind by a killed process.
			now := time.Now()
			run.Status = models.RunStatusHalted
			run.Error = "aborted"
			run.CompletedAt = &now
			if err := store.UpdateRun(run); err != nil {
				return fmt.Errorf("failed to abort run: %w", err)
			}

			fmt.Printf("Aborted run #%d\n", runID)
			return nil
		},
	}
}

func newDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <run-id>",
		Short: "Delete a run and its step results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid run ID: %w", err)
			}

			_, store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.DeleteRun(runID); err != nil {
				return fmt.Errorf("failed to delete run: %w", err)
			}

			fmt.Printf("Deleted run #%d\n", runID)
			return nil
		},
	}
}
