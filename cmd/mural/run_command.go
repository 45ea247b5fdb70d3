package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mural/internal/display"
	"mural/internal/gallery"
	"mural/internal/history"
	"mural/internal/logging"
	"mural/internal/reconcile"
	"mural/internal/runstore"
	"mural/internal/transform"
	"mural/internal/wallpaper"
	"mural/internal/workflow"
)

// newRunCommand executes a single acquisition cycle in-process. Useful
// for cron setups and for trying out configuration without the daemon.
func newRunCommand(ctx *commandContext) *cobra.Command {
	var stitch bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one acquisition cycle without the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("prepare directories: %w", err)
			}

			logger, err := logging.New(logging.Options{
				Level:  cfg.Logging.Level,
				Format: cfg.Logging.Format,
			})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			cycle := workflow.NewCycle(workflow.Deps{
				Config:    cfg,
				Logger:    logger,
				Source:    gallery.NewHTTPClient(cfg),
				Pipeline:  transform.NewPipeline(cfg, logger),
				Committer: reconcile.New(cfg.Paths.DestinationDir, logger),
				History:   history.NewLedger(cfg.LedgerPath()),
				Monitors:  display.NewStaticProvider(cfg),
				Applier:   wallpaper.New(cfg, logger),
			})

			runCtx := workflow.RunContext{Stitch: cfg.Apply.Stitch, Trigger: runstore.TriggerManual}
			if cmd.Flags().Changed("stitch") {
				runCtx.Stitch = stitch
			}

			result := cycle.Run(cmd.Context(), runCtx)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Cycle %s finished: %s\n", result.CycleID, result.State)
			if result.Outcome != "" {
				fmt.Fprintf(out, "Outcome:   %s\n", result.Outcome)
			}
			fmt.Fprintf(out, "Committed: %d of %d candidates\n", result.Committed, result.Candidates)
			if result.Applied != "" {
				fmt.Fprintf(out, "Applied:   %s\n", result.Applied)
			}
			if result.Err != nil {
				return result.Err
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&stitch, "stitch", false, "Stitch per-monitor images into one canvas")
	return cmd
}
