package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"mural/internal/ipc"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon and scheduler state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				status, err := client.Status()
				if err != nil {
					return err
				}
				renderStatus(cmd.OutOrStdout(), status)
				return nil
			})
		},
	}
}

func renderStatus(out io.Writer, status *ipc.StatusResponse) {
	colorize := false
	if f, ok := out.(*os.File); ok {
		colorize = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}

	running := "stopped"
	color := ansiRed
	if status.Running {
		running = "running"
		color = ansiGreen
	}
	if colorize {
		running = color + running + ansiReset
	}

	fmt.Fprintf(out, "Daemon:        %s (pid %d)\n", running, status.PID)
	fmt.Fprintf(out, "Stitch mode:   %s\n", yesNo(status.Stitch))
	fmt.Fprintf(out, "Cycle active:  %s\n", yesNo(status.CycleActive))
	fmt.Fprintf(out, "Poll interval: %ds\n", status.PollSeconds)
	for i, monitor := range status.Monitors {
		fmt.Fprintf(out, "Monitor %d:     %s\n", i+1, monitor)
	}
	if status.NextRunAt != "" {
		fmt.Fprintf(out, "Next run:      %s\n", status.NextRunAt)
	}
	if status.LastCycleID != "" {
		fmt.Fprintf(out, "Last cycle:    %s (%s", status.LastCycleID, status.LastState)
		if status.LastOutcome != "" {
			fmt.Fprintf(out, ", %s", status.LastOutcome)
		}
		fmt.Fprintf(out, ", %d committed)\n", status.LastCommitted)
	}
	if status.LastError != "" {
		errText := status.LastError
		if colorize {
			errText = ansiYellow + errText + ansiReset
		}
		fmt.Fprintf(out, "Last error:    %s\n", errText)
	}
	if status.LastFinished != "" {
		fmt.Fprintf(out, "Last finished: %s\n", status.LastFinished)
	}
	fmt.Fprintf(out, "Ledger:        %s\n", status.LedgerPath)
	fmt.Fprintf(out, "Run database:  %s\n", status.RunDBPath)
}

func newNowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "now",
		Short: "Trigger an acquisition cycle immediately",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.RunNow()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
				return nil
			})
		},
	}
}

func newStopCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Stop()
				if err != nil {
					return err
				}
				if resp.Stopped {
					fmt.Fprintln(cmd.OutOrStdout(), "Daemon stopped")
				}
				return nil
			})
		},
	}
}

func newStitchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stitch",
		Short: "Toggle multi-monitor stitch mode",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.ToggleStitch()
				if err != nil {
					return err
				}
				if resp.Stitch {
					fmt.Fprintln(cmd.OutOrStdout(), "Stitch mode enabled")
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), "Stitch mode disabled")
				}
				return nil
			})
		},
	}
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent acquisition cycles",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.History(limit)
				if err != nil {
					return err
				}
				if len(resp.Runs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No recorded cycles")
					return nil
				}
				rows := make([][]string, 0, len(resp.Runs))
				for _, run := range resp.Runs {
					detail := run.Outcome
					if run.Error != "" {
						detail = run.Error
					}
					rows = append(rows, []string{
						run.StartedAt,
						run.Trigger,
						run.Status,
						strconv.Itoa(run.Committed),
						yesNo(run.Stitched),
						detail,
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Started", "Trigger", "Status", "Committed", "Stitched", "Detail"},
					rows, 3,
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of cycles to show")
	return cmd
}
