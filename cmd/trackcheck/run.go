package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"trackcheck/internal/report"
	"trackcheck/internal/scenario"
)

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Execute one scenario: capture, validate, report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()

			sc, err := scenario.Load(args[0])
			if err != nil {
				log.Errorw("Failed to load scenario", "path", args[0], "error", err)
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			app := NewApp(cfg, log)
			if err := app.Initialize(ctx); err != nil {
				log.Errorw("Failed to initialize", "error", err)
				return err
			}
			defer app.Shutdown(ctx)

			record, err := app.RunScenario(ctx, sc)
			if err != nil {
				log.ErrorwCtx(ctx, "Scenario aborted", "error", err)
				return err
			}

			printSummary(record)
			if !record.Passed {
				return fmt.Errorf("scenario %s failed", sc.ModuleTitle)
			}
			return nil
		},
	}
}

func printSummary(record *report.RunRecord) {
	fmt.Printf("run %s  module=%q area=%s passed=%v\n", record.ID, record.Module, record.Area, record.Passed)
	for _, verdict := range record.Verdicts {
		switch {
		case verdict.Skipped:
			fmt.Printf("  SKIP %-20s (no template section)\n", verdict.EventKind)
		case verdict.Passed:
			fmt.Printf("  PASS %-20s candidates=%d fields=%d\n", verdict.EventKind, verdict.Candidates, len(verdict.PassedFields))
		default:
			fmt.Printf("  FAIL %-20s candidates=%d\n", verdict.EventKind, verdict.Candidates)
			for _, mismatch := range verdict.Mismatches {
				fmt.Printf("       %s: expected %q, got %q\n", mismatch.Field, mismatch.Expected, mismatch.Actual)
			}
		}
	}
}
