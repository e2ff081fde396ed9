package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent pipeline runs",
	Long: `Shows the run history recorded alongside the artifact cache:
when each run started, how long it took and what its diagnostics
counted.`,
	RunE: runRuns,
}

var flagRunsLimit int

func init() {
	runsCmd.Flags().IntVar(&flagRunsLimit, "limit", 10,
		"number of runs to show (0 for all)")

	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, _ []string) error {
	if runHistory == nil {
		return errors.New("run history not configured")
	}

	runs, err := runHistory.ListRuns(context.Background(), flagRunsLimit)
	if err != nil {
		return fmt.Errorf("listing runs: %w", err)
	}

	if len(runs) == 0 {
		cmd.Println("No runs recorded yet.")
		return nil
	}

	cmd.Printf("%-36s  %-19s  %-9s  %5s  %6s  %8s  %7s\n",
		"ID", "STARTED", "DURATION", "GENES", "FAILED", "UNMAPPED", "DROPPED")
	for _, run := range runs {
		cmd.Printf("%-36s  %-19s  %-9s  %5d  %6d  %8d  %7d\n",
			run.ID,
			run.StartedAt.Local().Format(time.DateTime),
			run.FinishedAt.Sub(run.StartedAt).Round(time.Second),
			run.Genes,
			run.Failed,
			run.UnmappedVariants,
			run.DroppedRecords,
		)
	}
	return nil
}
