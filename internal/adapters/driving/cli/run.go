package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wperlichek/comparative-genomics-pipeline/internal/core/domain"
	"github.com/wperlichek/comparative-genomics-pipeline/internal/core/ports/driving"
)

var runCmd = &cobra.Command{
	Use:   "run [gene...]",
	Short: "Run the conservation pipeline",
	Long: `Fetches sequences and clinical variants, aligns each gene's species
panel, scores per-column conservation and writes per-gene reports.
With gene symbols as arguments, only those genes run. Otherwise the
whole configured set runs.`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	if pipeline == nil {
		return errors.New("pipeline not configured")
	}

	ctx := context.Background()

	if len(args) > 0 {
		cmd.Printf("Running %d gene(s)...\n", len(args))
	} else {
		cmd.Println("Running all configured genes...")
	}

	report, err := runWithProgress(ctx, cmd, pipeline, args)
	if report != nil && len(report.Genes) > 0 {
		cmd.Println()
		cmd.Println(renderSummary(report, stdoutIsTerminal()))
		cmd.Printf("Reports written to %s\n", outputDir)
	}
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}
	return nil
}

// runWithProgress executes the pipeline while displaying progress
// updates. Partial reports are returned even when the run errors.
func runWithProgress(
	ctx context.Context,
	cmd *cobra.Command,
	orch driving.PipelineOrchestrator,
	names []string,
) (*domain.RunReport, error) {
	type result struct {
		report *domain.RunReport
		err    error
	}

	// Start the run in a goroutine
	resCh := make(chan result, 1)
	go func() {
		report, err := orch.Run(ctx, names)
		resCh <- result{report, err}
	}()

	// Poll status every 500ms
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	lastDone := 0
	for {
		select {
		case res := <-resCh:
			if lastDone > 0 {
				cmd.Println()
			}
			return res.report, res.err
		case <-ticker.C:
			status := orch.Status()
			if status.Running && status.CompletedGenes > lastDone {
				cmd.Printf("\rProcessed %d/%d gene(s)", status.CompletedGenes, status.TotalGenes)
				lastDone = status.CompletedGenes
			}
		}
	}
}
