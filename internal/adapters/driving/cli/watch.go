package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/wperlichek/comparative-genomics-pipeline/internal/adapters/driven/config/file"
	"github.com/wperlichek/comparative-genomics-pipeline/internal/logger"
)

// watchDebounce coalesces editor write bursts into one re-run.
const watchDebounce = 500 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-run the pipeline when the gene set changes",
	Long: `Runs the pipeline once, then watches the gene set file and re-runs
whenever it is written. Write bursts are debounced into a single run.
Stop with Ctrl-C.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	if pipeline == nil {
		return errors.New("pipeline not configured")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory, not the file: editors typically replace the
	// file on save, which silently drops a file-level watch.
	dir := filepath.Dir(genesFile)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	watchRun(ctx, cmd)
	cmd.Printf("Watching %s (Ctrl-C to stop)\n", genesFile)

	timer := time.NewTimer(watchDebounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			cmd.Println("Stopped.")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(genesFile) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			logger.Debug("Gene set event: %s", event)
			// Drain before Reset so a pending fire cannot leak into the
			// new debounce window.
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(watchDebounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)

		case <-timer.C:
			cmd.Println("Gene set changed, re-running...")
			reloadGeneSet(cmd)
			watchRun(ctx, cmd)
			cmd.Printf("Watching %s (Ctrl-C to stop)\n", genesFile)
		}
	}
}

// watchRun executes one pipeline pass. Failures are reported but keep
// the watch alive.
func watchRun(ctx context.Context, cmd *cobra.Command) {
	report, err := runWithProgress(ctx, cmd, pipeline, nil)
	if report != nil && len(report.Genes) > 0 {
		cmd.Println()
		cmd.Println(renderSummary(report, stdoutIsTerminal()))
	}
	if err != nil {
		cmd.Printf("Run failed: %v\n", err)
	}
}

// reloadGeneSet re-reads the gene set file and swaps the pipeline over
// to it. A file that no longer parses keeps the previous set running.
func reloadGeneSet(cmd *cobra.Command) {
	gs, err := file.LoadGeneSet(genesFile)
	if err != nil {
		cmd.Printf("Keeping previous gene set: %v\n", err)
		return
	}
	geneSet = gs
	if buildPipeline != nil {
		pipeline = buildPipeline(gs)
	}
}
