package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/wperlichek/comparative-genomics-pipeline/internal/core/domain"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and manage the artifact cache",
	Long: `The artifact cache keeps fetched sequences, variant payloads,
alignments and structures between runs, so repeat invocations only hit
the network for artifacts they have not seen.`,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache contents",
	RunE:  runCacheStats,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove cached artifacts",
	Long: `Removes every cached artifact, or only those of one kind when
--kind is given (sequence, variants, alignment, guide-tree, structure).`,
	RunE: runCacheClear,
}

var flagCacheKind string

func init() {
	cacheClearCmd.Flags().StringVar(&flagCacheKind, "kind", "",
		"only remove artifacts of this kind")

	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheStats(cmd *cobra.Command, _ []string) error {
	if artifacts == nil {
		return errors.New("artifact store not configured")
	}

	stats, err := artifacts.Stats(context.Background())
	if err != nil {
		return fmt.Errorf("reading cache stats: %w", err)
	}

	if stats.Artifacts == 0 {
		cmd.Println("Cache is empty.")
		return nil
	}

	cmd.Printf("Artifacts: %d (%s)\n", stats.Artifacts, humanize.Bytes(uint64(stats.Bytes)))

	kinds := make([]string, 0, len(stats.ByKind))
	for kind := range stats.ByKind {
		kinds = append(kinds, string(kind))
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		cmd.Printf("  %-12s %d\n", kind, stats.ByKind[domain.ArtifactKind(kind)])
	}

	cmd.Printf("Oldest fetch: %s\n", stats.OldestFetchedAt.Local().Format(time.DateTime))
	cmd.Printf("Newest fetch: %s\n", stats.NewestFetchedAt.Local().Format(time.DateTime))
	return nil
}

func runCacheClear(cmd *cobra.Command, _ []string) error {
	if artifacts == nil {
		return errors.New("artifact store not configured")
	}

	kind := domain.ArtifactKind(flagCacheKind)
	removed, err := artifacts.DeleteArtifacts(context.Background(), kind)
	if err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}

	if kind != "" {
		cmd.Printf("Removed %d %s artifact(s).\n", removed, kind)
	} else {
		cmd.Printf("Removed %d artifact(s).\n", removed)
	}
	return nil
}
