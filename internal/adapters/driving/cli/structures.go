package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var structuresCmd = &cobra.Command{
	Use:   "structures [gene...]",
	Short: "Download PDB structures for the gene set",
	Long: `Downloads the experimental structures listed under each gene's
pdb_ids into <output>/structures/, without running the conservation
pipeline. With gene symbols as arguments, only those genes are
considered.`,
	RunE: runStructures,
}

func init() {
	rootCmd.AddCommand(structuresCmd)
}

func runStructures(cmd *cobra.Command, args []string) error {
	if pipeline == nil {
		return errors.New("pipeline not configured")
	}

	cmd.Println("Downloading structures...")

	paths, err := pipeline.DownloadStructures(context.Background(), args)
	for _, path := range paths {
		cmd.Printf("  %s\n", path)
	}
	if err != nil {
		return fmt.Errorf("structure download failed: %w", err)
	}

	if len(paths) == 0 {
		cmd.Println("No structures configured in the gene set.")
		return nil
	}
	cmd.Printf("Downloaded %d structure(s).\n", len(paths))
	return nil
}
