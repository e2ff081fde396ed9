package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"
)

var genesCmd = &cobra.Command{
	Use:   "genes",
	Short: "List the configured gene set",
	Long: `Shows every gene in the configured gene set with its species panel.
The first organism of each gene is the reference: clinical variants are
fetched for it and all report positions index into its sequence.`,
	RunE: runGenes,
}

func init() {
	rootCmd.AddCommand(genesCmd)
}

func runGenes(cmd *cobra.Command, _ []string) error {
	if len(geneSet.Genes) == 0 {
		return errors.New("gene set not configured")
	}

	cmd.Printf("%d gene(s) in %s\n", len(geneSet.Genes), genesFile)

	for _, gene := range geneSet.Genes {
		cmd.Println()
		cmd.Printf("%s\n", gene.Name)

		for i, organism := range gene.Organisms {
			role := ""
			if i == 0 {
				role = "  (reference)"
			}
			accession := organism.Accession()
			if accession == "" {
				accession = "no accession"
			}
			cmd.Printf("  %-12s %s%s\n", organism.Name, accession, role)
		}

		if len(gene.PDBIDs) > 0 {
			cmd.Printf("  structures: %s\n", strings.Join(gene.PDBIDs, ", "))
		}
	}

	return nil
}
