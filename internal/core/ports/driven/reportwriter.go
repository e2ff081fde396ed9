package driven

import (
	"github.com/wperlichek/comparative-genomics-pipeline/internal/core/domain"
)

// ReportWriter renders pipeline outcomes to the output directory.
// Writers work on the local filesystem and need no context.
type ReportWriter interface {
	// WriteGeneReports writes every report file for one gene
	// (conservation CSV, joined TSV, variants CSV, alignment FASTA,
	// guide tree). Returns the paths written.
	WriteGeneReports(report *domain.GeneReport) ([]string, error)

	// WriteRunSummary writes the per-run summary table covering every
	// gene, failed ones included. Returns the path written.
	WriteRunSummary(report *domain.RunReport) (string, error)

	// WriteStructure writes one downloaded structure file, named by the
	// reference accession and PDB identifier. Returns the path written.
	WriteStructure(accession, pdbID string, content []byte) (string, error)
}
