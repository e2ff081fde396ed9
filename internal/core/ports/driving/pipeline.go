package driving

import (
	"context"
	"time"

	"github.com/wperlichek/comparative-genomics-pipeline/internal/core/domain"
)

// PipelineOrchestrator coordinates conservation runs over a gene set.
type PipelineOrchestrator interface {
	// Run executes the pipeline for the named genes, or for every gene
	// in the set when names is empty. Gene failures are isolated: the
	// returned report covers every attempted gene, and the error is
	// non-nil only when the run as a whole could not start or every
	// gene failed.
	Run(ctx context.Context, names []string) (*domain.RunReport, error)

	// DownloadStructures fetches the configured PDB structures for the
	// named genes (all genes when names is empty) without running the
	// conservation pipeline.
	DownloadStructures(ctx context.Context, names []string) ([]string, error)

	// Status returns progress of the run in flight, if any.
	Status() RunStatus
}

// RunStatus represents the current state of a pipeline run.
type RunStatus struct {
	// Running indicates a run is currently in progress.
	Running bool

	// StartedAt is when the run began. Zero when no run started yet.
	StartedAt time.Time

	// TotalGenes is the number of genes the run covers.
	TotalGenes int

	// CompletedGenes is the number of genes finished, failed included.
	CompletedGenes int

	// ActiveGenes lists the genes being processed right now.
	ActiveGenes []string
}
