package driven

import (
	"context"

	"github.com/wperlichek/comparative-genomics-pipeline/internal/core/domain"
)

// AlignmentResult carries the aligner's outputs verbatim.
type AlignmentResult struct {
	// FASTA is the aligned panel in FASTA form.
	FASTA []byte

	// GuideTree is the Newick guide tree, nil when the aligner
	// produced none.
	GuideTree []byte
}

// Aligner produces a multiple sequence alignment for one gene's panel.
// Implementations submit to a remote service and poll until the job
// finishes, honouring ctx for cancellation.
type Aligner interface {
	// Align aligns the sequences, preserving their organism labels in
	// the output record headers.
	Align(ctx context.Context, seqs []domain.ReferenceSequence) (*AlignmentResult, error)
}
