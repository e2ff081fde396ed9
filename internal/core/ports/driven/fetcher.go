package driven

import (
	"context"

	"github.com/wperlichek/comparative-genomics-pipeline/internal/core/domain"
)

// SequenceSource fetches one organism's protein sequence payload in
// FASTA form. The pipeline tries sources in registration order and
// uses the first one that supports the organism's accessions.
type SequenceSource interface {
	// Name identifies the provider for errors and diagnostics.
	Name() string

	// Supports reports whether the source can fetch this organism.
	Supports(organism domain.Organism) bool

	// FetchSequence retrieves the FASTA payload for the organism.
	FetchSequence(ctx context.Context, organism domain.Organism) ([]byte, error)
}

// VariantProvider fetches one provider's raw clinical variant payload
// for a gene's reference organism. Payloads are cached verbatim and
// parsed by the matching VariantNormaliser.
type VariantProvider interface {
	// Source identifies the provider.
	Source() domain.VariantSource

	// Fingerprint returns the cache identity of the gene's payload from
	// this provider. Identity covers whatever the provider fetches by,
	// so editing an accession invalidates the cached payload.
	Fingerprint(gene domain.Gene) domain.Fingerprint

	// FetchVariants retrieves the raw payload for the gene.
	FetchVariants(ctx context.Context, gene domain.Gene) ([]byte, error)
}

// StructureFetcher downloads experimental structure files.
type StructureFetcher interface {
	// FetchStructure downloads one PDB entry.
	FetchStructure(ctx context.Context, pdbID string) ([]byte, error)
}
