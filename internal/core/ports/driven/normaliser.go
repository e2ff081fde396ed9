package driven

import (
	"github.com/wperlichek/comparative-genomics-pipeline/internal/core/domain"
)

// SequenceNormaliser parses FASTA payloads into domain sequences.
// Parsing is pure: no network, no context.
type SequenceNormaliser interface {
	// Sequence parses a single-record FASTA payload into the organism's
	// reference sequence. Multi-record payloads use the first record.
	Sequence(organism domain.Organism, payload []byte) (domain.ReferenceSequence, error)

	// Alignment parses an aligned multi-FASTA payload. Row organisms
	// come from the record headers; all rows must share one length.
	Alignment(payload []byte) (domain.Alignment, error)
}

// VariantNormaliser parses one provider's raw variant payload into raw
// records. Each normaliser reads exactly one provider's format.
type VariantNormaliser interface {
	// Source identifies which provider's payloads this normaliser reads.
	Source() domain.VariantSource

	// Variants parses the payload. Structurally incomplete records are
	// returned as-is; merging decides what to drop and count.
	Variants(payload []byte) ([]domain.RawVariant, error)
}
