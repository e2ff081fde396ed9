package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity or cached artifact does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmptyAlignment indicates a gene ended up with no usable aligned
	// sequences. Fatal for that gene, not for the run.
	ErrEmptyAlignment = errors.New("empty alignment")

	// ErrNoReferenceOrganism indicates a gene whose reference organism
	// could not be fetched or verified. Fatal for that gene.
	ErrNoReferenceOrganism = errors.New("no usable reference organism")

	// ErrUnmappablePosition indicates a reference position outside the
	// mapped range. The offending variant is skipped and counted.
	ErrUnmappablePosition = errors.New("position has no alignment column")

	// ErrMalformedVariant indicates a raw variant record missing its
	// position or residue fields. The record is dropped and counted.
	ErrMalformedVariant = errors.New("malformed variant record")

	// ErrRunInProgress indicates a pipeline run is already running.
	ErrRunInProgress = errors.New("run in progress")

	// ErrRateLimited indicates a provider rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)

// RetrievalError reports a failed fetch of one remote artifact. It
// carries enough identity to say which provider and accession degraded
// the run; callers decide whether the loss is fatal.
type RetrievalError struct {
	// Provider is the remote service ("uniprot", "ncbi", "ebi", "clinvar", "pdb").
	Provider string

	// Accession is the identifier the fetch was for.
	Accession string

	// Err is the underlying failure.
	Err error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieve %q from %s: %v", e.Accession, e.Provider, e.Err)
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}

// IsRetrievalFailure checks if an error is a RetrievalError.
func IsRetrievalFailure(err error) bool {
	var re *RetrievalError
	return errors.As(err, &re)
}

// SequenceMismatchError reports an aligned row that does not reduce to
// its claimed reference sequence once gaps are stripped. Fatal for that
// organism's mapping only: the organism is excluded and the run
// continues.
type SequenceMismatchError struct {
	// Organism is the species whose row failed verification.
	Organism string

	// Position is the first diverging 1-based reference position,
	// 0 when the lengths themselves differ.
	Position int

	// Want and Got are the reference and gap-stripped residues at
	// Position. Unset for length mismatches.
	Want, Got byte

	// RefLen and AlignedLen are the reference and gap-stripped lengths.
	RefLen, AlignedLen int
}

func (e *SequenceMismatchError) Error() string {
	if e.Position == 0 {
		return fmt.Sprintf("sequence mismatch for %s: reference has %d residues, aligned row strips to %d",
			e.Organism, e.RefLen, e.AlignedLen)
	}
	return fmt.Sprintf("sequence mismatch for %s at position %d: reference %q, aligned %q",
		e.Organism, e.Position, e.Want, e.Got)
}

// IsSequenceMismatch checks if an error is a SequenceMismatchError.
func IsSequenceMismatch(err error) bool {
	var sm *SequenceMismatchError
	return errors.As(err, &sm)
}
