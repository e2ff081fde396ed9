package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrEmptyAlignment", ErrEmptyAlignment},
		{"ErrNoReferenceOrganism", ErrNoReferenceOrganism},
		{"ErrUnmappablePosition", ErrUnmappablePosition},
		{"ErrMalformedVariant", ErrMalformedVariant},
		{"ErrRunInProgress", ErrRunInProgress},
		{"ErrRateLimited", ErrRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

// TestRetrievalError tests message rendering and unwrapping
func TestRetrievalError(t *testing.T) {
	underlying := errors.New("connection refused")
	err := &RetrievalError{Provider: "uniprot", Accession: "P35498", Err: underlying}

	assert.Equal(t, `retrieve "P35498" from uniprot: connection refused`, err.Error())
	assert.True(t, errors.Is(err, underlying))
}

// TestIsRetrievalFailure tests detection through wrapping
func TestIsRetrievalFailure(t *testing.T) {
	err := &RetrievalError{Provider: "clinvar", Accession: "SCN1A", Err: ErrRateLimited}
	wrapped := fmt.Errorf("fetch variants: %w", err)

	assert.True(t, IsRetrievalFailure(wrapped))
	assert.False(t, IsRetrievalFailure(ErrNotFound))
	assert.False(t, IsRetrievalFailure(nil))
}

// TestSequenceMismatchError_Residue tests the residue-divergence message
func TestSequenceMismatchError_Residue(t *testing.T) {
	err := &SequenceMismatchError{
		Organism: "mouse",
		Position: 42,
		Want:     'A',
		Got:      'V',
	}

	assert.Equal(t, `sequence mismatch for mouse at position 42: reference 'A', aligned 'V'`, err.Error())
}

// TestSequenceMismatchError_Length tests the length-divergence message
func TestSequenceMismatchError_Length(t *testing.T) {
	err := &SequenceMismatchError{
		Organism:   "human",
		RefLen:     2009,
		AlignedLen: 2008,
	}

	assert.Equal(t, "sequence mismatch for human: reference has 2009 residues, aligned row strips to 2008", err.Error())
}

// TestIsSequenceMismatch tests detection through wrapping
func TestIsSequenceMismatch(t *testing.T) {
	err := &SequenceMismatchError{Organism: "zebrafish", Position: 1, Want: 'M', Got: 'L'}
	wrapped := fmt.Errorf("verify alignment: %w", err)

	assert.True(t, IsSequenceMismatch(wrapped))
	assert.False(t, IsSequenceMismatch(ErrEmptyAlignment))
	assert.False(t, IsSequenceMismatch(nil))
}
