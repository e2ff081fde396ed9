package fasta

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wperlichek/comparative-genomics-pipeline/internal/core/domain"
)

// TestNormaliser_Sequence tests parsing a provider-style single record
func TestNormaliser_Sequence(t *testing.T) {
	payload := []byte(">sp|P35498|SCN1A_HUMAN Sodium channel protein type 1 subunit alpha\nMEQTVLVPPG\nPDSFNFFTRE\n")
	organism := domain.Organism{Name: "human", UniProtID: "P35498"}

	seq, err := New().Sequence(organism, payload)
	require.NoError(t, err)

	assert.Equal(t, "human", seq.Organism)
	assert.Equal(t, "P35498", seq.Accession)
	assert.Equal(t, "MEQTVLVPPGPDSFNFFTRE", seq.Residues)
}

// TestNormaliser_Sequence_Lowercase tests that residues uppercase on parse
func TestNormaliser_Sequence_Lowercase(t *testing.T) {
	payload := []byte(">NP_001090404.1 sodium channel\nmeqtvl\n")
	organism := domain.Organism{Name: "frog", EntrezProteinID: "NP_001090404"}

	seq, err := New().Sequence(organism, payload)
	require.NoError(t, err)
	assert.Equal(t, "MEQTVL", seq.Residues)
}

// TestNormaliser_Sequence_MultiRecord tests that extra records are ignored
func TestNormaliser_Sequence_MultiRecord(t *testing.T) {
	payload := []byte(">first\nMAK\n>second\nMVK\n")
	organism := domain.Organism{Name: "human", UniProtID: "P00001"}

	seq, err := New().Sequence(organism, payload)
	require.NoError(t, err)
	assert.Equal(t, "MAK", seq.Residues)
}

// TestNormaliser_Sequence_Invalid tests rejection of unusable payloads
func TestNormaliser_Sequence_Invalid(t *testing.T) {
	organism := domain.Organism{Name: "human", UniProtID: "P00001"}

	tests := []struct {
		name    string
		payload string
	}{
		{"empty payload", ""},
		{"header only", ">sp|P00001|TEST\n"},
		{"no header", "MAKMAK\n"},
		{"blank header", ">   \nMAK\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New().Sequence(organism, []byte(tt.payload))
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

// TestNormaliser_Alignment tests parsing an aligned panel with gaps
func TestNormaliser_Alignment(t *testing.T) {
	payload := []byte(">human\nM-AK\n>mouse some description\nMAAK\n")

	aln, err := New().Alignment(payload)
	require.NoError(t, err)
	require.Len(t, aln.Sequences, 2)

	assert.Equal(t, "human", aln.Sequences[0].Organism)
	assert.Equal(t, "M-AK", aln.Sequences[0].Residues)
	assert.Equal(t, "mouse", aln.Sequences[1].Organism)
	assert.Equal(t, "MAAK", aln.Sequences[1].Residues)
	assert.Equal(t, 4, aln.Columns())
}

// TestNormaliser_Alignment_WrappedLines tests multi-line rows concatenating
func TestNormaliser_Alignment_WrappedLines(t *testing.T) {
	payload := []byte(">human\nM-A\nK\n>mouse\nMAA\nK\n")

	aln, err := New().Alignment(payload)
	require.NoError(t, err)
	assert.Equal(t, "M-AK", aln.Sequences[0].Residues)
	assert.Equal(t, "MAAK", aln.Sequences[1].Residues)
}

// TestNormaliser_Alignment_RaggedRows tests rejection of unequal lengths
func TestNormaliser_Alignment_RaggedRows(t *testing.T) {
	payload := []byte(">human\nM-AK\n>mouse\nMAK\n")

	_, err := New().Alignment(payload)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "mouse")
}

// TestNormaliser_Alignment_Empty tests the empty-payload case
func TestNormaliser_Alignment_Empty(t *testing.T) {
	_, err := New().Alignment(nil)
	assert.ErrorIs(t, err, domain.ErrEmptyAlignment)
}

// TestNormaliser_Alignment_LongSingleLine tests rows delivered on one line
func TestNormaliser_Alignment_LongSingleLine(t *testing.T) {
	long := strings.Repeat("A", 100000)
	payload := []byte(">human\n" + long + "\n>mouse\n" + long + "\n")

	aln, err := New().Alignment(payload)
	require.NoError(t, err)
	assert.Equal(t, 100000, aln.Columns())
}
