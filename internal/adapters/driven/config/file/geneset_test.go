package file

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wperlichek/comparative-genomics-pipeline/internal/core/domain"
)

// TestLoadGeneSet_Success loads the sample panel and verifies the domain form.
func TestLoadGeneSet_Success(t *testing.T) {
	set, err := LoadGeneSet(filepath.Join("testdata", "genes.yaml"))
	require.NoError(t, err)

	assert.Equal(t, []string{"SCN1A", "KCNQ2", "DEPDC5"}, set.Names())

	scn1a, ok := set.Find("SCN1A")
	require.True(t, ok)
	ref, ok := scn1a.Reference()
	require.True(t, ok)
	assert.Equal(t, "human", ref.Name)
	assert.Equal(t, "P35498", ref.UniProtID)
	assert.Equal(t, []string{"7DTD"}, scn1a.PDBIDs)

	mouse, ok := scn1a.Organism("mouse")
	require.True(t, ok)
	assert.Equal(t, "A2APX8", mouse.Accession())

	// Entrez fallback when no UniProt accession is curated
	depdc5, ok := set.Find("DEPDC5")
	require.True(t, ok)
	zebrafish, ok := depdc5.Organism("zebrafish")
	require.True(t, ok)
	assert.Equal(t, "", zebrafish.UniProtID)
	assert.Equal(t, "NP_001073668.2", zebrafish.Accession())
}

// TestLoadGeneSet_MissingFile verifies the error carries the path context.
func TestLoadGeneSet_MissingFile(t *testing.T) {
	_, err := LoadGeneSet(filepath.Join("testdata", "no-such-file.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading gene set")
}

// TestParseGeneSet_MalformedYAML verifies parse failures are reported as such.
func TestParseGeneSet_MalformedYAML(t *testing.T) {
	_, err := ParseGeneSet([]byte("genes: [unterminated"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing gene set")
}

// TestParseGeneSet_Validation rejects panels that cannot drive a run.
func TestParseGeneSet_Validation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantMsg string
	}{
		{
			name:    "no genes",
			yaml:    "genes: []",
			wantMsg: "no genes configured",
		},
		{
			name: "gene without symbol",
			yaml: `
genes:
  - organisms:
      - name: human
        uniprot_id: P35498
`,
			wantMsg: "gene without a symbol",
		},
		{
			name: "duplicate gene",
			yaml: `
genes:
  - name: SCN1A
    organisms:
      - name: human
        uniprot_id: P35498
  - name: SCN1A
    organisms:
      - name: human
        uniprot_id: P35498
`,
			wantMsg: `duplicate gene "SCN1A"`,
		},
		{
			name: "gene without organisms",
			yaml: `
genes:
  - name: SCN1A
`,
			wantMsg: `gene "SCN1A" has no organisms`,
		},
		{
			name: "unnamed organism",
			yaml: `
genes:
  - name: SCN1A
    organisms:
      - uniprot_id: P35498
`,
			wantMsg: `gene "SCN1A" has an unnamed organism`,
		},
		{
			name: "duplicate organism",
			yaml: `
genes:
  - name: SCN1A
    organisms:
      - name: human
        uniprot_id: P35498
      - name: human
        uniprot_id: A2APX8
`,
			wantMsg: `gene "SCN1A" lists organism "human" twice`,
		},
		{
			name: "organism without accession",
			yaml: `
genes:
  - name: SCN1A
    organisms:
      - name: human
`,
			wantMsg: `gene "SCN1A" organism "human" has no accession`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseGeneSet([]byte(tt.yaml))
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

// TestParseGeneSet_OrganismOrderPreserved keeps the YAML panel order,
// which fixes the reference organism and consensus tie-breaks.
func TestParseGeneSet_OrganismOrderPreserved(t *testing.T) {
	set, err := ParseGeneSet([]byte(`
genes:
  - name: SCN1A
    organisms:
      - name: mouse
        uniprot_id: A2APX8
      - name: human
        uniprot_id: P35498
      - name: zebrafish
        entrez_protein_id: NP_001073668.2
`))
	require.NoError(t, err)

	gene, ok := set.Find("SCN1A")
	require.True(t, ok)

	ref, ok := gene.Reference()
	require.True(t, ok)
	assert.Equal(t, "mouse", ref.Name)
	assert.Equal(t, []string{"A2APX8", "P35498", "NP_001073668.2"}, gene.Accessions())
}
