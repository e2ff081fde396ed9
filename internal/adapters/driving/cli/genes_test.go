package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wperlichek/comparative-genomics-pipeline/internal/core/domain"
)

func TestGenesCmd_Use(t *testing.T) {
	assert.Equal(t, "genes", genesCmd.Use)
}

func TestGenesCmd_Short(t *testing.T) {
	assert.Equal(t, "List the configured gene set", genesCmd.Short)
}

func TestGenesCmd_ListsPanel(t *testing.T) {
	_, cleanup := setupCLITest()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"genes"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "2 gene(s) in testdata/genes.yaml")
	assert.Contains(t, out, "SCN1A")
	assert.Contains(t, out, "DEPDC5")
	assert.Contains(t, out, "P35498")
	assert.Contains(t, out, "NP_001073668.2")
}

func TestGenesCmd_MarksReference(t *testing.T) {
	_, cleanup := setupCLITest()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"genes"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "human        P35498  (reference)")
	assert.Contains(t, buf.String(), "mouse        A2APX8\n")
}

func TestGenesCmd_ShowsMissingAccession(t *testing.T) {
	_, cleanup := setupCLITest()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"genes"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "macaque      no accession")
}

func TestGenesCmd_ListsStructures(t *testing.T) {
	_, cleanup := setupCLITest()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"genes"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "structures: 7DTD")
}

func TestGenesCmd_NotConfigured(t *testing.T) {
	oldGeneSet := geneSet
	geneSet = domain.GeneSet{}
	defer func() { geneSet = oldGeneSet }()

	err := runGenes(genesCmd, nil)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "gene set not configured")
}
