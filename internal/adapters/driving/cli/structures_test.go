package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStructuresCmd_Use(t *testing.T) {
	assert.Equal(t, "structures [gene...]", structuresCmd.Use)
}

func TestStructuresCmd_Short(t *testing.T) {
	assert.Equal(t, "Download PDB structures for the gene set", structuresCmd.Short)
}

func TestStructuresCmd_Downloads(t *testing.T) {
	mock, cleanup := setupCLITest()
	defer cleanup()
	mock.paths = []string{
		"output/structures/P35498_7DTD.pdb",
		"output/structures/P35498_6AGF.pdb",
	}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"structures"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "Downloading structures...")
	assert.Contains(t, out, "output/structures/P35498_7DTD.pdb")
	assert.Contains(t, out, "Downloaded 2 structure(s).")
}

func TestStructuresCmd_FiltersGenes(t *testing.T) {
	mock, cleanup := setupCLITest()
	defer cleanup()
	mock.paths = []string{"output/structures/P35498_7DTD.pdb"}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"structures", "SCN1A"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Equal(t, []string{"SCN1A"}, mock.gotNames)
}

func TestStructuresCmd_NoneConfigured(t *testing.T) {
	_, cleanup := setupCLITest()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"structures"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "No structures configured in the gene set.")
}

func TestStructuresCmd_PartialFailure(t *testing.T) {
	mock, cleanup := setupCLITest()
	defer cleanup()
	mock.paths = []string{"output/structures/P35498_7DTD.pdb"}
	mock.structErr = errors.New("fetching 6AGF: status 404")

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"structures"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "structure download failed")
	assert.Contains(t, buf.String(), "output/structures/P35498_7DTD.pdb")
}

func TestStructuresCmd_NotConfigured(t *testing.T) {
	oldPipeline := pipeline
	pipeline = nil
	defer func() { pipeline = oldPipeline }()

	err := runStructures(structuresCmd, nil)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "pipeline not configured")
}
