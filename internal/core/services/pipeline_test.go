package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wperlichek/comparative-genomics-pipeline/internal/adapters/driven/storage/memory"
	"github.com/wperlichek/comparative-genomics-pipeline/internal/core/domain"
	"github.com/wperlichek/comparative-genomics-pipeline/internal/core/ports/driven"
	"github.com/wperlichek/comparative-genomics-pipeline/internal/normalisers/fasta"
)

// --- Mock implementations for pipeline testing ---

// pipeMockSequenceSource implements driven.SequenceSource.
type pipeMockSequenceSource struct {
	name     string
	payloads map[string][]byte // accession -> FASTA
	errs     map[string]error  // accession -> failure

	mu    sync.Mutex
	calls int
}

func (m *pipeMockSequenceSource) Name() string { return m.name }

func (m *pipeMockSequenceSource) Supports(organism domain.Organism) bool {
	return organism.UniProtID != ""
}

func (m *pipeMockSequenceSource) FetchSequence(_ context.Context, organism domain.Organism) ([]byte, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if err, ok := m.errs[organism.Accession()]; ok {
		return nil, err
	}
	payload, ok := m.payloads[organism.Accession()]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return payload, nil
}

func (m *pipeMockSequenceSource) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// pipeMockVariantProvider implements driven.VariantProvider.
type pipeMockVariantProvider struct {
	source  domain.VariantSource
	payload []byte
	err     error
}

func (m *pipeMockVariantProvider) Source() domain.VariantSource { return m.source }

func (m *pipeMockVariantProvider) Fingerprint(gene domain.Gene) domain.Fingerprint {
	ref, _ := gene.Reference()
	return domain.Fingerprint{
		Organism:  ref.Name,
		Accession: gene.Name + "-" + string(m.source),
		Kind:      domain.ArtifactVariants,
	}
}

func (m *pipeMockVariantProvider) FetchVariants(_ context.Context, _ domain.Gene) ([]byte, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.payload, nil
}

// pipeMockVariantNormaliser implements driven.VariantNormaliser.
type pipeMockVariantNormaliser struct {
	source  domain.VariantSource
	records []domain.RawVariant
	err     error
}

func (m *pipeMockVariantNormaliser) Source() domain.VariantSource { return m.source }

func (m *pipeMockVariantNormaliser) Variants(_ []byte) ([]domain.RawVariant, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.records, nil
}

// pipeMockAligner implements driven.Aligner.
type pipeMockAligner struct {
	result *driven.AlignmentResult
	err    error

	mu    sync.Mutex
	calls int
}

func (m *pipeMockAligner) Align(_ context.Context, _ []domain.ReferenceSequence) (*driven.AlignmentResult, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func (m *pipeMockAligner) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// pipeMockStructureFetcher implements driven.StructureFetcher.
type pipeMockStructureFetcher struct {
	payloads map[string][]byte
}

func (m *pipeMockStructureFetcher) FetchStructure(_ context.Context, pdbID string) ([]byte, error) {
	payload, ok := m.payloads[pdbID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return payload, nil
}

// pipeMockReportWriter implements driven.ReportWriter.
type pipeMockReportWriter struct {
	mu         sync.Mutex
	genes      []string
	summaries  int
	structures []string
	failGene   string
}

func (m *pipeMockReportWriter) WriteGeneReports(report *domain.GeneReport) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGene != "" && m.failGene == report.Gene {
		return nil, errors.New("disk full")
	}
	m.genes = append(m.genes, report.Gene)
	return []string{report.Gene + "_conservation.csv"}, nil
}

func (m *pipeMockReportWriter) WriteRunSummary(_ *domain.RunReport) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summaries++
	return "summary.tsv", nil
}

func (m *pipeMockReportWriter) WriteStructure(accession, pdbID string, _ []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	path := accession + "_" + pdbID + ".pdb"
	m.structures = append(m.structures, path)
	return path, nil
}

func (m *pipeMockReportWriter) writtenGenes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.genes...)
}

// --- Fixtures ---

func testGeneSet() domain.GeneSet {
	return domain.GeneSet{Genes: []domain.Gene{
		{
			Name: "GENE1",
			Organisms: []domain.Organism{
				{Name: "human", UniProtID: "P00001"},
				{Name: "mouse", UniProtID: "P00002"},
			},
			PDBIDs: []string{"7DTD"},
		},
	}}
}

func testPipeline(t *testing.T, genes domain.GeneSet, seqSource *pipeMockSequenceSource, aligner *pipeMockAligner, writer *pipeMockReportWriter) (*PipelineService, *memory.ArtifactStore, *memory.RunStore) {
	t.Helper()

	providers := []driven.VariantProvider{
		&pipeMockVariantProvider{source: domain.SourceUniProt, payload: []byte("uniprot-payload")},
		&pipeMockVariantProvider{source: domain.SourceClinVar, payload: []byte("clinvar-payload")},
	}
	varNorms := []driven.VariantNormaliser{
		&pipeMockVariantNormaliser{source: domain.SourceUniProt, records: []domain.RawVariant{
			{Source: domain.SourceUniProt, RecordID: "VAR_001", Position: 2, WildType: "A", Variant: "V",
				Description: "Variant results in a non-functional channel."},
		}},
		&pipeMockVariantNormaliser{source: domain.SourceClinVar, records: []domain.RawVariant{
			{Source: domain.SourceClinVar, RecordID: "101", Position: 2, WildType: "A", Variant: "V", Label: "Pathogenic"},
			{Source: domain.SourceClinVar, RecordID: "102", Position: 99, WildType: "R", Variant: "W", Label: "Pathogenic"},
			{Source: domain.SourceClinVar, RecordID: "103", Position: 0, WildType: "A", Variant: "T", Label: "Benign"},
		}},
	}

	artifacts := memory.NewArtifactStore()
	runs := memory.NewRunStore()
	structures := &pipeMockStructureFetcher{payloads: map[string][]byte{"7DTD": []byte("HEADER structure")}}

	service := NewPipelineService(
		genes,
		[]driven.SequenceSource{seqSource},
		providers,
		aligner,
		fasta.New(),
		varNorms,
		artifacts,
		runs,
		structures,
		writer,
		Options{},
	)
	return service, artifacts, runs
}

func defaultSeqSource() *pipeMockSequenceSource {
	return &pipeMockSequenceSource{
		name: "uniprot",
		payloads: map[string][]byte{
			"P00001": []byte(">sp|P00001|TEST_HUMAN example\nMAK\n"),
			"P00002": []byte(">sp|P00002|TEST_MOUSE example\nMAAK\n"),
		},
	}
}

func defaultAligner() *pipeMockAligner {
	return &pipeMockAligner{result: &driven.AlignmentResult{
		FASTA:     []byte(">human\nM-AK\n>mouse\nMAAK\n"),
		GuideTree: []byte("(human:0.1,mouse:0.1);"),
	}}
}

// --- Tests ---

// TestPipelineService_Run_EndToEnd drives one gene from fetch to reports and
// checks scores, coordinates, merging and diagnostics together
func TestPipelineService_Run_EndToEnd(t *testing.T) {
	writer := &pipeMockReportWriter{}
	service, artifacts, runs := testPipeline(t, testGeneSet(), defaultSeqSource(), defaultAligner(), writer)

	report, err := service.Run(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, report.Genes, 1)
	assert.NotEmpty(t, report.ID)

	gene := report.Genes[0]
	require.NoError(t, gene.Err)
	assert.Equal(t, "GENE1", gene.Gene)
	assert.Equal(t, "human", gene.ReferenceOrganism)

	// Four alignment columns scored, three reference positions joined.
	require.Len(t, gene.Conservation, 4)
	require.Len(t, gene.Joined, 3)
	assert.Equal(t, []int{1, 3, 4}, []int{gene.Joined[0].Column, gene.Joined[1].Column, gene.Joined[2].Column})

	// Column 2 is covered only by the mouse row: scored, never joined.
	assert.Equal(t, byte('A'), gene.Conservation[1].Consensus)
	assert.InDelta(t, 0.0, gene.Conservation[1].Entropy, 1e-12)

	// A2V merged across both sources: most severe tier, sticky
	// loss-of-function, both sources recorded.
	require.Len(t, gene.Variants, 2)
	a2v := gene.Variants[0]
	assert.Equal(t, "A2V", a2v.ChangeID())
	assert.Equal(t, domain.TierPathogenic, a2v.Tier)
	assert.True(t, a2v.LossOfFunction)
	assert.Equal(t, []domain.VariantSource{domain.SourceClinVar, domain.SourceUniProt}, a2v.Sources)

	require.Len(t, gene.Joined[1].Variants, 1)
	assert.Equal(t, "A2V", gene.Joined[1].Variants[0].ChangeID())

	// R99W is out of range: kept in the variant list, counted unmapped.
	assert.Equal(t, "R99W", gene.Variants[1].ChangeID())
	assert.Equal(t, 1, gene.Diagnostics.UnmappedVariants)
	assert.Equal(t, 1, gene.Diagnostics.DroppedRecords)
	assert.Empty(t, gene.Diagnostics.ExcludedOrganisms)

	// Reports and history written.
	assert.Equal(t, []string{"GENE1"}, writer.writtenGenes())
	assert.Equal(t, 1, writer.summaries)

	history, err := runs.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, report.ID, history[0].ID)
	assert.Equal(t, 1, history[0].Genes)
	assert.Zero(t, history[0].Failed)

	// Sequences, both variant payloads, alignment and guide tree cached.
	stats, err := artifacts.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, stats.Artifacts)
	assert.Equal(t, 2, stats.ByKind[domain.ArtifactSequence])
	assert.Equal(t, 2, stats.ByKind[domain.ArtifactVariants])
	assert.Equal(t, 1, stats.ByKind[domain.ArtifactAlignment])
	assert.Equal(t, 1, stats.ByKind[domain.ArtifactGuideTree])
}

// TestPipelineService_Run_CacheSkipsRefetch tests that a second run reuses
// every cached artifact instead of calling the network again
func TestPipelineService_Run_CacheSkipsRefetch(t *testing.T) {
	seqSource := defaultSeqSource()
	aligner := defaultAligner()
	service, _, _ := testPipeline(t, testGeneSet(), seqSource, aligner, &pipeMockReportWriter{})

	_, err := service.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, seqSource.callCount())
	assert.Equal(t, 1, aligner.callCount())

	_, err = service.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, seqSource.callCount(), "sequences must come from cache")
	assert.Equal(t, 1, aligner.callCount(), "alignment must come from cache")
}

// TestPipelineService_Run_GeneIsolation tests that one gene failing leaves
// the other gene's run intact
func TestPipelineService_Run_GeneIsolation(t *testing.T) {
	genes := domain.GeneSet{Genes: []domain.Gene{
		testGeneSet().Genes[0],
		{
			Name: "GENE2",
			Organisms: []domain.Organism{
				{Name: "human", UniProtID: "P99999"},
			},
		},
	}}

	seqSource := defaultSeqSource()
	seqSource.errs = map[string]error{"P99999": errors.New("server unavailable")}

	writer := &pipeMockReportWriter{}
	service, _, _ := testPipeline(t, genes, seqSource, defaultAligner(), writer)

	report, err := service.Run(context.Background(), nil)
	require.NoError(t, err, "one healthy gene keeps the run healthy")
	require.Len(t, report.Genes, 2)

	assert.NoError(t, report.Genes[0].Err)
	require.Error(t, report.Genes[1].Err)
	assert.ErrorIs(t, report.Genes[1].Err, domain.ErrNoReferenceOrganism)
	assert.Equal(t, []string{"GENE2"}, report.FailedGenes())

	// The failed gene's fetch failure is recorded, not silently lost.
	require.Len(t, report.Genes[1].Diagnostics.ExcludedOrganisms, 1)
	assert.Contains(t, report.Genes[1].Diagnostics.ExcludedOrganisms[0], "server unavailable")

	assert.Equal(t, []string{"GENE1"}, writer.writtenGenes())
}

// TestPipelineService_Run_AllGenesFailing tests the aggregate error when no
// gene produces reports
func TestPipelineService_Run_AllGenesFailing(t *testing.T) {
	seqSource := &pipeMockSequenceSource{
		name: "uniprot",
		errs: map[string]error{
			"P00001": errors.New("timeout"),
			"P00002": errors.New("timeout"),
		},
	}

	service, _, _ := testPipeline(t, testGeneSet(), seqSource, defaultAligner(), &pipeMockReportWriter{})

	report, err := service.Run(context.Background(), nil)
	require.Error(t, err)
	require.Len(t, report.Genes, 1)
	assert.ErrorIs(t, report.Genes[0].Err, domain.ErrNoReferenceOrganism)
}

// TestPipelineService_Run_NonReferenceMismatchExcluded tests that a
// corrupted non-reference row degrades to an exclusion
func TestPipelineService_Run_NonReferenceMismatchExcluded(t *testing.T) {
	aligner := &pipeMockAligner{result: &driven.AlignmentResult{
		// Mouse row strips to MAVK, but its fetched sequence is MAAK.
		FASTA: []byte(">human\nM-AK\n>mouse\nMAVK\n"),
	}}

	service, _, _ := testPipeline(t, testGeneSet(), defaultSeqSource(), aligner, &pipeMockReportWriter{})

	report, err := service.Run(context.Background(), nil)
	require.NoError(t, err)

	gene := report.Genes[0]
	require.NoError(t, gene.Err)
	require.Len(t, gene.Diagnostics.ExcludedOrganisms, 1)
	assert.Contains(t, gene.Diagnostics.ExcludedOrganisms[0], "mouse")

	// Only the human row is scored: column 2 is now all-gap.
	require.Len(t, gene.Conservation, 4)
	assert.InDelta(t, domain.MaxEntropy, gene.Conservation[1].Entropy, 1e-12)
	assert.Equal(t, 0, gene.Conservation[1].Coverage)
}

// TestPipelineService_Run_ReferenceMismatchFatal tests that a corrupted
// reference row fails the gene
func TestPipelineService_Run_ReferenceMismatchFatal(t *testing.T) {
	aligner := &pipeMockAligner{result: &driven.AlignmentResult{
		FASTA: []byte(">human\nM-VK\n>mouse\nMAAK\n"),
	}}

	service, _, _ := testPipeline(t, testGeneSet(), defaultSeqSource(), aligner, &pipeMockReportWriter{})

	report, err := service.Run(context.Background(), nil)
	require.Error(t, err)
	require.Len(t, report.Genes, 1)
	assert.True(t, domain.IsSequenceMismatch(report.Genes[0].Err))
}

// TestPipelineService_Run_ProviderFailureDegrades tests that a dead variant
// provider costs its records only
func TestPipelineService_Run_ProviderFailureDegrades(t *testing.T) {
	service, _, _ := testPipeline(t, testGeneSet(), defaultSeqSource(), defaultAligner(), &pipeMockReportWriter{})
	// Replace the clinvar provider with a failing one.
	service.providers = []driven.VariantProvider{
		service.providers[0],
		&pipeMockVariantProvider{source: domain.SourceClinVar, err: errors.New("rate limited")},
	}

	report, err := service.Run(context.Background(), nil)
	require.NoError(t, err)

	gene := report.Genes[0]
	require.NoError(t, gene.Err)
	require.Len(t, gene.Variants, 1, "only the uniprot record survives")
	assert.Equal(t, "A2V", gene.Variants[0].ChangeID())
	require.Len(t, gene.Diagnostics.FailedSources, 1)
	assert.Contains(t, gene.Diagnostics.FailedSources[0], "clinvar")
}

// TestPipelineService_Run_UnknownGene tests rejection before any work starts
func TestPipelineService_Run_UnknownGene(t *testing.T) {
	service, _, _ := testPipeline(t, testGeneSet(), defaultSeqSource(), defaultAligner(), &pipeMockReportWriter{})

	_, err := service.Run(context.Background(), []string{"NOPE"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	status := service.Status()
	assert.False(t, status.Running)
}

// TestPipelineService_Run_WriteFailure tests that report-writing failures
// mark the gene failed while keeping its computed data
func TestPipelineService_Run_WriteFailure(t *testing.T) {
	writer := &pipeMockReportWriter{failGene: "GENE1"}
	service, _, _ := testPipeline(t, testGeneSet(), defaultSeqSource(), defaultAligner(), writer)

	report, err := service.Run(context.Background(), nil)
	require.Error(t, err)

	gene := report.Genes[0]
	require.Error(t, gene.Err)
	assert.Contains(t, gene.Err.Error(), "write reports")
	assert.Len(t, gene.Conservation, 4, "computed data survives the write failure")
}

// TestPipelineService_Status tests final counters after a run
func TestPipelineService_Status(t *testing.T) {
	service, _, _ := testPipeline(t, testGeneSet(), defaultSeqSource(), defaultAligner(), &pipeMockReportWriter{})

	status := service.Status()
	assert.False(t, status.Running)
	assert.Zero(t, status.TotalGenes)

	_, err := service.Run(context.Background(), nil)
	require.NoError(t, err)

	status = service.Status()
	assert.False(t, status.Running)
	assert.Equal(t, 1, status.TotalGenes)
	assert.Equal(t, 1, status.CompletedGenes)
	assert.Empty(t, status.ActiveGenes)
}

// TestPipelineService_DownloadStructures tests the structure fetch path
func TestPipelineService_DownloadStructures(t *testing.T) {
	writer := &pipeMockReportWriter{}
	service, artifacts, _ := testPipeline(t, testGeneSet(), defaultSeqSource(), defaultAligner(), writer)

	paths, err := service.DownloadStructures(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"P00001_7DTD.pdb"}, paths)

	stats, err := artifacts.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ByKind[domain.ArtifactStructure])
}

// TestPipelineService_DownloadStructures_NoFetcher tests the nil-fetcher error
func TestPipelineService_DownloadStructures_NoFetcher(t *testing.T) {
	service, _, _ := testPipeline(t, testGeneSet(), defaultSeqSource(), defaultAligner(), &pipeMockReportWriter{})
	service.structures = nil

	_, err := service.DownloadStructures(context.Background(), nil)
	assert.Error(t, err)
}
