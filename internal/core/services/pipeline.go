package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wperlichek/comparative-genomics-pipeline/internal/core/domain"
	"github.com/wperlichek/comparative-genomics-pipeline/internal/core/ports/driven"
	"github.com/wperlichek/comparative-genomics-pipeline/internal/core/ports/driving"
	"github.com/wperlichek/comparative-genomics-pipeline/internal/logger"
)

// Ensure PipelineService implements the interface.
var _ driving.PipelineOrchestrator = (*PipelineService)(nil)

// Pipeline tuning defaults.
const (
	// DefaultGeneConcurrency bounds how many genes run at once.
	DefaultGeneConcurrency = 2

	// DefaultFetchTimeout bounds each remote artifact fetch.
	DefaultFetchTimeout = 30 * time.Second

	// DefaultAlignTimeout bounds one alignment job end to end,
	// submission and polling included.
	DefaultAlignTimeout = 10 * time.Minute
)

// Options tunes a PipelineService. Zero values select the defaults.
type Options struct {
	// CacheDisabled bypasses the artifact store entirely.
	CacheDisabled bool

	// GeneConcurrency bounds how many genes run at once.
	GeneConcurrency int

	// FetchTimeout bounds each remote artifact fetch.
	FetchTimeout time.Duration

	// AlignTimeout bounds one alignment job end to end.
	AlignTimeout time.Duration
}

// PipelineService coordinates conservation runs: fetch, align, verify,
// score, merge, join, write.
type PipelineService struct {
	genes      domain.GeneSet
	sequences  []driven.SequenceSource
	providers  []driven.VariantProvider
	aligner    driven.Aligner
	seqNorm    driven.SequenceNormaliser
	varNorms   []driven.VariantNormaliser
	artifacts  driven.ArtifactStore
	runs       driven.RunStore
	structures driven.StructureFetcher
	reports    driven.ReportWriter
	opts       Options

	// Status tracking
	mu     sync.RWMutex
	status driving.RunStatus
}

// NewPipelineService creates a pipeline over the gene set.
// The runs store and structure fetcher are optional - if nil, run
// history and structure downloads are disabled.
func NewPipelineService(
	genes domain.GeneSet,
	sequences []driven.SequenceSource,
	providers []driven.VariantProvider,
	aligner driven.Aligner,
	seqNorm driven.SequenceNormaliser,
	varNorms []driven.VariantNormaliser,
	artifacts driven.ArtifactStore,
	runs driven.RunStore,
	structures driven.StructureFetcher,
	reports driven.ReportWriter,
	opts Options,
) *PipelineService {
	if opts.GeneConcurrency <= 0 {
		opts.GeneConcurrency = DefaultGeneConcurrency
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultFetchTimeout
	}
	if opts.AlignTimeout <= 0 {
		opts.AlignTimeout = DefaultAlignTimeout
	}
	return &PipelineService{
		genes:      genes,
		sequences:  sequences,
		providers:  providers,
		aligner:    aligner,
		seqNorm:    seqNorm,
		varNorms:   varNorms,
		artifacts:  artifacts,
		runs:       runs,
		structures: structures,
		reports:    reports,
		opts:       opts,
	}
}

// Run executes the pipeline for the named genes, or every configured
// gene when names is empty. Gene failures are isolated; the returned
// error is non-nil only when the run could not start or no gene
// produced reports.
func (p *PipelineService) Run(ctx context.Context, names []string) (*domain.RunReport, error) {
	genes, err := p.selectGenes(names)
	if err != nil {
		return nil, err
	}

	if err := p.beginRun(len(genes)); err != nil {
		return nil, err
	}
	defer p.endRun()

	report := &domain.RunReport{
		ID:        uuid.New().String(),
		StartedAt: time.Now(),
	}
	logger.Info("Starting run %s: %d gene(s)", report.ID, len(genes))

	// Bounded fan-out across genes. Each goroutine writes only its own
	// result slot, so the slice needs no mutex.
	results := make([]domain.GeneReport, len(genes))
	sem := make(chan struct{}, p.opts.GeneConcurrency)
	var wg sync.WaitGroup

	for i, gene := range genes {
		wg.Add(1)
		go func(i int, gene domain.Gene) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			p.markGeneActive(gene.Name)
			defer p.markGeneDone(gene.Name)

			results[i] = p.runGene(ctx, gene)
		}(i, gene)
	}
	wg.Wait()

	report.Genes = results
	report.Elapsed = time.Since(report.StartedAt)

	if path, err := p.reports.WriteRunSummary(report); err != nil {
		logger.Warn("Failed to write run summary: %v", err)
	} else {
		logger.Debug("Run summary written to %s", path)
	}

	if p.runs != nil {
		summary := report.Summary()
		if err := p.runs.SaveRun(ctx, &summary); err != nil {
			logger.Warn("Failed to record run history: %v", err)
		}
	}

	failed := report.FailedGenes()
	logger.Info("Run %s complete: %d gene(s), %d failed, %s",
		report.ID, len(report.Genes), len(failed), report.Elapsed.Round(time.Millisecond))

	if len(failed) == len(report.Genes) {
		var errs []error
		for _, g := range report.Genes {
			errs = append(errs, fmt.Errorf("gene %s: %w", g.Gene, g.Err))
		}
		return report, errors.Join(errs...)
	}
	return report, nil
}

// DownloadStructures fetches the configured PDB entries for the named
// genes without running the conservation pipeline.
func (p *PipelineService) DownloadStructures(ctx context.Context, names []string) ([]string, error) {
	genes, err := p.selectGenes(names)
	if err != nil {
		return nil, err
	}
	if p.structures == nil {
		return nil, fmt.Errorf("structure fetcher not configured")
	}

	var (
		paths []string
		errs  []error
	)
	for _, gene := range genes {
		if len(gene.PDBIDs) == 0 {
			continue
		}
		ref, ok := gene.Reference()
		if !ok || !ref.HasAccession() {
			errs = append(errs, fmt.Errorf("gene %s: %w", gene.Name, domain.ErrNoReferenceOrganism))
			continue
		}

		for _, pdbID := range gene.PDBIDs {
			fctx, cancel := context.WithTimeout(ctx, p.opts.FetchTimeout)
			payload, err := p.fetchStructurePayload(fctx, gene, pdbID)
			cancel()
			if err != nil {
				errs = append(errs, fmt.Errorf("structure %s for %s: %w", pdbID, gene.Name, err))
				continue
			}

			path, err := p.reports.WriteStructure(ref.Accession(), pdbID, payload)
			if err != nil {
				errs = append(errs, fmt.Errorf("write structure %s: %w", pdbID, err))
				continue
			}
			logger.Info("Structure %s for %s written to %s", pdbID, gene.Name, path)
			paths = append(paths, path)
		}
	}

	if len(errs) > 0 {
		return paths, errors.Join(errs...)
	}
	return paths, nil
}

// Status returns progress of the run in flight, if any.
func (p *PipelineService) Status() driving.RunStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()

	// Return a copy to avoid race conditions.
	status := p.status
	status.ActiveGenes = append([]string(nil), p.status.ActiveGenes...)
	return status
}

// runGene executes the full pipeline for one gene. Every failure is
// captured in the returned report; nothing escapes to other genes.
//
//nolint:gocyclo // Orchestration function with necessary sequential steps
func (p *PipelineService) runGene(ctx context.Context, gene domain.Gene) (report domain.GeneReport) {
	started := time.Now()
	defer func() { report.Elapsed = time.Since(started) }()

	report.Gene = gene.Name
	logger.Section("Gene " + gene.Name)

	ref, ok := gene.Reference()
	if !ok || !ref.HasAccession() {
		report.Err = domain.ErrNoReferenceOrganism
		return report
	}
	report.ReferenceOrganism = ref.Name

	// 1. Fetch every organism's sequence and every provider's variant
	// payload concurrently, then join.
	seqs, payloads := p.fetchGeneArtifacts(ctx, gene, &report.Diagnostics)

	refSeq, ok := sequenceFor(seqs, ref.Name)
	if !ok {
		report.Err = domain.ErrNoReferenceOrganism
		return report
	}

	// 2. Align the panel (cache-first). A panel of one sequence aligns
	// to itself without a remote job.
	alignment, fasta, tree, err := p.alignPanel(ctx, gene, seqs)
	if err != nil {
		report.Err = err
		return report
	}
	report.AlignmentFASTA = fasta
	report.GuideTree = tree

	// 3. Verify every row against its reference and build the
	// reference coordinate map. Non-reference mismatches exclude that
	// organism from scoring; a reference mismatch is fatal for the gene.
	pmap, scored, err := p.verifyAndMap(seqs, alignment, ref.Name, &report.Diagnostics)
	if err != nil {
		report.Err = err
		return report
	}

	// 4. Score every column.
	scores, err := ScoreAlignment(scored)
	if err != nil {
		report.Err = err
		return report
	}
	report.Conservation = scores

	// 5. Parse and merge variants from every provider that delivered.
	raws := p.normaliseVariants(payloads, &report.Diagnostics)
	merged, dropped := MergeVariants(raws)
	report.Variants = merged
	report.Diagnostics.DroppedRecords += dropped

	// 6. Project scores onto reference coordinates, attach variants.
	joined, unmapped := JoinRecords(refSeq, pmap, scores, merged)
	report.Joined = joined
	report.Diagnostics.UnmappedVariants = unmapped

	// 7. Write the gene's report files.
	paths, err := p.reports.WriteGeneReports(&report)
	if err != nil {
		report.Err = fmt.Errorf("write reports: %w", err)
		return report
	}
	logger.Debug("Gene %s: wrote %d file(s)", gene.Name, len(paths))

	logger.Info("Gene %s: %d column(s), %d variant(s), %d unmapped, %d dropped",
		gene.Name, len(scores), len(merged), unmapped, report.Diagnostics.DroppedRecords)
	return report
}

// fetchGeneArtifacts is the gene's single fan-out/join point: one
// goroutine per organism sequence plus one per variant provider, each
// individually time-bounded. Failures land in diagnostics; surviving
// sequences come back in organism order.
func (p *PipelineService) fetchGeneArtifacts(
	ctx context.Context,
	gene domain.Gene,
	diag *domain.Diagnostics,
) ([]domain.ReferenceSequence, map[domain.VariantSource][]byte) {
	var wg sync.WaitGroup

	seqs := make([]*domain.ReferenceSequence, len(gene.Organisms))
	seqErrs := make([]error, len(gene.Organisms))
	for i, organism := range gene.Organisms {
		if !organism.HasAccession() {
			seqErrs[i] = errors.New("no accession configured")
			continue
		}
		wg.Add(1)
		go func(i int, organism domain.Organism) {
			defer wg.Done()
			fctx, cancel := context.WithTimeout(ctx, p.opts.FetchTimeout)
			defer cancel()

			payload, err := p.fetchSequencePayload(fctx, organism)
			if err != nil {
				seqErrs[i] = err
				return
			}
			seq, err := p.seqNorm.Sequence(organism, payload)
			if err != nil {
				seqErrs[i] = fmt.Errorf("parse sequence: %w", err)
				return
			}
			seqs[i] = &seq
		}(i, organism)
	}

	payloads := make([][]byte, len(p.providers))
	providerErrs := make([]error, len(p.providers))
	for j, provider := range p.providers {
		wg.Add(1)
		go func(j int, provider driven.VariantProvider) {
			defer wg.Done()
			fctx, cancel := context.WithTimeout(ctx, p.opts.FetchTimeout)
			defer cancel()

			payload, err := p.fetchVariantPayload(fctx, gene, provider)
			if err != nil {
				providerErrs[j] = err
				return
			}
			payloads[j] = payload
		}(j, provider)
	}

	wg.Wait()

	fetched := make([]domain.ReferenceSequence, 0, len(gene.Organisms))
	for i, organism := range gene.Organisms {
		if seqErrs[i] != nil {
			logger.Warn("Gene %s: excluding %s: %v", gene.Name, organism.Name, seqErrs[i])
			diag.Exclude(organism.Name, seqErrs[i].Error())
			continue
		}
		if seqs[i] != nil {
			fetched = append(fetched, *seqs[i])
		}
	}

	bySource := make(map[domain.VariantSource][]byte, len(p.providers))
	for j, provider := range p.providers {
		if providerErrs[j] != nil {
			logger.Warn("Gene %s: variants from %s unavailable: %v",
				gene.Name, provider.Source(), providerErrs[j])
			diag.FailSource(provider.Source(), providerErrs[j].Error())
			continue
		}
		bySource[provider.Source()] = payloads[j]
	}
	return fetched, bySource
}

// fetchSequencePayload returns the organism's FASTA bytes, cache-first.
func (p *PipelineService) fetchSequencePayload(ctx context.Context, organism domain.Organism) ([]byte, error) {
	fp := domain.Fingerprint{
		Organism:  organism.Name,
		Accession: organism.Accession(),
		Kind:      domain.ArtifactSequence,
	}
	if payload, ok := p.cachedArtifact(ctx, fp); ok {
		return payload, nil
	}

	source := p.sourceFor(organism)
	if source == nil {
		return nil, fmt.Errorf("no sequence source supports %s (%s)", organism.Name, organism.Accession())
	}
	payload, err := source.FetchSequence(ctx, organism)
	if err != nil {
		return nil, &domain.RetrievalError{Provider: source.Name(), Accession: organism.Accession(), Err: err}
	}
	p.storeArtifact(ctx, fp, payload)
	return payload, nil
}

// fetchVariantPayload returns one provider's raw payload, cache-first.
func (p *PipelineService) fetchVariantPayload(
	ctx context.Context,
	gene domain.Gene,
	provider driven.VariantProvider,
) ([]byte, error) {
	fp := provider.Fingerprint(gene)
	if payload, ok := p.cachedArtifact(ctx, fp); ok {
		return payload, nil
	}
	payload, err := provider.FetchVariants(ctx, gene)
	if err != nil {
		return nil, &domain.RetrievalError{Provider: string(provider.Source()), Accession: fp.Accession, Err: err}
	}
	p.storeArtifact(ctx, fp, payload)
	return payload, nil
}

// fetchStructurePayload returns one PDB entry's bytes, cache-first.
func (p *PipelineService) fetchStructurePayload(ctx context.Context, gene domain.Gene, pdbID string) ([]byte, error) {
	fp := domain.Fingerprint{
		Organism:  gene.Name,
		Accession: pdbID,
		Kind:      domain.ArtifactStructure,
	}
	if payload, ok := p.cachedArtifact(ctx, fp); ok {
		return payload, nil
	}
	payload, err := p.structures.FetchStructure(ctx, pdbID)
	if err != nil {
		return nil, &domain.RetrievalError{Provider: "pdb", Accession: pdbID, Err: err}
	}
	p.storeArtifact(ctx, fp, payload)
	return payload, nil
}

// alignPanel produces the gene's alignment, cache-first. The cache key
// covers the panel's accession set, so changing the panel re-aligns.
func (p *PipelineService) alignPanel(
	ctx context.Context,
	gene domain.Gene,
	seqs []domain.ReferenceSequence,
) (domain.Alignment, []byte, []byte, error) {
	if len(seqs) == 0 {
		return domain.Alignment{}, nil, nil, domain.ErrEmptyAlignment
	}

	if len(seqs) == 1 {
		only := seqs[0]
		aln := domain.Alignment{Sequences: []domain.AlignedSequence{
			{Organism: only.Organism, Residues: only.Residues},
		}}
		return aln, renderFASTA(seqs), nil, nil
	}

	accessions := make([]string, 0, len(seqs))
	for _, s := range seqs {
		accessions = append(accessions, s.Accession)
	}
	fpAln := domain.AlignmentFingerprint(gene.Name, accessions, domain.ArtifactAlignment)
	fpTree := domain.AlignmentFingerprint(gene.Name, accessions, domain.ArtifactGuideTree)

	fasta, ok := p.cachedArtifact(ctx, fpAln)
	var tree []byte
	if ok {
		tree, _ = p.cachedArtifact(ctx, fpTree)
	} else {
		actx, cancel := context.WithTimeout(ctx, p.opts.AlignTimeout)
		defer cancel()

		result, err := p.aligner.Align(actx, seqs)
		if err != nil {
			return domain.Alignment{}, nil, nil, fmt.Errorf("align %s: %w", gene.Name, err)
		}
		fasta = result.FASTA
		tree = result.GuideTree
		p.storeArtifact(ctx, fpAln, fasta)
		if len(tree) > 0 {
			p.storeArtifact(ctx, fpTree, tree)
		}
	}

	aln, err := p.seqNorm.Alignment(fasta)
	if err != nil {
		return domain.Alignment{}, nil, nil, fmt.Errorf("parse alignment: %w", err)
	}
	return aln, fasta, tree, nil
}

// verifyAndMap checks every fetched organism's row against its
// reference sequence. Mismatching non-reference rows exclude that
// organism from scoring; a missing or mismatching reference row is
// fatal for the gene. Returns the reference coordinate map and the
// rows that survived verification, still at full alignment width.
func (p *PipelineService) verifyAndMap(
	seqs []domain.ReferenceSequence,
	aln domain.Alignment,
	refName string,
	diag *domain.Diagnostics,
) (*domain.PositionMap, domain.Alignment, error) {
	var (
		refMap *domain.PositionMap
		kept   []domain.AlignedSequence
	)

	for _, seq := range seqs {
		row, ok := aln.ByOrganism(seq.Organism)
		if !ok {
			if seq.Organism == refName {
				return nil, domain.Alignment{}, fmt.Errorf("%w: reference row missing from alignment", domain.ErrNoReferenceOrganism)
			}
			logger.Warn("Organism %s missing from alignment, excluding", seq.Organism)
			diag.Exclude(seq.Organism, "missing from alignment")
			continue
		}

		pmap, err := BuildPositionMap(seq, row)
		if err != nil {
			if seq.Organism == refName {
				return nil, domain.Alignment{}, err
			}
			logger.Warn("Excluding %s: %v", seq.Organism, err)
			diag.Exclude(seq.Organism, err.Error())
			continue
		}

		if seq.Organism == refName {
			refMap = pmap
		}
		kept = append(kept, row)
	}

	if refMap == nil {
		return nil, domain.Alignment{}, domain.ErrNoReferenceOrganism
	}
	if len(kept) == 0 {
		return nil, domain.Alignment{}, domain.ErrEmptyAlignment
	}
	return refMap, domain.Alignment{Sequences: kept}, nil
}

// normaliseVariants parses each delivered payload with its matching
// normaliser. A payload that fails to parse degrades that provider
// only.
func (p *PipelineService) normaliseVariants(
	payloads map[domain.VariantSource][]byte,
	diag *domain.Diagnostics,
) []domain.RawVariant {
	var raws []domain.RawVariant
	for _, norm := range p.varNorms {
		payload, ok := payloads[norm.Source()]
		if !ok {
			continue
		}
		records, err := norm.Variants(payload)
		if err != nil {
			logger.Warn("Failed to parse %s variants: %v", norm.Source(), err)
			diag.FailSource(norm.Source(), fmt.Sprintf("parse: %v", err))
			continue
		}
		logger.Debug("Parsed %d raw variant(s) from %s", len(records), norm.Source())
		raws = append(raws, records...)
	}
	return raws
}

// cachedArtifact looks a fingerprint up in the artifact store. Store
// read failures degrade to a miss and the caller falls back to the
// network.
func (p *PipelineService) cachedArtifact(ctx context.Context, fp domain.Fingerprint) ([]byte, bool) {
	if p.opts.CacheDisabled || p.artifacts == nil {
		return nil, false
	}
	artifact, err := p.artifacts.GetArtifact(ctx, fp)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			logger.Warn("Cache read failed for %s: %v", fp.Key(), err)
		}
		return nil, false
	}
	logger.Debug("Cache hit: %s", fp.Key())
	return artifact.Content, true
}

// storeArtifact writes a payload through to the cache. Failures are
// logged and swallowed: an uncached run is still a correct run.
func (p *PipelineService) storeArtifact(ctx context.Context, fp domain.Fingerprint, payload []byte) {
	if p.opts.CacheDisabled || p.artifacts == nil {
		return
	}
	artifact := &domain.Artifact{Fingerprint: fp, Content: payload, FetchedAt: time.Now()}
	if err := p.artifacts.PutArtifact(ctx, artifact); err != nil {
		logger.Warn("Cache write failed for %s: %v", fp.Key(), err)
	}
}

// selectGenes resolves requested gene names against the configured set.
func (p *PipelineService) selectGenes(names []string) ([]domain.Gene, error) {
	if len(names) == 0 {
		if len(p.genes.Genes) == 0 {
			return nil, fmt.Errorf("%w: gene set is empty", domain.ErrInvalidInput)
		}
		return p.genes.Genes, nil
	}

	genes := make([]domain.Gene, 0, len(names))
	for _, name := range names {
		gene, ok := p.genes.Find(name)
		if !ok {
			return nil, fmt.Errorf("%w: unknown gene %q", domain.ErrInvalidInput, name)
		}
		genes = append(genes, gene)
	}
	return genes, nil
}

// sourceFor returns the first sequence source supporting the organism.
func (p *PipelineService) sourceFor(organism domain.Organism) driven.SequenceSource {
	for _, source := range p.sequences {
		if source.Supports(organism) {
			return source
		}
	}
	return nil
}

// beginRun claims the single run slot.
func (p *PipelineService) beginRun(total int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status.Running {
		return domain.ErrRunInProgress
	}
	p.status = driving.RunStatus{
		Running:    true,
		StartedAt:  time.Now(),
		TotalGenes: total,
	}
	return nil
}

// endRun releases the run slot, keeping the final counters readable.
func (p *PipelineService) endRun() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status.Running = false
	p.status.ActiveGenes = nil
}

// markGeneActive records a gene entering its run slot.
func (p *PipelineService) markGeneActive(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status.ActiveGenes = append(p.status.ActiveGenes, name)
}

// markGeneDone records a gene finishing, failed or not.
func (p *PipelineService) markGeneDone(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status.CompletedGenes++

	var active []string
	for _, g := range p.status.ActiveGenes {
		if g != name {
			active = append(active, g)
		}
	}
	p.status.ActiveGenes = active
}

// sequenceFor finds an organism's fetched sequence.
func sequenceFor(seqs []domain.ReferenceSequence, organism string) (domain.ReferenceSequence, bool) {
	for _, s := range seqs {
		if s.Organism == organism {
			return s, true
		}
	}
	return domain.ReferenceSequence{}, false
}

// renderFASTA writes sequences as FASTA with organism-name headers,
// the same shape the aligner produces for real panels.
func renderFASTA(seqs []domain.ReferenceSequence) []byte {
	var b strings.Builder
	for _, s := range seqs {
		b.WriteByte('>')
		b.WriteString(s.Organism)
		b.WriteByte('\n')
		b.WriteString(s.Residues)
		b.WriteByte('\n')
	}
	return []byte(b.String())
}
