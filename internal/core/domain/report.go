package domain

import "time"

// JoinedRecord pairs one reference-covered alignment column with its
// conservation score and the clinical variants that map there. Columns
// where the reference organism is gapped produce no joined record.
type JoinedRecord struct {
	// Position is the 1-based reference position.
	Position int

	// Column is the 1-based alignment column the position maps to.
	Column int

	// WildType is the reference residue at the position.
	WildType byte

	// Consensus is the column's consensus residue.
	Consensus byte

	// Entropy is the column's gap-excluded Shannon entropy.
	Entropy float64

	// Variants are the merged clinical records at this position, in
	// severity order (most severe first).
	Variants []VariantRecord
}

// Diagnostics counts the non-fatal degradations of one gene run.
// A run that completes with non-zero diagnostics still produced
// reports; the counts say what is missing from them.
type Diagnostics struct {
	// UnmappedVariants is the number of merged variants whose position
	// lies outside the reference mapping.
	UnmappedVariants int

	// DroppedRecords is the number of raw variant records discarded for
	// missing a position or residue fields.
	DroppedRecords int

	// ExcludedOrganisms lists species dropped from the run, with the
	// reason, as "name: reason".
	ExcludedOrganisms []string

	// FailedSources lists variant providers whose payload could not be
	// fetched or parsed, as "source: reason".
	FailedSources []string
}

// Exclude records an organism dropped from the run.
func (d *Diagnostics) Exclude(organism, reason string) {
	d.ExcludedOrganisms = append(d.ExcludedOrganisms, organism+": "+reason)
}

// FailSource records a variant provider that contributed nothing.
func (d *Diagnostics) FailSource(source VariantSource, reason string) {
	d.FailedSources = append(d.FailedSources, string(source)+": "+reason)
}

// Clean reports whether the run degraded nothing.
func (d Diagnostics) Clean() bool {
	return d.UnmappedVariants == 0 && d.DroppedRecords == 0 &&
		len(d.ExcludedOrganisms) == 0 && len(d.FailedSources) == 0
}

// GeneReport is the complete outcome of one gene's pipeline run.
// When Err is non-nil the gene failed and the data fields are empty;
// other genes in the same run are unaffected.
type GeneReport struct {
	// Gene is the gene symbol.
	Gene string

	// ReferenceOrganism is the species whose coordinates the report
	// positions index.
	ReferenceOrganism string

	// Conservation scores every alignment column, in column order.
	Conservation []ConservationRecord

	// Joined covers every reference position, in position order.
	Joined []JoinedRecord

	// Variants are the merged clinical records, mapped or not, in
	// position order.
	Variants []VariantRecord

	// AlignmentFASTA is the aligned panel exactly as the aligner
	// produced it.
	AlignmentFASTA []byte

	// GuideTree is the aligner's guide tree in Newick form, when the
	// aligner produced one.
	GuideTree []byte

	// Diagnostics counts the run's non-fatal degradations.
	Diagnostics Diagnostics

	// Err is the gene-fatal failure, nil on success.
	Err error

	// Elapsed is the wall time the gene took.
	Elapsed time.Duration
}

// Failed reports whether the gene produced no reports.
func (r GeneReport) Failed() bool {
	return r.Err != nil
}

// RunSummary is the persisted record of one pipeline invocation.
type RunSummary struct {
	// ID is the invocation's unique identifier.
	ID string

	// StartedAt is when the invocation began.
	StartedAt time.Time

	// FinishedAt is when the invocation completed.
	FinishedAt time.Time

	// Genes is the number of genes attempted.
	Genes int

	// Failed is the number of genes that produced no reports.
	Failed int

	// UnmappedVariants is the total across genes.
	UnmappedVariants int

	// DroppedRecords is the total across genes.
	DroppedRecords int
}

// RunReport aggregates one invocation over a gene set.
type RunReport struct {
	// ID is the invocation's unique identifier.
	ID string

	// StartedAt is when the invocation began.
	StartedAt time.Time

	// Elapsed is the invocation's total wall time.
	Elapsed time.Duration

	// Genes holds one report per gene, in gene-set order.
	Genes []GeneReport
}

// FailedGenes returns the symbols of genes that produced no reports.
func (r RunReport) FailedGenes() []string {
	var failed []string
	for _, g := range r.Genes {
		if g.Failed() {
			failed = append(failed, g.Gene)
		}
	}
	return failed
}

// Summary condenses the report into its persisted form.
func (r RunReport) Summary() RunSummary {
	s := RunSummary{
		ID:         r.ID,
		StartedAt:  r.StartedAt,
		FinishedAt: r.StartedAt.Add(r.Elapsed),
		Genes:      len(r.Genes),
	}
	for _, g := range r.Genes {
		if g.Failed() {
			s.Failed++
		}
		s.UnmappedVariants += g.Diagnostics.UnmappedVariants
		s.DroppedRecords += g.Diagnostics.DroppedRecords
	}
	return s
}
