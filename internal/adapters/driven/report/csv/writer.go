package csv

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/wperlichek/comparative-genomics-pipeline/internal/core/domain"
	"github.com/wperlichek/comparative-genomics-pipeline/internal/core/ports/driven"
)

// Ensure Writer implements the interface.
var _ driven.ReportWriter = (*Writer)(nil)

// Writer renders pipeline reports as CSV/TSV files under the output
// directory. Per-gene files go to <output>/<gene>/, the run summary to
// <output>/summary.tsv and structures to <output>/structures/.
type Writer struct {
	outputDir string
}

// New creates a report writer rooted at outputDir.
// If outputDir is empty, defaults to ./output.
func New(outputDir string) *Writer {
	if outputDir == "" {
		outputDir = "output"
	}
	return &Writer{outputDir: outputDir}
}

// Dir returns the output directory the writer is rooted at.
func (w *Writer) Dir() string {
	return w.outputDir
}

// WriteGeneReports writes the conservation CSV, joined TSV, variant CSV
// and, when present, the aligned FASTA and guide tree for one gene.
func (w *Writer) WriteGeneReports(report *domain.GeneReport) ([]string, error) {
	if report == nil || report.Gene == "" {
		return nil, domain.ErrInvalidInput
	}

	dir := filepath.Join(w.outputDir, report.Gene)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating gene output directory: %w", err)
	}

	files := []struct {
		name    string
		content []byte
	}{
		{report.Gene + "_conservation.csv", conservationCSV(report.Conservation)},
		{report.Gene + "_joined.tsv", joinedTSV(report.Joined)},
		{report.Gene + "_variants.csv", variantsCSV(report.Variants)},
	}
	if len(report.AlignmentFASTA) > 0 {
		files = append(files, struct {
			name    string
			content []byte
		}{report.Gene + ".fasta", report.AlignmentFASTA})
	}
	if len(report.GuideTree) > 0 {
		files = append(files, struct {
			name    string
			content []byte
		}{report.Gene + ".nwk", report.GuideTree})
	}

	written := make([]string, 0, len(files))
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if err := os.WriteFile(path, f.content, 0644); err != nil {
			return written, fmt.Errorf("writing %s: %w", f.name, err)
		}
		written = append(written, path)
	}

	return written, nil
}

// WriteRunSummary writes the per-gene diagnostic table for the whole
// run, failed genes included.
func (w *Writer) WriteRunSummary(report *domain.RunReport) (string, error) {
	if report == nil {
		return "", domain.ErrInvalidInput
	}

	if err := os.MkdirAll(w.outputDir, 0755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	path := filepath.Join(w.outputDir, "summary.tsv")
	if err := os.WriteFile(path, summaryTSV(report), 0644); err != nil {
		return "", fmt.Errorf("writing summary.tsv: %w", err)
	}
	return path, nil
}

// WriteStructure writes one downloaded PDB structure file.
func (w *Writer) WriteStructure(accession, pdbID string, content []byte) (string, error) {
	if accession == "" || pdbID == "" {
		return "", domain.ErrInvalidInput
	}

	dir := filepath.Join(w.outputDir, "structures")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating structures directory: %w", err)
	}

	path := filepath.Join(dir, accession+"_"+pdbID+".pdb")
	if err := os.WriteFile(path, content, 0644); err != nil {
		return "", fmt.Errorf("writing structure %s: %w", pdbID, err)
	}
	return path, nil
}

// conservationCSV renders per-column scores in the legacy layout:
// Position is the 1-based alignment column, the entropy columns keep
// their historical names and order (gap-inclusive first).
func conservationCSV(records []domain.ConservationRecord) []byte {
	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, []string{"Position", "ShannonEntropy_WithGaps", "ShannonEntropy_NoGaps"})
	for _, r := range records {
		rows = append(rows, []string{
			strconv.Itoa(r.Column),
			formatEntropy(r.GapEntropy),
			formatEntropy(r.Entropy),
		})
	}
	return renderRows(rows, ',')
}

// joinedTSV renders one row per reference position with the variants
// mapped there.
func joinedTSV(records []domain.JoinedRecord) []byte {
	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, []string{"Position", "Column", "WildType", "Consensus", "Entropy", "Variants"})
	for _, r := range records {
		rows = append(rows, []string{
			strconv.Itoa(r.Position),
			strconv.Itoa(r.Column),
			string(r.WildType),
			consensusSymbol(r.Consensus),
			formatEntropy(r.Entropy),
			renderJoinedVariants(r.Variants),
		})
	}
	return renderRows(rows, '\t')
}

// variantsCSV renders the merged variant set, mapped or not.
func variantsCSV(records []domain.VariantRecord) []byte {
	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, []string{
		"Change", "Position", "WildType", "Variant",
		"Significance", "LossOfFunction", "Sources", "RecordIDs",
	})
	for _, v := range records {
		rows = append(rows, []string{
			v.ChangeID(),
			strconv.Itoa(v.Position),
			v.WildType,
			v.Variant,
			v.Tier.String(),
			strconv.FormatBool(v.LossOfFunction),
			joinSources(v.Sources),
			strings.Join(v.RecordIDs, ";"),
		})
	}
	return renderRows(rows, ',')
}

// summaryTSV renders one diagnostics row per gene.
func summaryTSV(report *domain.RunReport) []byte {
	rows := make([][]string, 0, len(report.Genes)+1)
	rows = append(rows, []string{
		"Gene", "Status", "Columns", "Positions", "Variants",
		"Unmapped", "Dropped", "Excluded", "FailedSources", "Elapsed", "Error",
	})
	for _, g := range report.Genes {
		status := "ok"
		errMsg := "-"
		if g.Failed() {
			status = "failed"
			errMsg = g.Err.Error()
		}
		rows = append(rows, []string{
			g.Gene,
			status,
			strconv.Itoa(len(g.Conservation)),
			strconv.Itoa(len(g.Joined)),
			strconv.Itoa(len(g.Variants)),
			strconv.Itoa(g.Diagnostics.UnmappedVariants),
			strconv.Itoa(g.Diagnostics.DroppedRecords),
			joinOrDash(g.Diagnostics.ExcludedOrganisms),
			joinOrDash(g.Diagnostics.FailedSources),
			g.Elapsed.String(),
			errMsg,
		})
	}
	return renderRows(rows, '\t')
}

// renderRows encodes rows with the given separator.
func renderRows(rows [][]string, comma rune) []byte {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	cw.Comma = comma
	// Writes to a bytes.Buffer cannot fail
	_ = cw.WriteAll(rows)
	return buf.Bytes()
}

// formatEntropy renders a score with the shortest representation that
// round-trips, matching the historical pandas output.
func formatEntropy(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// consensusSymbol renders a consensus residue, with "-" for all-gap
// columns where no consensus exists.
func consensusSymbol(c byte) string {
	if c == 0 {
		return "-"
	}
	return string(c)
}

// renderJoinedVariants renders the variants mapped to one position as
// compact tags, "-" when none map there.
func renderJoinedVariants(variants []domain.VariantRecord) string {
	if len(variants) == 0 {
		return "-"
	}
	tags := make([]string, 0, len(variants))
	for _, v := range variants {
		tags = append(tags, renderVariantTag(v))
	}
	return strings.Join(tags, " ")
}

// renderVariantTag renders one variant as
// <change>:<tier>[:lof][<sources>], e.g. "A1783V:pathogenic:lof[clinvar;uniprot]".
func renderVariantTag(v domain.VariantRecord) string {
	tag := v.ChangeID() + ":" + v.Tier.String()
	if v.LossOfFunction {
		tag += ":lof"
	}
	return tag + "[" + joinSources(v.Sources) + "]"
}

// joinSources joins provider IDs with ";" so the cell stays a single
// CSV field.
func joinSources(sources []domain.VariantSource) string {
	parts := make([]string, 0, len(sources))
	for _, s := range sources {
		parts = append(parts, string(s))
	}
	return strings.Join(parts, ";")
}

// joinOrDash joins diagnostics entries, "-" when there are none.
func joinOrDash(entries []string) string {
	if len(entries) == 0 {
		return "-"
	}
	return strings.Join(entries, "; ")
}
