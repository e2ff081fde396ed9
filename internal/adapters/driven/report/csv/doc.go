// Package csv implements the report writer port with plain CSV/TSV
// files, the formats the downstream analysis notebooks already consume.
//
// # Layout
//
// Each gene gets its own directory under the output root:
//
//	<output>/<gene>/<gene>_conservation.csv   per-column entropy scores
//	<output>/<gene>/<gene>_joined.tsv         positions joined with variants
//	<output>/<gene>/<gene>_variants.csv       merged clinical variants
//	<output>/<gene>/<gene>.fasta              aligned panel, verbatim
//	<output>/<gene>/<gene>.nwk                guide tree, when produced
//	<output>/summary.tsv                      per-gene run diagnostics
//	<output>/structures/<accession>_<id>.pdb  downloaded structures
//
// The conservation CSV keeps the historical column names
// (ShannonEntropy_WithGaps, ShannonEntropy_NoGaps) so existing
// notebooks keep working against new runs.
package csv
