package domain

import "math"

// MaxEntropy is the score assigned to alignment columns with zero
// non-gap residues: the Shannon entropy of a uniform distribution over
// the 20 standard amino acids, log2(20). Ranking all-gap columns at the
// distribution maximum keeps them "least conserved" instead of leaking
// a NaN from an empty distribution.
var MaxEntropy = math.Log2(20)

// ConservationRecord scores one alignment column. Lower entropy means
// more conserved; a column where every organism carries the same
// residue scores 0.
type ConservationRecord struct {
	// Column is the 1-based alignment column index.
	Column int

	// Consensus is the most frequent non-gap residue at the column,
	// 0 when the column is entirely gapped. Frequency ties resolve to
	// the residue seen first in organism order.
	Consensus byte

	// Entropy is the Shannon entropy (log base 2) over the non-gap
	// residues at the column. All-gap columns score MaxEntropy.
	Entropy float64

	// GapEntropy is the Shannon entropy with gaps counted as an
	// ordinary 21st symbol, kept for the legacy report column.
	// All-gap columns score 0 here: a column of identical gaps is a
	// single-symbol distribution.
	GapEntropy float64

	// Coverage is the number of non-gap residues at the column.
	Coverage int

	// Distinct is the number of distinct non-gap residues observed.
	Distinct int
}

// FullyConserved reports whether every organism present at the column
// carries the same residue.
func (c ConservationRecord) FullyConserved() bool {
	return c.Coverage > 0 && c.Distinct == 1
}
