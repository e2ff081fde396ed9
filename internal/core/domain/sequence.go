package domain

import "strings"

// GapSymbol is the placeholder aligners insert where an organism has no
// residue for an alignment column.
const GapSymbol = '-'

// ReferenceSequence is one organism's ungapped protein sequence as
// fetched from a provider. Positions are 1-based throughout.
type ReferenceSequence struct {
	// Organism is the species label from the gene set ("human", "mouse").
	Organism string

	// Accession is the provider accession the sequence was fetched under.
	Accession string

	// Residues is the ungapped amino-acid sequence.
	Residues string
}

// Len returns the number of residues.
func (r ReferenceSequence) Len() int {
	return len(r.Residues)
}

// ResidueAt returns the residue at 1-based position pos.
// ok is false when pos is outside 1..Len.
func (r ReferenceSequence) ResidueAt(pos int) (byte, bool) {
	if pos < 1 || pos > len(r.Residues) {
		return 0, false
	}
	return r.Residues[pos-1], true
}

// AlignedSequence is one organism's row in a multiple sequence
// alignment. Residues contains gap symbols; all rows of an alignment
// share the same length.
type AlignedSequence struct {
	// Organism is the species label carried over from the input FASTA.
	Organism string

	// Residues is the gapped amino-acid sequence.
	Residues string
}

// Ungapped returns the row with all gap symbols removed.
func (a AlignedSequence) Ungapped() string {
	return strings.ReplaceAll(a.Residues, string(GapSymbol), "")
}

// Alignment is the complete aligned sequence set for one gene, in the
// organism order of the input.
type Alignment struct {
	// Sequences are the aligned rows. All rows have equal length.
	Sequences []AlignedSequence
}

// Columns returns the alignment length, 0 for an empty alignment.
func (a Alignment) Columns() int {
	if len(a.Sequences) == 0 {
		return 0
	}
	return len(a.Sequences[0].Residues)
}

// ByOrganism returns the row for the named organism.
// ok is false when the organism is not part of the alignment.
func (a Alignment) ByOrganism(organism string) (AlignedSequence, bool) {
	for _, seq := range a.Sequences {
		if seq.Organism == organism {
			return seq, true
		}
	}
	return AlignedSequence{}, false
}

// PositionMap records, for one organism, where each reference position
// lands in an alignment and which reference position each column
// carries. It is built once per organism per alignment and read-only
// afterwards.
//
// The forward direction is total: every reference position has exactly
// one column. The inverse is partial: columns that are gaps for this
// organism resolve to no position.
type PositionMap struct {
	// Organism owns the reference coordinates.
	Organism string

	// ColumnByPosition maps reference position (index+1) to its 1-based
	// alignment column.
	ColumnByPosition []int

	// PositionByColumn maps 1-based column (index+1) to the reference
	// position it carries, 0 where the column is a gap for this organism.
	PositionByColumn []int
}

// Column resolves a 1-based reference position to its alignment column.
// Returns ErrUnmappablePosition when pos lies outside the mapped range.
func (m *PositionMap) Column(pos int) (int, error) {
	if pos < 1 || pos > len(m.ColumnByPosition) {
		return 0, ErrUnmappablePosition
	}
	return m.ColumnByPosition[pos-1], nil
}

// Position resolves a 1-based alignment column back to a reference
// position. ok is false when the column is gapped for this organism or
// out of range.
func (m *PositionMap) Position(col int) (int, bool) {
	if col < 1 || col > len(m.PositionByColumn) {
		return 0, false
	}
	pos := m.PositionByColumn[col-1]
	return pos, pos != 0
}

// Positions returns the number of mapped reference positions.
func (m *PositionMap) Positions() int {
	return len(m.ColumnByPosition)
}

// Columns returns the alignment length the map was built against.
func (m *PositionMap) Columns() int {
	return len(m.PositionByColumn)
}
