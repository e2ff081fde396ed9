package services

import (
	"github.com/wperlichek/comparative-genomics-pipeline/internal/core/domain"
)

// BuildPositionMap verifies that an organism's aligned row reduces to
// its reference sequence and derives the coordinate map between them.
//
// Verification is strict: stripping gaps from the row must reproduce
// the reference residue-for-residue. Any divergence returns a
// *domain.SequenceMismatchError identifying the first differing
// position, and no map is built. The forward map is total over
// 1..ref.Len(); the inverse leaves gap columns unmapped.
func BuildPositionMap(ref domain.ReferenceSequence, row domain.AlignedSequence) (*domain.PositionMap, error) {
	ungapped := row.Ungapped()
	if len(ungapped) != ref.Len() {
		return nil, &domain.SequenceMismatchError{
			Organism:   ref.Organism,
			RefLen:     ref.Len(),
			AlignedLen: len(ungapped),
		}
	}

	columnByPosition := make([]int, 0, ref.Len())
	positionByColumn := make([]int, len(row.Residues))

	pos := 0
	for col := 0; col < len(row.Residues); col++ {
		residue := row.Residues[col]
		if residue == domain.GapSymbol {
			continue
		}
		pos++
		if ref.Residues[pos-1] != residue {
			return nil, &domain.SequenceMismatchError{
				Organism: ref.Organism,
				Position: pos,
				Want:     ref.Residues[pos-1],
				Got:      residue,
			}
		}
		columnByPosition = append(columnByPosition, col+1)
		positionByColumn[col] = pos
	}

	return &domain.PositionMap{
		Organism:         ref.Organism,
		ColumnByPosition: columnByPosition,
		PositionByColumn: positionByColumn,
	}, nil
}
