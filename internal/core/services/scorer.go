package services

import (
	"fmt"
	"math"

	"github.com/wperlichek/comparative-genomics-pipeline/internal/core/domain"
)

// ScoreAlignment computes a ConservationRecord for every column of an
// alignment. Columns are scored independently; rows must all share one
// length. An alignment with no rows or no columns returns
// domain.ErrEmptyAlignment.
func ScoreAlignment(aln domain.Alignment) ([]domain.ConservationRecord, error) {
	width := aln.Columns()
	if len(aln.Sequences) == 0 || width == 0 {
		return nil, domain.ErrEmptyAlignment
	}
	for _, row := range aln.Sequences {
		if len(row.Residues) != width {
			return nil, fmt.Errorf("%w: row %s has %d columns, want %d",
				domain.ErrInvalidInput, row.Organism, len(row.Residues), width)
		}
	}

	records := make([]domain.ConservationRecord, width)
	for col := 0; col < width; col++ {
		records[col] = scoreColumn(aln.Sequences, col)
	}
	return records, nil
}

// scoreColumn computes both entropy conventions for one 0-based column.
func scoreColumn(rows []domain.AlignedSequence, col int) domain.ConservationRecord {
	// Residue counts in first-seen row order, so consensus ties resolve
	// to the earliest organism's residue.
	var (
		residues []byte
		counts   []int
		gaps     int
	)
	index := make(map[byte]int, len(rows))

	for _, row := range rows {
		r := row.Residues[col]
		if r == domain.GapSymbol {
			gaps++
			continue
		}
		if i, ok := index[r]; ok {
			counts[i]++
			continue
		}
		index[r] = len(residues)
		residues = append(residues, r)
		counts = append(counts, 1)
	}

	record := domain.ConservationRecord{
		Column:   col + 1,
		Distinct: len(residues),
	}
	for _, c := range counts {
		record.Coverage += c
	}

	best := 0
	for i, c := range counts {
		if c > best {
			best = c
			record.Consensus = residues[i]
		}
	}

	if record.Coverage == 0 {
		record.Entropy = domain.MaxEntropy
	} else {
		record.Entropy = shannon(counts, record.Coverage)
	}

	// Legacy convention: the gap is one more symbol in the
	// distribution. An all-gap column is then a single-symbol
	// distribution and scores 0.
	if gaps > 0 {
		record.GapEntropy = shannon(append(counts, gaps), record.Coverage+gaps)
	} else {
		record.GapEntropy = record.Entropy
	}

	return record
}

// shannon computes -sum(p*log2(p)) over symbol counts.
func shannon(counts []int, total int) float64 {
	var h float64
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / float64(total)
		h -= p * math.Log2(p)
	}
	return h
}
