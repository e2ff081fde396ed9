package services

import (
	"sort"

	"github.com/wperlichek/comparative-genomics-pipeline/internal/core/domain"
)

// JoinRecords projects column scores onto the reference organism's
// coordinates and attaches the merged variants landing on each
// position. Every reference position yields exactly one joined record;
// columns the reference does not cover yield none. Variants whose
// position lies outside the mapped range are skipped and counted, never
// coerced to a nearby column.
func JoinRecords(
	ref domain.ReferenceSequence,
	pmap *domain.PositionMap,
	scores []domain.ConservationRecord,
	variants []domain.VariantRecord,
) ([]domain.JoinedRecord, int) {
	byPosition := make(map[int][]domain.VariantRecord)
	unmapped := 0
	for _, v := range variants {
		if v.Position < 1 || v.Position > pmap.Positions() {
			unmapped++
			continue
		}
		byPosition[v.Position] = append(byPosition[v.Position], v)
	}

	joined := make([]domain.JoinedRecord, 0, pmap.Positions())
	for pos := 1; pos <= pmap.Positions(); pos++ {
		col, err := pmap.Column(pos)
		if err != nil || col < 1 || col > len(scores) {
			// Cannot happen for a map built against these scores.
			continue
		}

		attached := byPosition[pos]
		sort.SliceStable(attached, func(i, j int) bool {
			return attached[i].Tier.MoreSevere(attached[j].Tier)
		})

		record := scores[col-1]
		wildType, _ := ref.ResidueAt(pos)
		joined = append(joined, domain.JoinedRecord{
			Position:  pos,
			Column:    col,
			WildType:  wildType,
			Consensus: record.Consensus,
			Entropy:   record.Entropy,
			Variants:  attached,
		})
	}

	return joined, unmapped
}
