package services

import (
	"sort"

	"github.com/wperlichek/comparative-genomics-pipeline/internal/core/domain"
)

// MergeVariants folds raw provider records into canonical variant
// records. Records failing domain.RawVariant.Valid are dropped and
// counted; the rest group by (position, wild type, variant). Within a
// group the most severe tier wins, loss-of-function is sticky once any
// record's description carries it, and sources and record identifiers
// accumulate as sorted sets. Output is ordered by position, then wild
// type, then variant.
func MergeVariants(raws []domain.RawVariant) ([]domain.VariantRecord, int) {
	type group struct {
		record  domain.VariantRecord
		sources map[domain.VariantSource]struct{}
		ids     map[string]struct{}
	}

	groups := make(map[domain.VariantKey]*group)
	dropped := 0

	for _, raw := range raws {
		if !raw.Valid() {
			dropped++
			continue
		}

		key := raw.Key()
		g, ok := groups[key]
		if !ok {
			g = &group{
				record: domain.VariantRecord{
					Position: raw.Position,
					WildType: raw.WildType,
					Variant:  raw.Variant,
					Tier:     domain.TierFromLabel(raw.Label),
				},
				sources: make(map[domain.VariantSource]struct{}),
				ids:     make(map[string]struct{}),
			}
			groups[key] = g
		}

		if tier := domain.TierFromLabel(raw.Label); tier.MoreSevere(g.record.Tier) {
			g.record.Tier = tier
		}
		if domain.DetectLossOfFunction(raw.Description) {
			g.record.LossOfFunction = true
		}
		g.sources[raw.Source] = struct{}{}
		if raw.RecordID != "" {
			g.ids[raw.RecordID] = struct{}{}
		}
	}

	merged := make([]domain.VariantRecord, 0, len(groups))
	for _, g := range groups {
		for s := range g.sources {
			g.record.Sources = append(g.record.Sources, s)
		}
		sort.Slice(g.record.Sources, func(i, j int) bool {
			return g.record.Sources[i] < g.record.Sources[j]
		})
		for id := range g.ids {
			g.record.RecordIDs = append(g.record.RecordIDs, id)
		}
		sort.Strings(g.record.RecordIDs)
		merged = append(merged, g.record)
	}

	sort.Slice(merged, func(i, j int) bool {
		a, b := merged[i], merged[j]
		if a.Position != b.Position {
			return a.Position < b.Position
		}
		if a.WildType != b.WildType {
			return a.WildType < b.WildType
		}
		return a.Variant < b.Variant
	})

	return merged, dropped
}
