// Package uniprot parses UniProtKB entry JSON into raw variant records.
package uniprot

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/wperlichek/comparative-genomics-pipeline/internal/core/domain"
	"github.com/wperlichek/comparative-genomics-pipeline/internal/core/ports/driven"
)

// variantTypeToken selects the entry features this parser reads.
// UniProtKB labels them "Natural variant"; matching is case-insensitive
// so type wording changes on the provider side stay harmless.
const variantTypeToken = "variant"

// Ensure Normaliser implements the interface.
var _ driven.VariantNormaliser = (*Normaliser)(nil)

// Normaliser extracts natural-variant features from a UniProtKB entry.
type Normaliser struct{}

// New creates a UniProt variant normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Source returns the provider this normaliser parses.
func (n *Normaliser) Source() domain.VariantSource {
	return domain.SourceUniProt
}

// Entry is the slice of a UniProtKB entry this parser reads.
type Entry struct {
	Features []Feature `json:"features"`
}

// Feature is one sequence annotation on an entry.
type Feature struct {
	Type                string               `json:"type"`
	ID                  string               `json:"featureId"`
	Description         string               `json:"description"`
	Location            Location             `json:"location"`
	AlternativeSequence *AlternativeSequence `json:"alternativeSequence"`
}

// Location is a feature's placement on the canonical sequence.
type Location struct {
	Start Position `json:"start"`
}

// Position is one end of a feature location.
type Position struct {
	Value int `json:"value"`
}

// AlternativeSequence describes the residue substitution of a variant
// feature. A single feature may list several alternative residues.
type AlternativeSequence struct {
	OriginalSequence     string   `json:"originalSequence"`
	AlternativeSequences []string `json:"alternativeSequences"`
}

// Variants parses an entry payload into raw records, one per
// alternative residue of each variant feature. The feature description
// doubles as the significance label: UniProt carries curator wording
// like "in GEFS+2; benign" there rather than in a dedicated field.
// Features missing position or residues are emitted as-is for the
// merger to count and drop.
func (n *Normaliser) Variants(payload []byte) ([]domain.RawVariant, error) {
	var entry Entry
	if err := json.Unmarshal(payload, &entry); err != nil {
		return nil, fmt.Errorf("parse UniProt entry: %w", err)
	}

	var records []domain.RawVariant
	for _, feat := range entry.Features {
		if !strings.Contains(strings.ToLower(feat.Type), variantTypeToken) {
			continue
		}

		base := domain.RawVariant{
			Source:      domain.SourceUniProt,
			RecordID:    feat.ID,
			Position:    feat.Location.Start.Value,
			Label:       feat.Description,
			Description: feat.Description,
		}
		if feat.AlternativeSequence == nil {
			records = append(records, base)
			continue
		}

		base.WildType = feat.AlternativeSequence.OriginalSequence
		if len(feat.AlternativeSequence.AlternativeSequences) == 0 {
			records = append(records, base)
			continue
		}
		for _, alt := range feat.AlternativeSequence.AlternativeSequences {
			record := base
			record.Variant = alt
			records = append(records, record)
		}
	}
	return records, nil
}
