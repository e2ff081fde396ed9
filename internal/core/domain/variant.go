package domain

import (
	"fmt"
	"strings"
)

// SignificanceTier is a normalised clinical significance level.
// Tiers are ordered: higher values are more severe, so records from
// different sources can be merged by keeping the maximum.
type SignificanceTier int

const (
	// TierBenign covers benign and likely-benign classifications.
	TierBenign SignificanceTier = iota

	// TierUncertain covers uncertain, conflicting-without-pathogenic and
	// unrecognised classifications.
	TierUncertain

	// TierLikelyPathogenic covers likely-pathogenic classifications.
	TierLikelyPathogenic

	// TierPathogenic covers pathogenic and pathogenic/likely-pathogenic
	// composite classifications.
	TierPathogenic
)

// String returns the canonical report label for the tier.
func (t SignificanceTier) String() string {
	switch t {
	case TierBenign:
		return "benign"
	case TierUncertain:
		return "uncertain"
	case TierLikelyPathogenic:
		return "likely-pathogenic"
	case TierPathogenic:
		return "pathogenic"
	default:
		return "uncertain"
	}
}

// MoreSevere reports whether t outranks other.
func (t SignificanceTier) MoreSevere(other SignificanceTier) bool {
	return t > other
}

// TierFromLabel maps a provider's clinical significance wording onto a
// tier. Matching is case-insensitive and substring-based so composite
// labels such as "Pathogenic/Likely pathogenic" resolve to the more
// severe side.
func TierFromLabel(label string) SignificanceTier {
	s := strings.ToLower(label)
	switch {
	case strings.Contains(s, "pathogenic/likely"):
		return TierPathogenic
	case strings.Contains(s, "pathogenic") && !strings.Contains(s, "likely pathogenic"):
		return TierPathogenic
	case strings.Contains(s, "likely pathogenic"):
		return TierLikelyPathogenic
	case strings.Contains(s, "benign"):
		return TierBenign
	default:
		return TierUncertain
	}
}

// lossOfFunctionPhrases are the description fragments that mark a
// variant as loss-of-function. Matching is case-insensitive substring.
var lossOfFunctionPhrases = []string{
	"loss of function",
	"loss-of-function",
	"non-functional channel",
	"results in a non-functional channel",
	"complete absence of sodium current",
	"absence of sodium current",
	"complete loss of sodium ion transmembrane transport",
	"complete loss of sodium",
}

// DetectLossOfFunction reports whether a variant description carries a
// loss-of-function phrase. The flag is orthogonal to the significance
// tier: a benign record can still be loss-of-function.
func DetectLossOfFunction(description string) bool {
	s := strings.ToLower(description)
	for _, phrase := range lossOfFunctionPhrases {
		if strings.Contains(s, phrase) {
			return true
		}
	}
	return false
}

// VariantSource identifies the provider a variant record came from.
type VariantSource string

const (
	// SourceUniProt marks records parsed from UniProtKB entry features.
	SourceUniProt VariantSource = "uniprot"

	// SourceClinVar marks records parsed from ClinVar E-utilities summaries.
	SourceClinVar VariantSource = "clinvar"
)

// VariantKey is the identity of a protein change: records from
// different sources describing the same substitution share a key and
// merge into one VariantRecord.
type VariantKey struct {
	// Position is the 1-based reference position of the change.
	Position int

	// WildType is the reference residue(s) being replaced.
	WildType string

	// Variant is the replacement residue(s).
	Variant string
}

// RawVariant is one provider record before merging. Field values are
// carried verbatim from the source; normalisation happens at merge.
type RawVariant struct {
	// Source is the provider the record was parsed from.
	Source VariantSource

	// RecordID is the provider-side identifier, when one exists
	// (ClinVar UID, UniProt feature ID). May be empty.
	RecordID string

	// Position is the 1-based reference position, 0 when the source
	// record carried no parseable position.
	Position int

	// WildType is the reference residue(s), empty when unparseable.
	WildType string

	// Variant is the replacement residue(s), empty when unparseable.
	Variant string

	// Label is the source's clinical significance wording, verbatim.
	Label string

	// Description is the source's free-text annotation, used for
	// loss-of-function detection.
	Description string
}

// Valid reports whether the record carries the minimum fields needed to
// merge: a positive position and both residues.
func (v RawVariant) Valid() bool {
	return v.Position > 0 && v.WildType != "" && v.Variant != ""
}

// Key returns the record's merge identity.
func (v RawVariant) Key() VariantKey {
	return VariantKey{Position: v.Position, WildType: v.WildType, Variant: v.Variant}
}

// VariantRecord is the canonical merged clinical variant for one
// protein change on the reference organism's coordinates.
type VariantRecord struct {
	// Position is the 1-based reference position of the change.
	Position int

	// WildType is the reference residue(s) being replaced.
	WildType string

	// Variant is the replacement residue(s).
	Variant string

	// Tier is the most severe tier across contributing records.
	Tier SignificanceTier

	// LossOfFunction is true when any contributing record's description
	// carried a loss-of-function phrase.
	LossOfFunction bool

	// Sources are the distinct providers that contributed records,
	// sorted for stable output.
	Sources []VariantSource

	// RecordIDs are the distinct provider identifiers of contributing
	// records, sorted for stable output.
	RecordIDs []string
}

// Key returns the record's merge identity.
func (v VariantRecord) Key() VariantKey {
	return VariantKey{Position: v.Position, WildType: v.WildType, Variant: v.Variant}
}

// ChangeID renders the change in the compact <wild-type><position><variant>
// notation, e.g. "A123V".
func (v VariantRecord) ChangeID() string {
	return fmt.Sprintf("%s%d%s", v.WildType, v.Position, v.Variant)
}
