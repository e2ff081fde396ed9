// Package clinvar parses ClinVar E-utilities esummary JSON into raw
// variant records.
package clinvar

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/wperlichek/comparative-genomics-pipeline/internal/core/domain"
	"github.com/wperlichek/comparative-genomics-pipeline/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.VariantNormaliser = (*Normaliser)(nil)

// Normaliser extracts protein changes from ClinVar variation summaries.
type Normaliser struct{}

// New creates a ClinVar variant normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Source returns the provider this normaliser parses.
func (n *Normaliser) Source() domain.VariantSource {
	return domain.SourceClinVar
}

// envelope is the outer esummary response. The result object mixes a
// "uids" index array with one entry per UID, so it cannot unmarshal
// into a typed struct directly.
type envelope struct {
	Result json.RawMessage `json:"result"`
}

// Summary is one variation record inside an esummary result.
type Summary struct {
	UID                    string         `json:"uid"`
	ObjType                string         `json:"obj_type"`
	Title                  string         `json:"title"`
	ProteinChange          string         `json:"protein_change"`
	GermlineClassification Classification `json:"germline_classification"`
}

// Classification is ClinVar's aggregate germline classification.
type Classification struct {
	Description  string `json:"description"`
	ReviewStatus string `json:"review_status"`
}

// Variants parses an esummary payload into raw records, one per token
// of each summary's comma-separated protein_change list. Summaries
// without a protein change (intronic, structural) emit a single
// position-less record so the merge step counts them as dropped.
func (n *Normaliser) Variants(payload []byte) ([]domain.RawVariant, error) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("parse ClinVar summary: %w", err)
	}
	if len(env.Result) == 0 {
		return nil, nil
	}

	var result map[string]json.RawMessage
	if err := json.Unmarshal(env.Result, &result); err != nil {
		return nil, fmt.Errorf("parse ClinVar summary result: %w", err)
	}

	// The uids array fixes iteration order; map order would not.
	var uids []string
	if raw, ok := result["uids"]; ok {
		if err := json.Unmarshal(raw, &uids); err != nil {
			return nil, fmt.Errorf("parse ClinVar summary uids: %w", err)
		}
	}

	var records []domain.RawVariant
	for _, uid := range uids {
		raw, ok := result[uid]
		if !ok {
			continue
		}
		var summary Summary
		if err := json.Unmarshal(raw, &summary); err != nil {
			return nil, fmt.Errorf("parse ClinVar summary %s: %w", uid, err)
		}
		records = append(records, summaryRecords(uid, summary)...)
	}
	return records, nil
}

// summaryRecords expands one variation summary into raw records.
func summaryRecords(uid string, summary Summary) []domain.RawVariant {
	base := domain.RawVariant{
		Source:      domain.SourceClinVar,
		RecordID:    uid,
		Label:       summary.GermlineClassification.Description,
		Description: summary.Title,
	}

	changes := strings.TrimSpace(summary.ProteinChange)
	if changes == "" {
		return []domain.RawVariant{base}
	}

	var records []domain.RawVariant
	for _, token := range strings.Split(changes, ",") {
		record := base
		record.WildType, record.Position, record.Variant = splitChange(token)
		records = append(records, record)
	}
	return records
}

// splitChange decomposes a protein-change token like "A1783V" into its
// wild-type residue, position and replacement residue. Tokens that do
// not follow the <wild-type><position><variant> shape come back with a
// zero position or empty residues and fail validation downstream.
func splitChange(token string) (wildType string, position int, variant string) {
	token = strings.TrimSpace(token)

	start := 0
	for start < len(token) && !isDigit(token[start]) {
		start++
	}
	end := start
	for end < len(token) && isDigit(token[end]) {
		end++
	}

	wildType = token[:start]
	variant = token[end:]
	position, _ = strconv.Atoi(token[start:end])
	return wildType, position, variant
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
