// Package fasta parses FASTA payloads into domain sequences.
package fasta

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"github.com/wperlichek/comparative-genomics-pipeline/internal/core/domain"
	"github.com/wperlichek/comparative-genomics-pipeline/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.SequenceNormaliser = (*Normaliser)(nil)

// maxLineBytes caps one FASTA line. Some providers emit whole
// sequences on a single line.
const maxLineBytes = 4 * 1024 * 1024

// record is one parsed FASTA entry.
type record struct {
	id       string
	residues string
}

// Normaliser parses single-record and aligned multi-record FASTA.
type Normaliser struct{}

// New creates a new FASTA normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Sequence parses the first record of a FASTA payload into the
// organism's reference sequence. The header is not required to match
// the organism: providers put accessions and descriptions there.
func (n *Normaliser) Sequence(organism domain.Organism, payload []byte) (domain.ReferenceSequence, error) {
	records, err := parse(payload)
	if err != nil {
		return domain.ReferenceSequence{}, err
	}
	if len(records) == 0 {
		return domain.ReferenceSequence{}, fmt.Errorf("%w: no FASTA records", domain.ErrInvalidInput)
	}
	first := records[0]
	if first.residues == "" {
		return domain.ReferenceSequence{}, fmt.Errorf("%w: empty sequence for %s", domain.ErrInvalidInput, organism.Name)
	}
	return domain.ReferenceSequence{
		Organism:  organism.Name,
		Accession: organism.Accession(),
		Residues:  first.residues,
	}, nil
}

// Alignment parses an aligned multi-FASTA payload. Record identifiers
// become row organisms; rows must all share one length.
func (n *Normaliser) Alignment(payload []byte) (domain.Alignment, error) {
	records, err := parse(payload)
	if err != nil {
		return domain.Alignment{}, err
	}
	if len(records) == 0 {
		return domain.Alignment{}, domain.ErrEmptyAlignment
	}

	aln := domain.Alignment{Sequences: make([]domain.AlignedSequence, 0, len(records))}
	width := len(records[0].residues)
	for _, rec := range records {
		if len(rec.residues) != width {
			return domain.Alignment{}, fmt.Errorf("%w: row %s has %d columns, want %d",
				domain.ErrInvalidInput, rec.id, len(rec.residues), width)
		}
		aln.Sequences = append(aln.Sequences, domain.AlignedSequence{
			Organism: rec.id,
			Residues: rec.residues,
		})
	}
	return aln, nil
}

// parse reads FASTA records: '>' opens a header whose first
// whitespace-separated token is the identifier; sequence lines
// concatenate and uppercase.
func parse(payload []byte) ([]record, error) {
	var (
		records []record
		current *record
		body    strings.Builder
	)

	flush := func() {
		if current == nil {
			return
		}
		current.residues = body.String()
		records = append(records, *current)
		current = nil
		body.Reset()
	}

	scanner := bufio.NewScanner(bytes.NewReader(payload))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line[0] == '>' {
			flush()
			fields := strings.Fields(line[1:])
			if len(fields) == 0 {
				return nil, fmt.Errorf("%w: FASTA header with no identifier", domain.ErrInvalidInput)
			}
			current = &record{id: fields[0]}
			continue
		}
		if current == nil {
			return nil, fmt.Errorf("%w: sequence data before first FASTA header", domain.ErrInvalidInput)
		}
		body.WriteString(strings.ToUpper(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan FASTA: %w", err)
	}
	flush()
	return records, nil
}
