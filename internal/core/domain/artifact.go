package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ArtifactKind partitions cached payloads by what they contain. Kind is
// part of the cache identity: the same accession can cache a sequence
// and a variant set side by side.
type ArtifactKind string

const (
	// ArtifactSequence is a protein sequence in FASTA form.
	ArtifactSequence ArtifactKind = "sequence"

	// ArtifactVariants is a provider's raw variant payload (JSON).
	ArtifactVariants ArtifactKind = "variants"

	// ArtifactAlignment is an aligned FASTA produced by the aligner.
	ArtifactAlignment ArtifactKind = "alignment"

	// ArtifactGuideTree is the aligner's guide tree in Newick form.
	ArtifactGuideTree ArtifactKind = "guide-tree"

	// ArtifactStructure is a PDB structure file.
	ArtifactStructure ArtifactKind = "structure"
)

// Fingerprint is the stable identity of one cached artifact. Two
// fetches with equal fingerprints are interchangeable; any field
// changing makes a different artifact.
type Fingerprint struct {
	// Organism is the species label, or the gene symbol for artifacts
	// that span the whole panel (alignments, guide trees).
	Organism string

	// Accession is the provider accession, or a derived digest for
	// panel-wide artifacts.
	Accession string

	// Kind says what the payload contains.
	Kind ArtifactKind
}

// Key renders the fingerprint as the storage key.
func (f Fingerprint) Key() string {
	return fmt.Sprintf("%s/%s/%s", f.Organism, f.Accession, f.Kind)
}

// AlignmentFingerprint derives the cache identity for a gene's
// panel-wide artifacts. The accession slot carries a digest of the
// sorted input accessions, so adding, removing or swapping an organism
// invalidates the cached alignment while reordering does not.
func AlignmentFingerprint(gene string, accessions []string, kind ArtifactKind) Fingerprint {
	sorted := make([]string, len(accessions))
	copy(sorted, accessions)
	sort.Strings(sorted)
	sum := sha256.Sum256([]byte(strings.Join(sorted, "\n")))
	return Fingerprint{
		Organism:  gene,
		Accession: hex.EncodeToString(sum[:])[:16],
		Kind:      kind,
	}
}

// Artifact is one cached remote payload with its identity and fetch
// time.
type Artifact struct {
	// Fingerprint is the cache identity.
	Fingerprint Fingerprint

	// Content is the payload exactly as fetched.
	Content []byte

	// FetchedAt is when the payload was retrieved from its provider.
	FetchedAt time.Time
}
