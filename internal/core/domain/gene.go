package domain

// Organism is one configured species entry for a gene. Exactly one of
// the provider accessions is used for fetching; UniProt wins when both
// are set.
type Organism struct {
	// Name is the species label used throughout the pipeline
	// ("human", "mouse"). Unique within a gene.
	Name string

	// UniProtID is the UniProtKB accession, when curated.
	UniProtID string

	// EntrezProteinID is the NCBI protein accession used as a fallback
	// when no UniProt accession is curated.
	EntrezProteinID string
}

// Accession returns the identifier used for fetching and cache keys:
// the UniProt accession when present, otherwise the NCBI one.
func (o Organism) Accession() string {
	if o.UniProtID != "" {
		return o.UniProtID
	}
	return o.EntrezProteinID
}

// HasAccession reports whether the organism can be fetched at all.
func (o Organism) HasAccession() bool {
	return o.UniProtID != "" || o.EntrezProteinID != ""
}

// Gene is one pipeline target: a named gene with its cross-species
// organism panel. The first organism is the reference: clinical
// variants are fetched for it and all report positions index into its
// sequence.
type Gene struct {
	// Name is the gene symbol ("SCN1A"). Unique within a gene set.
	Name string

	// Organisms is the species panel, in the order alignment rows and
	// tie-breaks follow. The first entry is the reference organism.
	Organisms []Organism

	// PDBIDs are optional structure identifiers downloaded alongside
	// the reference organism's artifacts.
	PDBIDs []string
}

// Reference returns the reference organism.
// ok is false when the gene has no organisms.
func (g Gene) Reference() (Organism, bool) {
	if len(g.Organisms) == 0 {
		return Organism{}, false
	}
	return g.Organisms[0], true
}

// Organism returns the named organism entry.
// ok is false when the gene does not configure that species.
func (g Gene) Organism(name string) (Organism, bool) {
	for _, o := range g.Organisms {
		if o.Name == name {
			return o, true
		}
	}
	return Organism{}, false
}

// Accessions returns the fetch accessions of every organism that has
// one, in organism order.
func (g Gene) Accessions() []string {
	accs := make([]string, 0, len(g.Organisms))
	for _, o := range g.Organisms {
		if o.HasAccession() {
			accs = append(accs, o.Accession())
		}
	}
	return accs
}

// GeneSet is a run configuration: the ordered list of genes one
// invocation processes.
type GeneSet struct {
	// Genes are the pipeline targets, in run order.
	Genes []Gene
}

// Find returns the named gene. ok is false when the set does not
// contain it.
func (s GeneSet) Find(name string) (Gene, bool) {
	for _, g := range s.Genes {
		if g.Name == name {
			return g, true
		}
	}
	return Gene{}, false
}

// Names returns the gene symbols in run order.
func (s GeneSet) Names() []string {
	names := make([]string, 0, len(s.Genes))
	for _, g := range s.Genes {
		names = append(names, g.Name)
	}
	return names
}
