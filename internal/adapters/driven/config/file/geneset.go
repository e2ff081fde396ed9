package file

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wperlichek/comparative-genomics-pipeline/internal/core/domain"
)

// geneSetFile is the YAML shape of a gene-set file.
type geneSetFile struct {
	Genes []geneEntry `yaml:"genes"`
}

// geneEntry is one gene with its cross-species panel. The first
// organism is the reference.
type geneEntry struct {
	Name      string          `yaml:"name"`
	Organisms []organismEntry `yaml:"organisms"`
	PDBIDs    []string        `yaml:"pdb_ids"`
}

// organismEntry curates the accession for one species. Either a
// UniProtKB accession or an NCBI protein accession must be set.
type organismEntry struct {
	Name            string `yaml:"name"`
	UniProtID       string `yaml:"uniprot_id"`
	EntrezProteinID string `yaml:"entrez_protein_id"`
}

// LoadGeneSet reads and validates a YAML gene-set file.
func LoadGeneSet(path string) (domain.GeneSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.GeneSet{}, fmt.Errorf("reading gene set: %w", err)
	}

	set, err := ParseGeneSet(data)
	if err != nil {
		return domain.GeneSet{}, fmt.Errorf("gene set %s: %w", path, err)
	}
	return set, nil
}

// ParseGeneSet parses YAML gene-set content and validates it into the
// domain form. Every gene needs a unique symbol and a non-empty
// organism panel; every organism needs a unique species label and at
// least one accession.
func ParseGeneSet(data []byte) (domain.GeneSet, error) {
	var parsed geneSetFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return domain.GeneSet{}, fmt.Errorf("parsing gene set: %w", err)
	}

	if len(parsed.Genes) == 0 {
		return domain.GeneSet{}, fmt.Errorf("no genes configured: %w", domain.ErrInvalidInput)
	}

	set := domain.GeneSet{Genes: make([]domain.Gene, 0, len(parsed.Genes))}
	seenGenes := make(map[string]bool, len(parsed.Genes))

	for _, entry := range parsed.Genes {
		if entry.Name == "" {
			return domain.GeneSet{}, fmt.Errorf("gene without a symbol: %w", domain.ErrInvalidInput)
		}
		if seenGenes[entry.Name] {
			return domain.GeneSet{}, fmt.Errorf("duplicate gene %q: %w", entry.Name, domain.ErrInvalidInput)
		}
		seenGenes[entry.Name] = true

		gene, err := buildGene(entry)
		if err != nil {
			return domain.GeneSet{}, err
		}
		set.Genes = append(set.Genes, gene)
	}

	return set, nil
}

// buildGene validates one gene entry and its organism panel.
func buildGene(entry geneEntry) (domain.Gene, error) {
	if len(entry.Organisms) == 0 {
		return domain.Gene{}, fmt.Errorf("gene %q has no organisms: %w", entry.Name, domain.ErrInvalidInput)
	}

	gene := domain.Gene{
		Name:      entry.Name,
		Organisms: make([]domain.Organism, 0, len(entry.Organisms)),
		PDBIDs:    entry.PDBIDs,
	}

	seen := make(map[string]bool, len(entry.Organisms))
	for _, o := range entry.Organisms {
		if o.Name == "" {
			return domain.Gene{}, fmt.Errorf("gene %q has an unnamed organism: %w",
				entry.Name, domain.ErrInvalidInput)
		}
		if seen[o.Name] {
			return domain.Gene{}, fmt.Errorf("gene %q lists organism %q twice: %w",
				entry.Name, o.Name, domain.ErrInvalidInput)
		}
		seen[o.Name] = true

		organism := domain.Organism{
			Name:            o.Name,
			UniProtID:       o.UniProtID,
			EntrezProteinID: o.EntrezProteinID,
		}
		if !organism.HasAccession() {
			return domain.Gene{}, fmt.Errorf("gene %q organism %q has no accession: %w",
				entry.Name, o.Name, domain.ErrInvalidInput)
		}
		gene.Organisms = append(gene.Organisms, organism)
	}

	return gene, nil
}
