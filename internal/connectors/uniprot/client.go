// Package uniprot fetches protein sequences and entry annotations from
// the UniProtKB REST API.
package uniprot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/wperlichek/comparative-genomics-pipeline/internal/connectors"
	"github.com/wperlichek/comparative-genomics-pipeline/internal/core/domain"
	"github.com/wperlichek/comparative-genomics-pipeline/internal/core/ports/driven"
)

const (
	// DefaultBaseURL is the UniProtKB REST entry point.
	DefaultBaseURL = "https://rest.uniprot.org/uniprotkb"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// RequestsPerSecond is the courtesy throttle. UniProt publishes no
	// hard per-IP limit but asks API consumers to stay modest.
	RequestsPerSecond = 5
)

// Ensure Client implements the interfaces.
var (
	_ driven.SequenceSource  = (*Client)(nil)
	_ driven.VariantProvider = (*Client)(nil)
)

// Client speaks to UniProtKB. One client serves both roles the
// pipeline needs from UniProt: FASTA sequences per organism and entry
// JSON carrying natural-variant features.
type Client struct {
	baseURL     string
	http        *http.Client
	rateLimiter *rate.Limiter
}

// NewClient creates a UniProtKB client.
func NewClient() *Client {
	return &Client{
		baseURL:     DefaultBaseURL,
		http:        &http.Client{Timeout: DefaultTimeout},
		rateLimiter: rate.NewLimiter(rate.Limit(RequestsPerSecond), 1),
	}
}

// Name identifies the provider for errors and diagnostics.
func (c *Client) Name() string {
	return "uniprot"
}

// Source identifies the provider for variant records.
func (c *Client) Source() domain.VariantSource {
	return domain.SourceUniProt
}

// Supports reports whether the organism carries a UniProt accession.
func (c *Client) Supports(organism domain.Organism) bool {
	return organism.UniProtID != ""
}

// FetchSequence retrieves the organism's canonical sequence as FASTA.
func (c *Client) FetchSequence(ctx context.Context, organism domain.Organism) ([]byte, error) {
	if organism.UniProtID == "" {
		return nil, fmt.Errorf("%w: organism %s has no UniProt accession", domain.ErrInvalidInput, organism.Name)
	}
	return c.get(ctx, fmt.Sprintf("%s/%s.fasta", c.baseURL, organism.UniProtID))
}

// Fingerprint keys cached variant payloads by the reference organism's
// accession, the identifier the entry JSON is fetched by.
func (c *Client) Fingerprint(gene domain.Gene) domain.Fingerprint {
	ref, _ := gene.Reference()
	return domain.Fingerprint{
		Organism:  ref.Name,
		Accession: ref.Accession(),
		Kind:      domain.ArtifactVariants,
	}
}

// FetchVariants retrieves the reference organism's full entry JSON.
// Variant features are a slice of the entry; the normaliser extracts
// them so the cached payload stays the provider's verbatim response.
func (c *Client) FetchVariants(ctx context.Context, gene domain.Gene) ([]byte, error) {
	ref, ok := gene.Reference()
	if !ok || ref.UniProtID == "" {
		return nil, fmt.Errorf("%w: gene %s has no UniProt reference accession", domain.ErrInvalidInput, gene.Name)
	}
	return c.get(ctx, fmt.Sprintf("%s/%s.json", c.baseURL, ref.UniProtID))
}

// get performs one throttled request and returns the response body.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("uniprot: %w", err)
	}
	defer resp.Body.Close()

	if err := connectors.CheckResponse(c.Name(), resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}
