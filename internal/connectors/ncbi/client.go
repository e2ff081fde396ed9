// Package ncbi fetches protein sequences from the NCBI E-utilities
// efetch endpoint.
package ncbi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/wperlichek/comparative-genomics-pipeline/internal/connectors"
	"github.com/wperlichek/comparative-genomics-pipeline/internal/core/domain"
	"github.com/wperlichek/comparative-genomics-pipeline/internal/core/ports/driven"
)

const (
	// DefaultBaseURL is the E-utilities efetch endpoint.
	DefaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/efetch.fcgi"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// KeylessRate is NCBI's documented limit without an API key.
	KeylessRate = 3

	// KeyedRate is NCBI's documented limit with an API key.
	KeyedRate = 10
)

// Ensure Client implements the interface.
var _ driven.SequenceSource = (*Client)(nil)

// Client fetches protein FASTA records by Entrez protein ID. It serves
// organisms that have no UniProt accession, typically non-model species
// whose proteins exist only as RefSeq predictions.
type Client struct {
	baseURL     string
	apiKey      string
	http        *http.Client
	rateLimiter *rate.Limiter
}

// NewClient creates an E-utilities client. The API key is optional;
// a non-empty key raises the request rate NCBI allows.
func NewClient(apiKey string) *Client {
	limit := rate.Limit(KeylessRate)
	if apiKey != "" {
		limit = rate.Limit(KeyedRate)
	}
	return &Client{
		baseURL:     DefaultBaseURL,
		apiKey:      apiKey,
		http:        &http.Client{Timeout: DefaultTimeout},
		rateLimiter: rate.NewLimiter(limit, 1),
	}
}

// Name identifies the provider for errors and diagnostics.
func (c *Client) Name() string {
	return "ncbi"
}

// Supports reports whether the organism carries an Entrez protein ID.
func (c *Client) Supports(organism domain.Organism) bool {
	return organism.EntrezProteinID != ""
}

// FetchSequence retrieves the organism's protein record as FASTA.
func (c *Client) FetchSequence(ctx context.Context, organism domain.Organism) ([]byte, error) {
	if organism.EntrezProteinID == "" {
		return nil, fmt.Errorf("%w: organism %s has no Entrez protein ID", domain.ErrInvalidInput, organism.Name)
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	params := url.Values{}
	params.Set("db", "protein")
	params.Set("id", organism.EntrezProteinID)
	params.Set("rettype", "fasta")
	params.Set("retmode", "text")
	if c.apiKey != "" {
		params.Set("api_key", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ncbi: %w", err)
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
