// Package clinvar fetches clinical variant summaries from the NCBI
// E-utilities ClinVar database.
package clinvar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/wperlichek/comparative-genomics-pipeline/internal/connectors"
	"github.com/wperlichek/comparative-genomics-pipeline/internal/core/domain"
	"github.com/wperlichek/comparative-genomics-pipeline/internal/core/ports/driven"
)

const (
	// DefaultBaseURL is the E-utilities root.
	DefaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultSearchLimit caps how many variation records one gene pulls.
	DefaultSearchLimit = 20

	// KeylessRate is NCBI's documented limit without an API key.
	KeylessRate = 3

	// KeyedRate is NCBI's documented limit with an API key.
	KeyedRate = 10
)

// Ensure Client implements the interface.
var _ driven.VariantProvider = (*Client)(nil)

// Client resolves a gene symbol to ClinVar variation IDs, then fetches
// their summaries in one batch. The returned payload is the esummary
// response verbatim; the clinvar normaliser parses it.
type Client struct {
	baseURL     string
	apiKey      string
	searchLimit int
	http        *http.Client
	rateLimiter *rate.Limiter
}

// NewClient creates a ClinVar E-utilities client. The API key is
// optional; a non-empty key raises the request rate NCBI allows.
func NewClient(apiKey string) *Client {
	limit := rate.Limit(KeylessRate)
	if apiKey != "" {
		limit = rate.Limit(KeyedRate)
	}
	return &Client{
		baseURL:     DefaultBaseURL,
		apiKey:      apiKey,
		searchLimit: DefaultSearchLimit,
		http:        &http.Client{Timeout: DefaultTimeout},
		rateLimiter: rate.NewLimiter(limit, 1),
	}
}

// Source identifies the provider.
func (c *Client) Source() domain.VariantSource {
	return domain.SourceClinVar
}

// Fingerprint keys cached payloads by gene symbol, the identifier the
// search runs on.
func (c *Client) Fingerprint(gene domain.Gene) domain.Fingerprint {
	ref, _ := gene.Reference()
	return domain.Fingerprint{
		Organism:  ref.Name,
		Accession: gene.Name,
		Kind:      domain.ArtifactVariants,
	}
}

// FetchVariants searches ClinVar for the gene and returns the matching
// variation summaries as esummary JSON.
func (c *Client) FetchVariants(ctx context.Context, gene domain.Gene) ([]byte, error) {
	if gene.Name == "" {
		return nil, fmt.Errorf("%w: gene has no symbol to search by", domain.ErrInvalidInput)
	}

	ids, err := c.searchGene(ctx, gene.Name)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		// No variation records. Hand the normaliser an empty envelope so
		// the cached payload stays parseable.
		return []byte(`{"result":{"uids":[]}}`), nil
	}
	return c.fetchSummaries(ctx, ids)
}

// searchResponse is the slice of an esearch response this client reads.
type searchResponse struct {
	ESearchResult struct {
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

// searchGene resolves a gene symbol to ClinVar variation IDs.
func (c *Client) searchGene(ctx context.Context, symbol string) ([]string, error) {
	params := url.Values{}
	params.Set("db", "clinvar")
	params.Set("term", symbol+"[gene]")
	params.Set("retmode", "json")
	params.Set("retmax", strconv.Itoa(c.searchLimit))

	body, err := c.get(ctx, c.baseURL+"/esearch.fcgi?"+c.withKey(params).Encode())
	if err != nil {
		return nil, fmt.Errorf("search gene %s: %w", symbol, err)
	}

	var search searchResponse
	if err := json.Unmarshal(body, &search); err != nil {
		return nil, fmt.Errorf("parse search response for %s: %w", symbol, err)
	}
	return search.ESearchResult.IDList, nil
}

// fetchSummaries pulls one esummary batch for the given variation IDs.
func (c *Client) fetchSummaries(ctx context.Context, ids []string) ([]byte, error) {
	params := url.Values{}
	params.Set("db", "clinvar")
	params.Set("id", strings.Join(ids, ","))
	params.Set("retmode", "json")

	body, err := c.get(ctx, c.baseURL+"/esummary.fcgi?"+c.withKey(params).Encode())
	if err != nil {
		return nil, fmt.Errorf("fetch summaries: %w", err)
	}
	return body, nil
}

// withKey adds the API key parameter when one is configured.
func (c *Client) withKey(params url.Values) url.Values {
	if c.apiKey != "" {
		params.Set("api_key", c.apiKey)
	}
	return params
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
		return nil, fmt.Errorf("clinvar: %w", err)
	}
	defer resp.Body.Close()

	if err := connectors.CheckResponse("clinvar", resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}
