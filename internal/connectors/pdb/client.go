// Package pdb downloads experimental structure files from the RCSB
// Protein Data Bank.
package pdb

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
	// DefaultBaseURL is the RCSB file download root.
	DefaultBaseURL = "https://files.rcsb.org/download"

	// DefaultTimeout is the default HTTP request timeout. Structure
	// files run to a few megabytes.
	DefaultTimeout = 60 * time.Second

	// RequestsPerSecond is the courtesy throttle.
	RequestsPerSecond = 5
)

// Ensure Client implements the interface.
var _ driven.StructureFetcher = (*Client)(nil)

// Client downloads PDB entries in the legacy .pdb text format.
type Client struct {
	baseURL     string
	http        *http.Client
	rateLimiter *rate.Limiter
}

// NewClient creates an RCSB download client.
func NewClient() *Client {
	return &Client{
		baseURL:     DefaultBaseURL,
		http:        &http.Client{Timeout: DefaultTimeout},
		rateLimiter: rate.NewLimiter(rate.Limit(RequestsPerSecond), 1),
	}
}

// FetchStructure downloads one PDB entry.
func (c *Client) FetchStructure(ctx context.Context, pdbID string) ([]byte, error) {
	if pdbID == "" {
		return nil, fmt.Errorf("%w: empty PDB ID", domain.ErrInvalidInput)
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/%s.pdb", c.baseURL, pdbID), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pdb: %w", err)
	}
	defer resp.Body.Close()

	if err := connectors.CheckResponse("pdb", resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}
