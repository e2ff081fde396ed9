// Package ebi runs multiple sequence alignments through the EBI Job
// Dispatcher's Clustal Omega REST service.
package ebi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/wperlichek/comparative-genomics-pipeline/internal/connectors"
	"github.com/wperlichek/comparative-genomics-pipeline/internal/core/domain"
	"github.com/wperlichek/comparative-genomics-pipeline/internal/core/ports/driven"
)

const (
	// DefaultBaseURL is the Clustal Omega service root.
	DefaultBaseURL = "https://www.ebi.ac.uk/Tools/services/rest/clustalo"

	// DefaultTimeout is the per-request HTTP timeout. Whole-job time is
	// bounded by the caller's context, not here.
	DefaultTimeout = 30 * time.Second

	// DefaultPollInterval is the delay between job status checks.
	DefaultPollInterval = 5 * time.Second

	// RequestsPerSecond throttles submissions and polls. The dispatcher
	// asks consumers to keep concurrent load low.
	RequestsPerSecond = 1
)

// Job Dispatcher status values.
const (
	StatusRunning  = "RUNNING"
	StatusQueued   = "QUEUED"
	StatusFinished = "FINISHED"
	StatusError    = "ERROR"
	StatusFailure  = "FAILURE"
	StatusNotFound = "NOT_FOUND"
)

// Job Dispatcher result types.
const (
	ResultAlignment = "fa"
	ResultGuideTree = "phylotree"
)

// Ensure Client implements the interface.
var _ driven.Aligner = (*Client)(nil)

// Client submits alignment jobs and polls them to completion. One job
// yields both the aligned FASTA and the guide tree.
type Client struct {
	baseURL      string
	email        string
	http         *http.Client
	rateLimiter  *rate.Limiter
	pollInterval time.Duration
}

// NewClient creates a Clustal Omega client. The dispatcher requires a
// contact email on every submission.
func NewClient(email string) *Client {
	return &Client{
		baseURL:      DefaultBaseURL,
		email:        email,
		http:         &http.Client{Timeout: DefaultTimeout},
		rateLimiter:  rate.NewLimiter(rate.Limit(RequestsPerSecond), 1),
		pollInterval: DefaultPollInterval,
	}
}

// SetPollInterval overrides the delay between job status checks.
// Non-positive values keep the default.
func (c *Client) SetPollInterval(d time.Duration) {
	if d > 0 {
		c.pollInterval = d
	}
}

// Align submits the panel as one job and blocks until the dispatcher
// finishes it, the job fails, or the context ends. The guide tree is
// auxiliary output: if its result fetch fails the alignment is still
// returned, with a nil tree.
func (c *Client) Align(ctx context.Context, seqs []domain.ReferenceSequence) (*driven.AlignmentResult, error) {
	if len(seqs) < 2 {
		return nil, fmt.Errorf("%w: alignment needs at least two sequences, got %d", domain.ErrInvalidInput, len(seqs))
	}
	if c.email == "" {
		return nil, fmt.Errorf("%w: EBI job submission requires a contact email", domain.ErrInvalidInput)
	}

	jobID, err := c.submitJob(ctx, renderFASTA(seqs))
	if err != nil {
		return nil, err
	}

	if err := c.awaitJob(ctx, jobID); err != nil {
		return nil, err
	}

	fasta, err := c.jobResult(ctx, jobID, ResultAlignment)
	if err != nil {
		return nil, err
	}

	tree, err := c.jobResult(ctx, jobID, ResultGuideTree)
	if err != nil {
		tree = nil
	}

	return &driven.AlignmentResult{FASTA: fasta, GuideTree: tree}, nil
}

// submitJob posts the FASTA panel and returns the dispatcher's job ID.
func (c *Client) submitJob(ctx context.Context, fasta []byte) (string, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	form := url.Values{}
	form.Set("sequence", string(fasta))
	form.Set("email", c.email)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/run/", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, err := c.do(req)
	if err != nil {
		return "", fmt.Errorf("submit job: %w", err)
	}

	jobID := strings.TrimSpace(string(body))
	if jobID == "" {
		return "", fmt.Errorf("ebi: empty job ID in submission response")
	}
	return jobID, nil
}

// awaitJob polls the job until it reaches a terminal status.
func (c *Client) awaitJob(ctx context.Context, jobID string) error {
	for {
		status, err := c.jobStatus(ctx, jobID)
		if err != nil {
			return err
		}

		switch status {
		case StatusFinished:
			return nil
		case StatusError, StatusFailure, StatusNotFound:
			return fmt.Errorf("ebi: job %s ended with status %s", jobID, status)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
}

// jobStatus fetches the job's current dispatcher status.
func (c *Client) jobStatus(ctx context.Context, jobID string) (string, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/status/"+jobID, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	body, err := c.do(req)
	if err != nil {
		return "", fmt.Errorf("check status of job %s: %w", jobID, err)
	}
	return strings.TrimSpace(string(body)), nil
}

// jobResult fetches one result artifact of a finished job.
func (c *Client) jobResult(ctx context.Context, jobID, resultType string) ([]byte, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/result/"+jobID+"/"+resultType, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	body, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s result of job %s: %w", resultType, jobID, err)
	}
	return body, nil
}

// do executes one request and returns the response body.
func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ebi: %w", err)
	}
	defer resp.Body.Close()

	if err := connectors.CheckResponse("ebi", resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}

// renderFASTA writes the panel as FASTA with organism-name headers, the
// identities the pipeline expects back in the aligned rows.
func renderFASTA(seqs []domain.ReferenceSequence) []byte {
	var b strings.Builder
	for _, s := range seqs {
		b.WriteByte('>')
		b.WriteString(s.Organism)
		b.WriteByte('\n')
		b.WriteString(s.Residues)
		b.WriteByte('\n')
	}
	return []byte(b.String())
}
