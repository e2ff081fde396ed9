package connectors

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// maxErrorBody bounds how much of an error response body is kept for
// the error message.
const maxErrorBody = 512

// APIError represents a non-2xx response from a remote service.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
	URL        string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: API error %d (URL: %s)", e.Provider, e.StatusCode, e.URL)
	}
	return fmt.Sprintf("%s: API error %d: %s (URL: %s)", e.Provider, e.StatusCode, e.Message, e.URL)
}

// RateLimitError represents a 429 response.
type RateLimitError struct {
	Provider   string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s: rate limit exceeded, retry after %s", e.Provider, e.RetryAfter)
	}
	return fmt.Sprintf("%s: rate limit exceeded", e.Provider)
}

// CheckResponse converts a non-2xx response into a typed error. The
// response body is consumed on failure, so callers only read it on the
// success path.
func CheckResponse(provider string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	if resp.StatusCode == http.StatusTooManyRequests {
		return &RateLimitError{
			Provider:   provider,
			RetryAfter: retryAfter(resp),
		}
	}

	url := ""
	if resp.Request != nil && resp.Request.URL != nil {
		url = resp.Request.URL.String()
	}
	return &APIError{
		Provider:   provider,
		StatusCode: resp.StatusCode,
		Message:    strings.TrimSpace(string(body)),
		URL:        url,
	}
}

// retryAfter parses a Retry-After header in seconds form. Zero when
// absent or unparseable.
func retryAfter(resp *http.Response) time.Duration {
	header := resp.Header.Get("Retry-After")
	if header == "" {
		return 0
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// IsNotFound checks if the error indicates a missing remote resource.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusNotFound
	}
	return false
}

// IsRateLimited checks if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	var rateLimitErr *RateLimitError
	return errors.As(err, &rateLimitErr)
}

// IsServerError checks if the error indicates a remote server failure,
// the class of failure worth retrying on a later run.
func IsServerError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500
	}
	return false
}
