package ncbi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wperlichek/comparative-genomics-pipeline/internal/connectors"
	"github.com/wperlichek/comparative-genomics-pipeline/internal/core/domain"
)

func TestClient_FetchSequence(t *testing.T) {
	const fastaBody = ">XP_046777293.1 sodium channel protein type 1 [Gallus gallus]\nMEQSVLVPPGPDSFRYFTRESLA\n"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		assert.Equal(t, "protein", query.Get("db"))
		assert.Equal(t, "XP_046777293", query.Get("id"))
		assert.Equal(t, "fasta", query.Get("rettype"))
		assert.Equal(t, "text", query.Get("retmode"))
		assert.Empty(t, query.Get("api_key"))
		_, _ = w.Write([]byte(fastaBody))
	}))
	defer server.Close()

	client := NewClient("")
	client.baseURL = server.URL

	payload, err := client.FetchSequence(context.Background(), domain.Organism{Name: "chicken", EntrezProteinID: "XP_046777293"})
	require.NoError(t, err)
	assert.Equal(t, fastaBody, string(payload))
}

func TestClient_FetchSequence_WithAPIKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret-key", r.URL.Query().Get("api_key"))
		_, _ = w.Write([]byte(">XP_1\nMA\n"))
	}))
	defer server.Close()

	client := NewClient("secret-key")
	client.baseURL = server.URL

	_, err := client.FetchSequence(context.Background(), domain.Organism{Name: "zebrafish", EntrezProteinID: "XP_1"})
	require.NoError(t, err)
}

func TestClient_RateDependsOnKey(t *testing.T) {
	assert.EqualValues(t, KeylessRate, NewClient("").rateLimiter.Limit())
	assert.EqualValues(t, KeyedRate, NewClient("some-key").rateLimiter.Limit())
}

func TestClient_FetchSequence_NoEntrezID(t *testing.T) {
	client := NewClient("")

	_, err := client.FetchSequence(context.Background(), domain.Organism{Name: "human", UniProtID: "P35498"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestClient_FetchSequence_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "1")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient("")
	client.baseURL = server.URL

	_, err := client.FetchSequence(context.Background(), domain.Organism{Name: "chicken", EntrezProteinID: "XP_1"})
	require.Error(t, err)
	assert.True(t, connectors.IsRateLimited(err))
}

func TestClient_SupportsAndIdentity(t *testing.T) {
	client := NewClient("")

	assert.Equal(t, "ncbi", client.Name())
	assert.True(t, client.Supports(domain.Organism{EntrezProteinID: "XP_046777293"}))
	assert.False(t, client.Supports(domain.Organism{UniProtID: "P35498"}))
}
