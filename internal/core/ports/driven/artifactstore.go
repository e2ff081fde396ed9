package driven

import (
	"context"
	"time"

	"github.com/wperlichek/comparative-genomics-pipeline/internal/core/domain"
)

// ArtifactStore caches remote payloads between runs so repeated
// invocations skip the network. Backed by SQLite; a memory
// implementation backs tests.
type ArtifactStore interface {
	// GetArtifact retrieves a cached payload by fingerprint.
	// Returns domain.ErrNotFound when the fingerprint was never cached.
	GetArtifact(ctx context.Context, fp domain.Fingerprint) (*domain.Artifact, error)

	// PutArtifact stores or replaces the payload for its fingerprint.
	PutArtifact(ctx context.Context, artifact *domain.Artifact) error

	// DeleteArtifacts removes cached payloads of one kind, or all
	// payloads when kind is empty. Returns the number removed.
	DeleteArtifacts(ctx context.Context, kind domain.ArtifactKind) (int, error)

	// Stats summarises the cache contents.
	Stats(ctx context.Context) (*CacheStats, error)
}

// CacheStats summarises what an artifact store currently holds.
type CacheStats struct {
	// Artifacts is the number of cached payloads.
	Artifacts int

	// Bytes is the total payload size.
	Bytes int64

	// ByKind counts payloads per artifact kind.
	ByKind map[domain.ArtifactKind]int

	// OldestFetchedAt and NewestFetchedAt bound the cache age.
	// Zero when the cache is empty.
	OldestFetchedAt time.Time
	NewestFetchedAt time.Time
}

// RunStore persists run summaries for `runs` history listings.
type RunStore interface {
	// SaveRun stores a completed run summary.
	SaveRun(ctx context.Context, run *domain.RunSummary) error

	// ListRuns returns summaries newest-first, up to limit (0 for all).
	ListRuns(ctx context.Context, limit int) ([]domain.RunSummary, error)
}
