package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/wperlichek/comparative-genomics-pipeline/internal/core/domain"
	"github.com/wperlichek/comparative-genomics-pipeline/internal/core/ports/driven"
)

// Ensure ArtifactStore implements the interface.
var _ driven.ArtifactStore = (*ArtifactStore)(nil)

// ArtifactStore is an in-memory implementation of driven.ArtifactStore.
type ArtifactStore struct {
	mu        sync.RWMutex
	artifacts map[domain.Fingerprint]domain.Artifact
}

// NewArtifactStore creates a new in-memory artifact store.
func NewArtifactStore() *ArtifactStore {
	return &ArtifactStore{
		artifacts: make(map[domain.Fingerprint]domain.Artifact),
	}
}

// GetArtifact retrieves a cached payload by fingerprint.
func (s *ArtifactStore) GetArtifact(_ context.Context, fp domain.Fingerprint) (*domain.Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	artifact, ok := s.artifacts[fp]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &artifact, nil
}

// PutArtifact stores or replaces the payload for its fingerprint.
func (s *ArtifactStore) PutArtifact(_ context.Context, artifact *domain.Artifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.artifacts[artifact.Fingerprint] = *artifact
	return nil
}

// DeleteArtifacts removes cached payloads of one kind, or all payloads
// when kind is empty.
func (s *ArtifactStore) DeleteArtifacts(_ context.Context, kind domain.ArtifactKind) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for fp := range s.artifacts {
		if kind != "" && fp.Kind != kind {
			continue
		}
		delete(s.artifacts, fp)
		removed++
	}
	return removed, nil
}

// Stats summarises the cache contents.
func (s *ArtifactStore) Stats(_ context.Context) (*driven.CacheStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &driven.CacheStats{
		Artifacts: len(s.artifacts),
		ByKind:    make(map[domain.ArtifactKind]int),
	}
	for fp, artifact := range s.artifacts {
		stats.Bytes += int64(len(artifact.Content))
		stats.ByKind[fp.Kind]++
		if stats.OldestFetchedAt.IsZero() || artifact.FetchedAt.Before(stats.OldestFetchedAt) {
			stats.OldestFetchedAt = artifact.FetchedAt
		}
		if artifact.FetchedAt.After(stats.NewestFetchedAt) {
			stats.NewestFetchedAt = artifact.FetchedAt
		}
	}
	return stats, nil
}

// Keys returns the cached fingerprints sorted by key, for tests and
// listings.
func (s *ArtifactStore) Keys() []domain.Fingerprint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]domain.Fingerprint, 0, len(s.artifacts))
	for fp := range s.artifacts {
		keys = append(keys, fp)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Key() < keys[j].Key() })
	return keys
}
