package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/wperlichek/comparative-genomics-pipeline/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/wperlichek/comparative-genomics-pipeline/internal/core/domain"
	"github.com/wperlichek/comparative-genomics-pipeline/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides access to the
// artifact cache and the run history through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.cgp/data/cache.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".cgp", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "cache.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// ArtifactStore returns an ArtifactStore interface backed by this store.
func (s *Store) ArtifactStore() driven.ArtifactStore {
	return &artifactStore{store: s}
}

// RunStore returns a RunStore interface backed by this store.
func (s *Store) RunStore() driven.RunStore {
	return &runStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Artifact Store ====================

// artifactStore implements driven.ArtifactStore.
type artifactStore struct {
	store *Store
}

var _ driven.ArtifactStore = (*artifactStore)(nil)

// GetArtifact retrieves a cached payload by fingerprint.
func (s *artifactStore) GetArtifact(ctx context.Context, fp domain.Fingerprint) (*domain.Artifact, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT content, fetched_at
		FROM artifacts WHERE organism = ? AND accession = ? AND kind = ?
	`, fp.Organism, fp.Accession, string(fp.Kind))

	artifact := domain.Artifact{Fingerprint: fp}
	var fetchedAt sql.NullTime
	if err := row.Scan(&artifact.Content, &fetchedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning artifact: %w", err)
	}

	if fetchedAt.Valid {
		artifact.FetchedAt = fetchedAt.Time
	}

	return &artifact, nil
}

// PutArtifact stores or replaces the payload for its fingerprint.
func (s *artifactStore) PutArtifact(ctx context.Context, artifact *domain.Artifact) error {
	if artifact == nil || artifact.Fingerprint.Kind == "" {
		return domain.ErrInvalidInput
	}

	fp := artifact.Fingerprint
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO artifacts (organism, accession, kind, content, fetched_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(organism, accession, kind) DO UPDATE SET
			content = excluded.content,
			fetched_at = excluded.fetched_at
	`, fp.Organism, fp.Accession, string(fp.Kind), artifact.Content, artifact.FetchedAt.UTC())

	if err != nil {
		return fmt.Errorf("saving artifact: %w", err)
	}
	return nil
}

// DeleteArtifacts removes cached payloads of one kind, or all payloads
// when kind is empty. Returns the number removed.
func (s *artifactStore) DeleteArtifacts(ctx context.Context, kind domain.ArtifactKind) (int, error) {
	var result sql.Result
	var err error
	if kind == "" {
		result, err = s.store.db.ExecContext(ctx, "DELETE FROM artifacts")
	} else {
		result, err = s.store.db.ExecContext(ctx, "DELETE FROM artifacts WHERE kind = ?", string(kind))
	}
	if err != nil {
		return 0, fmt.Errorf("deleting artifacts: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted artifacts: %w", err)
	}
	return int(removed), nil
}

// Stats summarises the cache contents.
func (s *artifactStore) Stats(ctx context.Context) (*driven.CacheStats, error) {
	stats := &driven.CacheStats{
		ByKind: make(map[domain.ArtifactKind]int),
	}

	err := s.store.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(LENGTH(content)), 0) FROM artifacts
	`).Scan(&stats.Artifacts, &stats.Bytes)
	if err != nil {
		return nil, fmt.Errorf("aggregating artifacts: %w", err)
	}

	// MIN/MAX strip the column's declared type, so the driver would hand
	// back a string instead of a time.Time. Order and take one instead.
	if stats.Artifacts > 0 {
		err = s.store.db.QueryRowContext(ctx, `
			SELECT fetched_at FROM artifacts ORDER BY fetched_at ASC LIMIT 1
		`).Scan(&stats.OldestFetchedAt)
		if err != nil {
			return nil, fmt.Errorf("finding oldest artifact: %w", err)
		}

		err = s.store.db.QueryRowContext(ctx, `
			SELECT fetched_at FROM artifacts ORDER BY fetched_at DESC LIMIT 1
		`).Scan(&stats.NewestFetchedAt)
		if err != nil {
			return nil, fmt.Errorf("finding newest artifact: %w", err)
		}
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT kind, COUNT(*) FROM artifacts GROUP BY kind
	`)
	if err != nil {
		return nil, fmt.Errorf("querying artifact kinds: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var kind string
		var count int
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, fmt.Errorf("scanning artifact kind: %w", err)
		}
		stats.ByKind[domain.ArtifactKind(kind)] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating artifact kinds: %w", err)
	}

	return stats, nil
}

// ==================== Run Store ====================

// runStore implements driven.RunStore.
type runStore struct {
	store *Store
}

var _ driven.RunStore = (*runStore)(nil)

// SaveRun stores a completed run summary.
func (s *runStore) SaveRun(ctx context.Context, run *domain.RunSummary) error {
	if run == nil || run.ID == "" {
		return domain.ErrInvalidInput
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, finished_at, genes, failed, unmapped_variants, dropped_records)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			started_at = excluded.started_at,
			finished_at = excluded.finished_at,
			genes = excluded.genes,
			failed = excluded.failed,
			unmapped_variants = excluded.unmapped_variants,
			dropped_records = excluded.dropped_records
	`, run.ID, run.StartedAt.UTC(), run.FinishedAt.UTC(),
		run.Genes, run.Failed, run.UnmappedVariants, run.DroppedRecords)

	if err != nil {
		return fmt.Errorf("saving run: %w", err)
	}
	return nil
}

// ListRuns returns summaries newest-first, up to limit (0 for all).
func (s *runStore) ListRuns(ctx context.Context, limit int) ([]domain.RunSummary, error) {
	query := `
		SELECT id, started_at, finished_at, genes, failed, unmapped_variants, dropped_records
		FROM runs ORDER BY started_at DESC, id
	`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

// ==================== Helper Functions ====================

// scanRuns scans multiple run summary rows.
func scanRuns(rows *sql.Rows) ([]domain.RunSummary, error) {
	var runs []domain.RunSummary //nolint:prealloc // size unknown from query
	for rows.Next() {
		var run domain.RunSummary
		var startedAt, finishedAt sql.NullTime
		if err := rows.Scan(&run.ID, &startedAt, &finishedAt,
			&run.Genes, &run.Failed, &run.UnmappedVariants, &run.DroppedRecords); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}

		if startedAt.Valid {
			run.StartedAt = startedAt.Time
		}
		if finishedAt.Valid {
			run.FinishedAt = finishedAt.Time
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}

	return runs, nil
}
