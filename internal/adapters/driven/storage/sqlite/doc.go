// Package sqlite provides a unified SQLite-based implementation of the
// persistence ports.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO, enabling easy cross-compilation. It implements both store
// interfaces through a single database connection:
//
//   - ArtifactStore: cached remote payloads keyed by fingerprint
//   - RunStore: run summary persistence for history listings
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory and applied in order when the store opens.
//
// # Data Location
//
// By default, the database is stored at ~/.cgp/data/cache.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
