// Package migrations embeds the SQL schema files applied by the SQLite store.
package migrations

import "embed"

// FS holds the migration files compiled into the binary.
//
//go:embed *.sql
var FS embed.FS
