package migrations

import "embed"

// FS contains embedded SQLite migrations for sales storage.
//
//go:embed *.sql
var FS embed.FS
