// Package migrations ships the SQL schema of the dispatch log.
package migrations

import "embed"

// FS holds every migration file
//
//go:embed *.sql
var FS embed.FS
