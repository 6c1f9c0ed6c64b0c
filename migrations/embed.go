// Package migrations embeds the SQL schema migrations for the tracking board
// read model.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
