// Package migrations embeds the ordered schema migrations applied by
// internal/database.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
