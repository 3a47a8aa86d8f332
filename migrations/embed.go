// Package migrations holds the SQL that prepares a routing database.
// Files named NNN_name.sql are applied in order; NNN_name.down.sql undoes them.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
