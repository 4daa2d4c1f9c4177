// Package migrations holds the embedded schema for the profile database.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
