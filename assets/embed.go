// Package assets holds files compiled into the binary: the shipped card set
// catalog and the SQLite migrations.
package assets

import (
	"embed"
	"io/fs"
)

//go:embed cardsets.json migrations/*.sql
var FS embed.FS

// CardSets returns the raw JSON of the shipped card set catalog.
func CardSets() ([]byte, error) {
	return FS.ReadFile("cardsets.json")
}

// Migrations returns the migrations directory as its own filesystem root.
func Migrations() fs.FS {
	sub, err := fs.Sub(FS, "migrations")
	if err != nil {
		// fs.Sub only fails on an invalid path literal.
		panic(err)
	}
	return sub
}
