// Package migrations embeds the progress schema for each SQL backend.
package migrations

import (
	"embed"
	"io/fs"
)

//go:embed sqlite/*.sql postgres/*.sql
var files embed.FS

// SQLite returns the migrations of the local SQLite store.
func SQLite() fs.FS {
	return mustSub("sqlite")
}

// Postgres returns the migrations of the PostgreSQL store.
func Postgres() fs.FS {
	return mustSub("postgres")
}

func mustSub(dir string) fs.FS {
	sub, err := fs.Sub(files, dir)
	if err != nil {
		panic(err)
	}
	return sub
}
