package sqliteutil

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

func wrapOpen(err error) error {
	return fmt.Errorf("open db: %w", err)
}

// OpenDB connects to the database named by path and applies the given
// schema. A path with a libsql://, https://, http:// or wss:// scheme
// is treated as a remote libsql database, anything else as a local
// sqlite file (":memory:" works too). The schema is applied on every
// open, so it must be written entirely with IF NOT EXISTS statements.
func OpenDB(schema, path string) (*sql.DB, error) {
	db, err := open(path)
	if err != nil {
		return nil, wrapOpen(err)
	}
	if schema != "" {
		_, err = db.Exec(schema)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}
	return db, nil
}

var remoteSchemes = []string{"libsql://", "https://", "http://", "wss://", "ws://"}

func isRemote(path string) bool {
	for _, scheme := range remoteSchemes {
		if strings.HasPrefix(path, scheme) {
			return true
		}
	}
	return false
}

func open(path string) (*sql.DB, error) {
	if isRemote(path) {
		return sql.Open("libsql", path)
	}

	if path != ":memory:" {
		os.MkdirAll(filepath.Dir(path), 0777)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// see this stackoverflow post for information on why the following
	// lines exist: https://stackoverflow.com/questions/35804884/sqlite-concurrent-writing-performance
	db.SetMaxOpenConns(1)
	_, err = db.Exec("PRAGMA journal_mode=WAL")
	if err != nil {
		return nil, err
	}
	return db, nil
}
