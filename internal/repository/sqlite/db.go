package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// pragmas are applied by the driver to every connection it opens.
const pragmas = "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

// Open opens (or creates) the audit ledger at path. Parent directories are
// created as needed and the connection is checked before it is returned.
func Open(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create audit db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+pragmas)
	if err != nil {
		return nil, fmt.Errorf("open audit db %s: %w", path, err)
	}
	// the batch writes one entry at a time
	db.SetMaxOpenConns(1)

	var foreignKeys int
	if err := db.QueryRow(`PRAGMA foreign_keys`).Scan(&foreignKeys); err != nil {
		db.Close()
		return nil, fmt.Errorf("audit db %s: %w", path, err)
	}
	if foreignKeys != 1 {
		db.Close()
		return nil, fmt.Errorf("audit db %s: foreign keys not enabled", path)
	}
	return db, nil
}
