package db

import (
	"database/sql"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// DefaultPath is used when Open is called with an empty path.
const DefaultPath = "rice_shop.db"

// Open opens (or creates) the marketplace SQLite database and applies pending
// migrations from internal/db/migrations. Files follow the pattern
//
//	0001_name.up.sql / 0001_name.down.sql
//
// A script whose first line is "-- NO_TX" runs outside a transaction.
func Open(path string) (*sql.DB, error) {
	if path == "" {
		path = DefaultPath
	}
	d, err := sql.Open("sqlite3", withConnParams(path))
	if err != nil {
		return nil, err
	}
	if err := d.Ping(); err != nil {
		_ = d.Close()
		return nil, err
	}
	// WAL is not available for in-memory databases.
	_, _ = d.Exec(`PRAGMA journal_mode=WAL`)
	for _, p := range []string{`PRAGMA busy_timeout=5000`, `PRAGMA foreign_keys=ON`} {
		if _, err := d.Exec(p); err != nil {
			_ = d.Close()
			return nil, err
		}
	}
	if err := Migrate(d); err != nil {
		_ = d.Close()
		return nil, err
	}
	return d, nil
}

// withConnParams adds driver parameters so every pooled connection, not only
// the first, enforces foreign keys and waits on locks.
func withConnParams(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_foreign_keys=on&_busy_timeout=5000"
}
