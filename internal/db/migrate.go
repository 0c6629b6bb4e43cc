package db

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	stdfs "io/fs"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const noTxMarker = "-- NO_TX"

var migrationFileRe = regexp.MustCompile(`^([0-9]{4})_(.+)\.(up|down)\.sql$`)

// Migration is one embedded schema step.
type Migration struct {
	Version int
	Name    string
	up      string
	down    string
}

// MigrationStatus reports whether a migration has been applied, and when.
type MigrationStatus struct {
	Migration
	AppliedAt time.Time
	Applied   bool
}

// Migrate applies every embedded migration that has not been recorded yet, in version order.
func Migrate(d *sql.DB) error {
	migs, err := embeddedMigrations()
	if err != nil {
		return err
	}
	applied, err := appliedAt(d)
	if err != nil {
		return err
	}
	for _, m := range migs {
		if _, ok := applied[m.Version]; ok {
			continue
		}
		if m.up == "" {
			return fmt.Errorf("migration %04d_%s has no up script", m.Version, m.Name)
		}
		err := execScript(d, m.up, func(x execer) error {
			_, err := x.Exec(`INSERT INTO schema_migrations(version) VALUES(?)`, m.Version)
			return err
		})
		if err != nil {
			return fmt.Errorf("apply %04d_%s: %w", m.Version, m.Name, err)
		}
	}
	return nil
}

// RollbackLast reverts the newest applied migration with its down script.
// Nothing applied is a no-op.
func RollbackLast(d *sql.DB) error {
	if d == nil {
		return errors.New("nil db")
	}
	version, err := CurrentVersion(d)
	if err != nil || version == 0 {
		return err
	}
	migs, err := embeddedMigrations()
	if err != nil {
		return err
	}
	i := sort.Search(len(migs), func(i int) bool { return migs[i].Version >= version })
	if i == len(migs) || migs[i].Version != version || migs[i].down == "" {
		return fmt.Errorf("no down script for version %d", version)
	}
	return execScript(d, migs[i].down, func(x execer) error {
		_, err := x.Exec(`DELETE FROM schema_migrations WHERE version = ?`, version)
		return err
	})
}

// CurrentVersion returns the highest applied version, 0 for a fresh database.
func CurrentVersion(d *sql.DB) (int, error) {
	if err := ensureMigrationsTable(d); err != nil {
		return 0, err
	}
	var version sql.NullInt64
	if err := d.QueryRow(`SELECT MAX(version) FROM schema_migrations`).Scan(&version); err != nil {
		return 0, err
	}
	return int(version.Int64), nil
}

// Status lists every embedded migration alongside its applied state.
func Status(d *sql.DB) ([]MigrationStatus, error) {
	migs, err := embeddedMigrations()
	if err != nil {
		return nil, err
	}
	applied, err := appliedAt(d)
	if err != nil {
		return nil, err
	}
	out := make([]MigrationStatus, 0, len(migs))
	for _, m := range migs {
		at, ok := applied[m.Version]
		out = append(out, MigrationStatus{Migration: m, Applied: ok, AppliedAt: at})
	}
	return out, nil
}

func embeddedMigrations() ([]Migration, error) {
	entries, err := stdfs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return nil, err
	}
	byVersion := make(map[int]*Migration)
	for _, e := range entries {
		parts := migrationFileRe.FindStringSubmatch(e.Name())
		if e.IsDir() || parts == nil {
			continue
		}
		version, _ := strconv.Atoi(parts[1])
		m, ok := byVersion[version]
		if !ok {
			m = &Migration{Version: version, Name: parts[2]}
			byVersion[version] = m
		}
		path := "migrations/" + e.Name()
		if parts[3] == "up" {
			m.up = path
		} else {
			m.down = path
		}
	}
	out := make([]Migration, 0, len(byVersion))
	for _, m := range byVersion {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// execScript runs an embedded script followed by record. Both share a
// transaction unless the script starts with "-- NO_TX".
func execScript(d *sql.DB, path string, record func(execer) error) error {
	raw, err := migrationsFS.ReadFile(path)
	if err != nil {
		return err
	}
	script := string(raw)
	if strings.HasPrefix(strings.TrimSpace(script), noTxMarker) {
		if _, err := d.Exec(script); err != nil {
			return err
		}
		return record(d)
	}

	tx, err := d.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.Exec(script); err != nil {
		return err
	}
	if err := record(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func ensureMigrationsTable(d *sql.DB) error {
	_, err := d.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
	)`)
	return err
}

// appliedAt maps recorded versions to their application time.
func appliedAt(d *sql.DB) (map[int]time.Time, error) {
	if err := ensureMigrationsTable(d); err != nil {
		return nil, err
	}
	rows, err := d.Query(`SELECT version, applied_at FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[int]time.Time)
	for rows.Next() {
		var (
			v  int
			at string
		)
		if err := rows.Scan(&v, &at); err != nil {
			return nil, err
		}
		t, _ := time.Parse(time.RFC3339, at)
		out[v] = t
	}
	return out, rows.Err()
}
