package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

const dirMode = 0o700

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS glucose_samples (
		sync_id TEXT PRIMARY KEY,
		start_ns INTEGER NOT NULL,
		quantity REAL NOT NULL,
		display_only INTEGER NOT NULL DEFAULT 0,
		user_entered INTEGER NOT NULL DEFAULT 0,
		provenance TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS glucose_samples_start ON glucose_samples(start_ns)`,
	`CREATE TABLE IF NOT EXISTS doses (
		sync_id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		start_ns INTEGER NOT NULL,
		end_ns INTEGER NOT NULL,
		value REAL NOT NULL,
		unit TEXT NOT NULL,
		delivered_units REAL,
		automatic INTEGER,
		insulin_type TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS doses_start ON doses(start_ns)`,
	`CREATE TABLE IF NOT EXISTS carb_entries (
		sync_id TEXT PRIMARY KEY,
		start_ns INTEGER NOT NULL,
		grams REAL NOT NULL,
		absorption_ns INTEGER NOT NULL,
		food_type TEXT NOT NULL DEFAULT '',
		user_created_ns INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS carb_entries_start ON carb_entries(start_ns)`,
	`CREATE TABLE IF NOT EXISTS pump_reports (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		last_reported_ns INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS dosing_decisions (
		id TEXT PRIMARY KEY,
		recorded_ns INTEGER NOT NULL,
		payload BLOB NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS dosing_decisions_recorded ON dosing_decisions(recorded_ns)`,
}

// DB owns the sqlite handle shared by the history and decision stores.
type DB struct {
	db   *sql.DB
	path string
}

func Open(ctx context.Context, path string) (*DB, error) {
	if path == "" {
		return nil, errors.New("sqlite path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), dirMode); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer at a time; sqlite serializes anyway and this avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate sqlite schema: %w", err)
		}
	}

	return &DB{db: db, path: path}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) Path() string { return d.path }

func (d *DB) inTx(ctx context.Context, fn func(tx *sql.Tx) error) (retErr error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

func toNanos(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}

	return t.UnixNano()
}

func fromNanos(ns int64) time.Time {
	if ns == 0 {
		return time.Time{}
	}

	return time.Unix(0, ns).UTC()
}

func boolToInt(v bool) int {
	if v {
		return 1
	}

	return 0
}
