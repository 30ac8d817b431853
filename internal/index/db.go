// Package index maintains the derived SQLite read-model behind
// the dashboard's browsing surface: session rollups, per-session
// event streams, and O(1) counters. It is rebuildable from the
// JSONL event log at any time and is never the aggregation
// core's input.
package index

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// DB manages a single write connection and a read-only pool.
type DB struct {
	writer *sql.DB
	reader *sql.DB
	mu     sync.Mutex // serializes writes
}

// makeDSN builds a SQLite connection string with shared pragmas.
func makeDSN(path string, readOnly bool) string {
	params := url.Values{}
	params.Set("_journal_mode", "WAL")
	params.Set("_busy_timeout", "5000")
	params.Set("_foreign_keys", "ON")
	params.Set("_cache_size", "-64000")
	if readOnly {
		params.Set("mode", "ro")
	} else {
		params.Set("_synchronous", "NORMAL")
	}
	return path + "?" + params.Encode()
}

// Open creates or opens the index database at path, configures
// WAL mode, and applies the schema.
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	writer, err := sql.Open("sqlite3", makeDSN(path, false))
	if err != nil {
		return nil, fmt.Errorf("opening writer: %w", err)
	}
	writer.SetMaxOpenConns(1)

	reader, err := sql.Open("sqlite3", makeDSN(path, true))
	if err != nil {
		writer.Close()
		return nil, fmt.Errorf("opening reader: %w", err)
	}
	reader.SetMaxOpenConns(4)

	db := &DB{writer: writer, reader: reader}
	if err := db.init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return db, nil
}

func (db *DB) init() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	_, err := db.writer.Exec(schemaSQL)
	return err
}

// Close closes both connections.
func (db *DB) Close() error {
	return errors.Join(db.writer.Close(), db.reader.Close())
}

// Update executes fn within the write lock and a transaction,
// committing when fn returns nil.
func (db *DB) Update(fn func(tx *sql.Tx) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	tx, err := db.writer.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// Reset clears every derived row; Rebuild repopulates from the
// log afterwards.
func (db *DB) Reset() error {
	return db.Update(func(tx *sql.Tx) error {
		for _, stmt := range []string{
			"DELETE FROM events",
			"DELETE FROM sessions",
			"DELETE FROM log_offsets",
			"UPDATE stats SET value = 0",
		} {
			if _, err := tx.Exec(stmt); err != nil {
				return fmt.Errorf("resetting index: %w", err)
			}
		}
		return nil
	})
}
