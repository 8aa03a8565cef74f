// Package store persists accounts, branches, rates, shipments and their
// status history in SQLite.
package store

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

type Store struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at the given path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id                TEXT PRIMARY KEY,
			full_name         TEXT NOT NULL,
			email             TEXT NOT NULL UNIQUE,
			password_hash     TEXT NOT NULL,
			role              TEXT NOT NULL DEFAULT 'client',
			branch_id         INTEGER,
			active_session_id TEXT,
			created_at        DATETIME NOT NULL DEFAULT (datetime('now'))
		);

		CREATE TABLE IF NOT EXISTS branches (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			branch_name    TEXT NOT NULL,
			branch_address TEXT NOT NULL,
			branch_phone   TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS service_rates (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			service_name TEXT NOT NULL UNIQUE,
			base_rate    REAL NOT NULL
		);

		CREATE TABLE IF NOT EXISTS shipments (
			id                     INTEGER PRIMARY KEY AUTOINCREMENT,
			tracking_number        TEXT NOT NULL UNIQUE,
			client_id              TEXT NOT NULL,
			origin_branch_id       INTEGER NOT NULL,
			destination_branch_id  INTEGER NOT NULL,
			status                 TEXT NOT NULL DEFAULT 'pending',
			estimated_delivery     TEXT NOT NULL DEFAULT '',
			weight_kg              REAL NOT NULL DEFAULT 0,
			service_type           TEXT NOT NULL DEFAULT '',
			price                  REAL NOT NULL DEFAULT 0,
			sender_name            TEXT NOT NULL DEFAULT '',
			sender_phone           TEXT NOT NULL DEFAULT '',
			receiver_name          TEXT NOT NULL DEFAULT '',
			receiver_phone         TEXT NOT NULL DEFAULT '',
			is_cod                 INTEGER NOT NULL DEFAULT 0,
			cod_amount             REAL NOT NULL DEFAULT 0,
			created_at             DATETIME NOT NULL DEFAULT (datetime('now'))
		);

		CREATE TABLE IF NOT EXISTS shipment_updates (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			shipment_id   INTEGER NOT NULL,
			location      TEXT NOT NULL DEFAULT '',
			status_update TEXT NOT NULL,
			timestamp     DATETIME NOT NULL DEFAULT (datetime('now')),
			FOREIGN KEY (shipment_id) REFERENCES shipments(id)
		);

		CREATE INDEX IF NOT EXISTS idx_shipments_client ON shipments(client_id);
		CREATE INDEX IF NOT EXISTS idx_updates_shipment ON shipment_updates(shipment_id);
	`)

	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}
