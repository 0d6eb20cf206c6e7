package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    username      TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('admin', 'manager', 'user')),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_active
    ON users(username) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS chromebooks (
    id               TEXT PRIMARY KEY,
    chromebook_id    TEXT NOT NULL UNIQUE,
    model            TEXT NOT NULL DEFAULT '',
    manufacturer     TEXT,
    serial_number    TEXT,
    patrimony_number TEXT,
    location         TEXT,
    condition        TEXT,
    status           TEXT NOT NULL DEFAULT 'available'
        CHECK (status IN ('available', 'loaned', 'fixed', 'out_of_service', 'maintenance')),
    created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_chromebooks_serial ON chromebooks(serial_number);
CREATE INDEX IF NOT EXISTS idx_chromebooks_patrimony ON chromebooks(patrimony_number);

CREATE TABLE IF NOT EXISTS inventory_audits (
    id             TEXT PRIMARY KEY,
    name           TEXT NOT NULL,
    status         TEXT NOT NULL DEFAULT 'in_progress'
        CHECK (status IN ('in_progress', 'completed', 'cancelled')),
    started_at     DATETIME NOT NULL,
    completed_at   DATETIME,
    total_expected INTEGER,
    total_counted  INTEGER,
    created_by     INTEGER NOT NULL REFERENCES users(id)
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_inventory_audits_active
    ON inventory_audits(created_by) WHERE status = 'in_progress';

CREATE TABLE IF NOT EXISTS audit_items (
    id                 TEXT PRIMARY KEY,
    audit_id           TEXT NOT NULL REFERENCES inventory_audits(id) ON DELETE CASCADE,
    chromebook_id      TEXT NOT NULL REFERENCES chromebooks(id),
    counted_at         DATETIME NOT NULL,
    counted_by         INTEGER REFERENCES users(id),
    scan_method        TEXT NOT NULL CHECK (scan_method IN ('qr_code', 'manual_id')),
    expected_location  TEXT,
    expected_condition TEXT,
    location_found     TEXT,
    condition_found    TEXT
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_audit_items_audit_chromebook
    ON audit_items(audit_id, chromebook_id);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
