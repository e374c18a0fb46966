package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    full_name     TEXT NOT NULL,
    email         TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('admin', 'staff', 'user')),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email_active
    ON users(email) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS categories (
    id         INTEGER PRIMARY KEY,
    name       TEXT NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_categories_name_active
    ON categories(name) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS locations (
    id         INTEGER PRIMARY KEY,
    name       TEXT NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_locations_name_active
    ON locations(name) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS lost_reports (
    id                 INTEGER PRIMARY KEY,
    user_id            INTEGER NOT NULL REFERENCES users(id),
    category_id        INTEGER NOT NULL REFERENCES categories(id),
    location_id        INTEGER NOT NULL REFERENCES locations(id),
    item_name          TEXT NOT NULL,
    description        TEXT,
    date_lost          DATETIME NOT NULL,
    last_seen_location TEXT,
    status             TEXT NOT NULL DEFAULT 'REPORTED_LOST' CHECK (status IN ('REPORTED_LOST', 'CANCELLED')),
    created_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS found_items (
    id               INTEGER PRIMARY KEY,
    reported_by      INTEGER NOT NULL REFERENCES users(id),
    category_id      INTEGER NOT NULL REFERENCES categories(id),
    location_id      INTEGER NOT NULL REFERENCES locations(id),
    item_name        TEXT NOT NULL,
    description      TEXT,
    date_found       DATETIME NOT NULL,
    storage_location TEXT,
    image            BLOB,
    image_mime       TEXT,
    status           TEXT NOT NULL DEFAULT 'NEWLY_FOUND' CHECK (status IN ('NEWLY_FOUND', 'CLAIMED', 'RETURNED')),
    created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS matches (
    id         INTEGER PRIMARY KEY,
    lost_id    INTEGER NOT NULL REFERENCES lost_reports(id),
    found_id   INTEGER NOT NULL REFERENCES found_items(id),
    score      REAL NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (lost_id, found_id)
);

CREATE TABLE IF NOT EXISTS claims (
    id                INTEGER PRIMARY KEY,
    found_id          INTEGER NOT NULL REFERENCES found_items(id),
    claimant_id       INTEGER NOT NULL REFERENCES users(id),
    proof_description TEXT NOT NULL,
    status            TEXT NOT NULL DEFAULT 'PENDING' CHECK (status IN ('PENDING', 'APPROVED', 'DENIED')),
    reviewed_by       INTEGER REFERENCES users(id),
    reviewed_at       DATETIME,
    created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_claims_found ON claims(found_id);

CREATE TABLE IF NOT EXISTS notifications (
    id         INTEGER PRIMARY KEY,
    user_id    INTEGER NOT NULL REFERENCES users(id),
    type       TEXT NOT NULL,
    title      TEXT NOT NULL,
    message    TEXT NOT NULL,
    href       TEXT,
    is_read    INTEGER NOT NULL DEFAULT 0,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id, is_read);

CREATE TABLE IF NOT EXISTS audit_logs (
    id            INTEGER PRIMARY KEY,
    actor_user_id INTEGER REFERENCES users(id),
    action        TEXT NOT NULL,
    entity_type   TEXT NOT NULL,
    entity_id     INTEGER,
    summary       TEXT,
    meta          TEXT,
    ip            TEXT,
    user_agent    TEXT,
    request_id    TEXT,
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
