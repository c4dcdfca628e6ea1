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

CREATE TABLE IF NOT EXISTS customers (
    id                  INTEGER PRIMARY KEY,
    name                TEXT NOT NULL,
    phone               TEXT,
    email               TEXT,
    passport            TEXT,
    address             TEXT,
    passport_issue_date DATETIME,
    created_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at          DATETIME
);

CREATE TABLE IF NOT EXISTS equipment (
    id                   INTEGER PRIMARY KEY,
    name                 TEXT NOT NULL,
    category             TEXT NOT NULL,
    description          TEXT,
    price                TEXT NOT NULL,
    additional_day_price TEXT NOT NULL DEFAULT '0',
    deposit              TEXT NOT NULL DEFAULT '0',
    quantity             INTEGER NOT NULL CHECK (quantity > 0),
    available_quantity   INTEGER NOT NULL CHECK (available_quantity >= 0 AND available_quantity <= quantity),
    image                BLOB,
    image_mime           TEXT,
    created_at           DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at           DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at           DATETIME
);

CREATE TABLE IF NOT EXISTS rentals (
    id                  INTEGER PRIMARY KEY,
    customer_id         INTEGER NOT NULL REFERENCES customers(id),
    equipment_id        INTEGER NOT NULL REFERENCES equipment(id),
    quantity            INTEGER NOT NULL CHECK (quantity > 0),
    start_date          DATETIME NOT NULL,
    end_date            DATETIME NOT NULL,
    total_price         TEXT NOT NULL DEFAULT '0',
    deposit             TEXT NOT NULL DEFAULT '0',
    final_price         TEXT NOT NULL DEFAULT '0',
    damage_cost         TEXT NOT NULL DEFAULT '0',
    cleaning_cost       TEXT NOT NULL DEFAULT '0',
    final_deposit       TEXT NOT NULL DEFAULT '0',
    notes               TEXT,
    status              TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'completed', 'cancelled')),
    reservation_applied INTEGER NOT NULL DEFAULT 0,
    created_by          INTEGER REFERENCES users(id),
    created_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    closed_at           DATETIME,
    CHECK (end_date > start_date)
);

CREATE INDEX IF NOT EXISTS idx_rentals_equipment_status
    ON rentals(equipment_id, status);

CREATE INDEX IF NOT EXISTS idx_rentals_start_date
    ON rentals(start_date);
`

// EnsureSchema creates all tables and indexes if they don't already exist,
// then applies pending migrations.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return Migrate(db)
}
