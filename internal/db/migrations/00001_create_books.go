package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

// MySQL cannot put a UNIQUE index on TEXT, and each driver wants its own
// timestamp type for time.Time round-trips.
func init() {
	goose.AddMigrationContext(upCreateBooks, dropTable("books"))
}

func upCreateBooks(ctx context.Context, tx *sql.Tx) error {
	var ddl string
	switch dialect {
	case "postgres":
		ddl = `CREATE TABLE IF NOT EXISTS books (
    id              TEXT PRIMARY KEY,
    external_id     TEXT NOT NULL UNIQUE,
    title           TEXT NOT NULL,
    subtitle        TEXT NOT NULL DEFAULT '',
    authors         TEXT NOT NULL,
    publisher       TEXT NOT NULL,
    published_date  TEXT NOT NULL,
    description     TEXT NOT NULL,
    page_count      INTEGER NOT NULL,
    categories      TEXT NOT NULL,
    small_thumbnail TEXT NOT NULL,
    thumbnail       TEXT NOT NULL,
    language        TEXT NOT NULL,
    version         INTEGER NOT NULL DEFAULT 1,
    created_at      TIMESTAMPTZ NOT NULL,
    updated_at      TIMESTAMPTZ NOT NULL
)`
	case "mysql":
		ddl = `CREATE TABLE IF NOT EXISTS books (
    id              VARCHAR(36) PRIMARY KEY,
    external_id     VARCHAR(255) NOT NULL UNIQUE,
    title           TEXT NOT NULL,
    subtitle        TEXT NOT NULL,
    authors         TEXT NOT NULL,
    publisher       TEXT NOT NULL,
    published_date  VARCHAR(64) NOT NULL,
    description     TEXT NOT NULL,
    page_count      INT NOT NULL,
    categories      TEXT NOT NULL,
    small_thumbnail TEXT NOT NULL,
    thumbnail       TEXT NOT NULL,
    language        VARCHAR(32) NOT NULL,
    version         INT NOT NULL DEFAULT 1,
    created_at      DATETIME(6) NOT NULL,
    updated_at      DATETIME(6) NOT NULL
)`
	default: // sqlite3
		ddl = `CREATE TABLE IF NOT EXISTS books (
    id              TEXT PRIMARY KEY,
    external_id     TEXT NOT NULL UNIQUE,
    title           TEXT NOT NULL,
    subtitle        TEXT NOT NULL DEFAULT '',
    authors         TEXT NOT NULL,
    publisher       TEXT NOT NULL,
    published_date  TEXT NOT NULL,
    description     TEXT NOT NULL,
    page_count      INTEGER NOT NULL,
    categories      TEXT NOT NULL,
    small_thumbnail TEXT NOT NULL,
    thumbnail       TEXT NOT NULL,
    language        TEXT NOT NULL,
    version         INTEGER NOT NULL DEFAULT 1,
    created_at      DATETIME NOT NULL,
    updated_at      DATETIME NOT NULL
)`
	}
	return execAll(ctx, tx, "books", ddl)
}
