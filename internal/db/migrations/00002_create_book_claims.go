package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

// book_claims holds one row per (book, user). The primary key keeps a user
// from owning and wanting the same book at once, even under concurrent writers.
func init() {
	goose.AddMigrationContext(upCreateBookClaims, dropTable("book_claims"))
}

func upCreateBookClaims(ctx context.Context, tx *sql.Tx) error {
	return execAll(ctx, tx, "book_claims", bookClaimsUpStmts()...)
}

func bookClaimsUpStmts() []string {
	switch dialect {
	case "postgres":
		return []string{
			`CREATE TABLE IF NOT EXISTS book_claims (
    book_id    TEXT NOT NULL REFERENCES books (id) ON DELETE CASCADE,
    user_id    TEXT NOT NULL,
    kind       TEXT NOT NULL CHECK (kind IN ('owned', 'wanted')),
    position   INTEGER NOT NULL,
    created_at TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (book_id, user_id)
)`,
			`CREATE INDEX IF NOT EXISTS idx_book_claims_user_kind ON book_claims (user_id, kind)`,
		}

	case "mysql":
		// MySQL has no CREATE INDEX IF NOT EXISTS; declare the index inline.
		return []string{
			`CREATE TABLE IF NOT EXISTS book_claims (
    book_id    VARCHAR(36) NOT NULL,
    user_id    VARCHAR(255) NOT NULL,
    kind       VARCHAR(16) NOT NULL,
    position   INT NOT NULL,
    created_at DATETIME(6) NOT NULL,
    PRIMARY KEY (book_id, user_id),
    INDEX idx_book_claims_user_kind (user_id, kind),
    CONSTRAINT fk_book_claims_book FOREIGN KEY (book_id) REFERENCES books (id) ON DELETE CASCADE
)`,
		}

	default: // sqlite3
		return []string{
			`CREATE TABLE IF NOT EXISTS book_claims (
    book_id    TEXT NOT NULL REFERENCES books (id) ON DELETE CASCADE,
    user_id    TEXT NOT NULL,
    kind       TEXT NOT NULL CHECK (kind IN ('owned', 'wanted')),
    position   INTEGER NOT NULL,
    created_at DATETIME NOT NULL,
    PRIMARY KEY (book_id, user_id)
)`,
			`CREATE INDEX IF NOT EXISTS idx_book_claims_user_kind ON book_claims (user_id, kind)`,
		}
	}
}
