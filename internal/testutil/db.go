package testutil

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/joestump/bookswap/internal/db"
	_ "modernc.org/sqlite"
)

// NewTestDB opens an in-memory SQLite DB and runs all goose migrations.
func NewTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	// Use a file URI with shared cache so all pool connections share the
	// same in-memory database. Each test gets a unique name to avoid
	// cross-test interference.
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	conn, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open in-memory sqlite: %v", err)
	}
	// Shared-cache tables lock per connection rather than waiting on
	// busy_timeout, so concurrent ledger writes (RemoveAll) would fail with
	// SQLITE_LOCKED. One connection serializes them instead.
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = conn.Close() })

	if err := db.Migrate(context.Background(), conn, "sqlite3"); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	return conn
}
