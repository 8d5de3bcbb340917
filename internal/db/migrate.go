package db

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"

	"github.com/joestump/bookswap/internal/db/migrations"
)

//go:embed migrations
var migrationFiles embed.FS

// goose keeps its dialect and base FS in package globals.
var gooseMu sync.Mutex

// Migrate applies every pending migration. The server calls it before it
// starts accepting requests.
func Migrate(ctx context.Context, conn *sqlx.DB, driver string) error {
	d, err := lookup(driver)
	if err != nil {
		return err
	}

	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("migrations fs: %w", err)
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := goose.SetDialect(d.goose); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	migrations.SetDialect(d.goose)

	goose.SetBaseFS(sub)
	defer goose.SetBaseFS(nil)

	if err := goose.UpContext(ctx, conn.DB, "."); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Version reports the schema version currently applied to conn.
func Version(ctx context.Context, conn *sqlx.DB, driver string) (int64, error) {
	d, err := lookup(driver)
	if err != nil {
		return 0, err
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := goose.SetDialect(d.goose); err != nil {
		return 0, fmt.Errorf("set goose dialect: %w", err)
	}
	v, err := goose.GetDBVersionContext(ctx, conn.DB)
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return v, nil
}
