// Package migrations holds the goose migrations for the books schema. They
// are written in Go because column types and index syntax differ per driver.
package migrations

import (
	"context"
	"database/sql"
	"fmt"
)

// dialect is set by the parent db package before migrations are applied.
var dialect string

// SetDialect selects the goose dialect the migrations generate DDL for.
// Must be called before goose.Up. Valid values: "sqlite3", "postgres", "mysql".
func SetDialect(d string) {
	dialect = d
}

// execAll runs stmts in order inside tx, naming the failing table on error.
func execAll(ctx context.Context, tx *sql.Tx, table string, stmts ...string) error {
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate %s: %w", table, err)
		}
	}
	return nil
}

func dropTable(table string) func(context.Context, *sql.Tx) error {
	return func(ctx context.Context, tx *sql.Tx) error {
		return execAll(ctx, tx, table, "DROP TABLE IF EXISTS "+table)
	}
}
