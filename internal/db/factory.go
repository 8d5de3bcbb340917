// Package db opens the catalog database and keeps its schema current.
package db

import (
	"context"
	"fmt"
	"sort"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// dialect describes how one configured driver name is opened and migrated.
type dialect struct {
	sqlDriver string   // name registered with database/sql
	goose     string   // goose dialect
	dsnParams []string // appended to the DSN so every pooled connection gets them
	pragmas   []string // statements run once after opening
}

var dialects = map[string]dialect{
	// modernc/sqlite registers itself as "sqlite" (CGO-free).
	"sqlite3": {
		sqlDriver: "sqlite",
		goose:     "sqlite3",
		dsnParams: []string{
			"_pragma=busy_timeout(5000)",
			"_pragma=foreign_keys(1)",
		},
		pragmas: []string{"PRAGMA journal_mode=WAL"},
	},
	// MySQL DSNs must carry parseTime=true so timestamps scan into time.Time.
	"mysql":    {sqlDriver: "mysql", goose: "mysql"},
	"postgres": {sqlDriver: "postgres", goose: "postgres"},
	// sqlx maps "pgx" to $N bind vars, same as "postgres".
	"pgx": {sqlDriver: "pgx", goose: "postgres"},
}

// Drivers lists the accepted values for db.driver.
func Drivers() []string {
	names := make([]string, 0, len(dialects))
	for name := range dialects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func lookup(driver string) (dialect, error) {
	d, ok := dialects[driver]
	if !ok {
		return dialect{}, fmt.Errorf("unsupported DB driver %q: must be one of %s", driver, strings.Join(Drivers(), ", "))
	}
	return d, nil
}

// New opens a connection pool for driver and verifies it with a ping.
func New(ctx context.Context, driver, dsn string) (*sqlx.DB, error) {
	d, err := lookup(driver)
	if err != nil {
		return nil, err
	}

	conn, err := sqlx.Open(d.sqlDriver, withParams(dsn, d.dsnParams))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	for _, stmt := range d.pragmas {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("%s: %w", stmt, err)
		}
	}
	return conn, nil
}

func withParams(dsn string, params []string) string {
	if len(params) == 0 {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&")
}
