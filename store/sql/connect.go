package sqlstore

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

// OpenPostgres builds a bun handle over lib/pq for the given DSN.
func OpenPostgres(dsn string) (*bun.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("sqlstore: postgres dsn is required")
	}
	sqldb, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open postgres: %w", err)
	}
	return bun.NewDB(sqldb, pgdialect.New()), nil
}

// OpenSQLite builds a bun handle over mattn/go-sqlite3. Shared-cache
// in-memory DSNs need a single open connection to observe the same
// database across sessions.
func OpenSQLite(dsn string) (*bun.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("sqlstore: sqlite dsn is required")
	}
	sqldb, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open sqlite: %w", err)
	}
	if strings.Contains(dsn, "mode=memory") || strings.Contains(dsn, ":memory:") {
		sqldb.SetMaxOpenConns(1)
	}
	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}
