package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

// Open connects to the database named by url and ensures the schema exists.
// postgres:// URLs use the pgx driver; anything else is treated as a SQLite
// DSN (the default deployment is a single local file).
func Open(ctx context.Context, url string) (*sql.DB, error) {
	driver, dsn := resolveDriver(url)

	database, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := database.PingContext(ctx); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := ensureSchema(ctx, database, driver); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return database, nil
}

func resolveDriver(url string) (driver, dsn string) {
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return "pgx", url
	case strings.HasPrefix(url, "sqlite://"):
		return "sqlite", strings.TrimPrefix(url, "sqlite://")
	default:
		return "sqlite", url
	}
}

// ensureSchema is idempotent. created_at is stored as unix milliseconds to
// stay portable across drivers.
func ensureSchema(ctx context.Context, database *sql.DB, driver string) error {
	schema := schemaSQLite
	if driver == "pgx" {
		schema = schemaPostgres
	}
	_, err := database.ExecContext(ctx, schema)
	return err
}

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS blobs_metadata (
  id TEXT PRIMARY KEY,
  size BIGINT NOT NULL,
  created_at BIGINT NOT NULL,
  storage_type TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS blobs_data (
  id TEXT PRIMARY KEY,
  data BLOB NOT NULL
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS blobs_metadata (
  id TEXT PRIMARY KEY,
  size BIGINT NOT NULL,
  created_at BIGINT NOT NULL,
  storage_type TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS blobs_data (
  id TEXT PRIMARY KEY,
  data BYTEA NOT NULL
);
`
