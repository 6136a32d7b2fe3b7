// Package sqlite implements the store interfaces on SQLite using the pure Go
// modernc.org/sqlite driver. It backs single-node deployments and the store
// tests, which run against an in-memory database.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/phrazzld/cardsmith/internal/config"
	"github.com/phrazzld/cardsmith/internal/platform/migrations"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// DriverName is the database/sql driver registered by modernc.org/sqlite.
const DriverName = "sqlite"

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migrations returns the SQLite schema migrations.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrationFS, "migrations")
	if err != nil {
		// ALLOW-PANIC: the embedded directory is fixed at build time
		panic(err)
	}
	return sub
}

// Open opens the database at cfg.URL with foreign keys enforced and a busy
// timeout, and verifies the connection.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	dsn := withPragmas(cfg.URL)
	db, err := sql.Open(DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Every connection to :memory: is a separate database, so the single
	// connection must never be recycled.
	if isMemory(cfg.URL) {
		db.SetMaxOpenConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxIdleConns)
		db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}
	return db, nil
}

// Migrate applies all pending migrations.
func Migrate(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	return migrations.New(db, migrations.DialectSQLite, Migrations(), logger).Up(ctx)
}

func isMemory(url string) bool {
	return strings.Contains(url, ":memory:") || strings.Contains(url, "mode=memory")
}

func withPragmas(url string) string {
	if strings.Contains(url, "_pragma=") {
		return url
	}
	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	return url + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}
