package main

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/phrazzld/cardsmith/internal/config"
	"github.com/phrazzld/cardsmith/internal/platform/migrations"
	"github.com/phrazzld/cardsmith/internal/platform/postgres"
	"github.com/phrazzld/cardsmith/internal/platform/sqlite"
	"github.com/phrazzld/cardsmith/internal/store"
)

// stores groups the store implementations for one database backend.
type stores struct {
	flashcards   store.FlashcardStore
	payments     store.PaymentStore
	entitlements store.EntitlementStore
}

// openDatabase opens the configured backend. In-memory SQLite databases are
// migrated on open because they start empty.
func openDatabase(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*sql.DB, error) {
	var (
		db  *sql.DB
		err error
	)
	switch cfg.Driver {
	case "postgres":
		db, err = postgres.Open(ctx, cfg)
	case "sqlite":
		db, err = sqlite.Open(ctx, cfg)
		if err == nil && strings.Contains(cfg.URL, ":memory:") {
			err = sqlite.Migrate(ctx, db, logger)
		}
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	logger.Info("Database connection established", "driver", cfg.Driver)
	return db, nil
}

// newStores returns the stores for driver backed by db.
func newStores(driver string, db *sql.DB, logger *slog.Logger) (stores, error) {
	switch driver {
	case "postgres":
		return stores{
			flashcards:   postgres.NewPostgresFlashcardStore(db, logger),
			payments:     postgres.NewPostgresPaymentStore(db, logger),
			entitlements: postgres.NewPostgresEntitlementStore(db, logger),
		}, nil
	case "sqlite":
		return stores{
			flashcards:   sqlite.NewFlashcardStore(db, logger),
			payments:     sqlite.NewPaymentStore(db, logger),
			entitlements: sqlite.NewEntitlementStore(db, logger),
		}, nil
	default:
		return stores{}, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// newMigrator returns a migrator over the schema for driver.
func newMigrator(driver string, db *sql.DB, logger *slog.Logger) (*migrations.Migrator, error) {
	var (
		dialect string
		fsys    fs.FS
	)
	switch driver {
	case "postgres":
		dialect, fsys = migrations.DialectPostgres, postgres.Migrations()
	case "sqlite":
		dialect, fsys = migrations.DialectSQLite, sqlite.Migrations()
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	return migrations.New(db, dialect, fsys, logger), nil
}
