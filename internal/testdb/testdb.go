//go:build integration

package testdb

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/cardsmith/internal/config"
	"github.com/phrazzld/cardsmith/internal/platform/logger"
	"github.com/phrazzld/cardsmith/internal/platform/postgres"
	"github.com/phrazzld/cardsmith/internal/redact"
	"github.com/stretchr/testify/require"
)

// Environment variables checked for the test database, in order.
const (
	EnvDatabaseURL     = "DATABASE_URL"
	EnvCardsmithTestDB = "CARDSMITH_TEST_DB_URL"
)

// TestTimeout bounds connection setup and migrations.
const TestTimeout = 30 * time.Second

var migrateOnce sync.Once

// GetTestDatabaseURL returns the first non-empty test database URL.
func GetTestDatabaseURL() string {
	for _, env := range []string{EnvCardsmithTestDB, EnvDatabaseURL} {
		if v := os.Getenv(env); v != "" {
			return v
		}
	}
	return ""
}

// ShouldSkipDatabaseTest reports whether no test database is configured.
func ShouldSkipDatabaseTest() bool {
	return GetTestDatabaseURL() == ""
}

// GetTestDBWithT opens a migrated database for t and closes it on cleanup.
// The test is skipped when no database is configured.
func GetTestDBWithT(t *testing.T) *sql.DB {
	t.Helper()

	dbURL := GetTestDatabaseURL()
	if dbURL == "" {
		t.Skip(EnvDatabaseURL + " or " + EnvCardsmithTestDB + " not set - skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()

	db, err := postgres.Open(ctx, config.DatabaseConfig{
		Driver:                 "postgres",
		URL:                    dbURL,
		MaxOpenConns:           10,
		MaxIdleConns:           5,
		ConnMaxLifetimeMinutes: 5,
	})
	require.NoError(t, err, "database connection failed: %s", redact.String(dbURL))

	var migrateErr error
	migrateOnce.Do(func() {
		log, _ := logger.NewTestLogger()
		migrateErr = postgres.Migrate(ctx, db, log)
	})
	require.NoError(t, migrateErr, "applying migrations")

	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("Warning: failed to close database connection: %v", err)
		}
	})
	return db
}

// WithTx runs fn in a transaction that is always rolled back.
func WithTx(t *testing.T, db *sql.DB, fn func(t *testing.T, tx *sql.Tx)) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err, "failed to begin transaction")

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback()
			// ALLOW-PANIC
			panic(r)
		}
		// sql.ErrTxDone is expected if fn already finished the transaction
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			t.Logf("Warning: failed to rollback transaction: %v", err)
		}
	}()

	fn(t, tx)
}
