package sqlite_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/phrazzld/cardsmith/internal/config"
	"github.com/phrazzld/cardsmith/internal/platform/logger"
	"github.com/phrazzld/cardsmith/internal/platform/sqlite"
	"github.com/phrazzld/cardsmith/internal/store"
	"github.com/stretchr/testify/require"
)

// newTestDB returns a migrated in-memory database.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.Open(ctx, config.DatabaseConfig{
		Driver:                 "sqlite",
		URL:                    ":memory:",
		MaxOpenConns:           1,
		ConnMaxLifetimeMinutes: 5,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	log, _ := logger.NewTestLogger()
	require.NoError(t, sqlite.Migrate(ctx, db, log))
	return db
}

// failingExecDB fails the nth ExecContext call and passes everything else
// through to the wrapped database.
type failingExecDB struct {
	store.DBTX
	failOn int
	calls  int
}

var errInjected = errors.New("injected write failure")

func (f *failingExecDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	f.calls++
	if f.calls == f.failOn {
		return nil, errInjected
	}
	return f.DBTX.ExecContext(ctx, query, args...)
}
