// Package migrations applies the embedded goose migrations of a storage
// backend.
package migrations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"
	"time"

	"github.com/pressly/goose/v3"
)

// TableName is the table goose uses to track applied migrations.
const TableName = "schema_migrations"

// Goose dialect names for the supported backends.
const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite3"
)

// Commands accepted by Run.
const (
	CommandUp      = "up"
	CommandDown    = "down"
	CommandStatus  = "status"
	CommandVersion = "version"
)

// ErrUnknownCommand is returned by Run for an unsupported command.
var ErrUnknownCommand = errors.New("unknown migration command")

// goose keeps its dialect, base FS and logger in package globals.
var gooseMu sync.Mutex

// Migrator runs the migrations found at the root of fsys against db.
type Migrator struct {
	db      *sql.DB
	dialect string
	fsys    fs.FS
	logger  *slog.Logger
}

// New creates a Migrator. fsys must contain the .sql files at its root.
func New(db *sql.DB, dialect string, fsys fs.FS, logger *slog.Logger) *Migrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Migrator{
		db:      db,
		dialect: dialect,
		fsys:    fsys,
		logger:  logger.With("component", "migrations", "dialect", dialect),
	}
}

// Up applies all pending migrations.
func (m *Migrator) Up(ctx context.Context) error {
	return m.with(func() error {
		return goose.UpContext(ctx, m.db, ".")
	})
}

// Down rolls back the most recent migration.
func (m *Migrator) Down(ctx context.Context) error {
	return m.with(func() error {
		return goose.DownContext(ctx, m.db, ".")
	})
}

// Status logs the applied state of every migration.
func (m *Migrator) Status(ctx context.Context) error {
	return m.with(func() error {
		return goose.StatusContext(ctx, m.db, ".")
	})
}

// Version returns the current schema version.
func (m *Migrator) Version(ctx context.Context) (int64, error) {
	var version int64
	err := m.with(func() error {
		v, err := goose.GetDBVersionContext(ctx, m.db)
		version = v
		return err
	})
	return version, err
}

// Run executes one of the Command* constants.
func (m *Migrator) Run(ctx context.Context, command string) error {
	start := time.Now()
	m.logger.InfoContext(ctx, "starting migration operation", "command", command)

	var err error
	switch command {
	case CommandUp:
		err = m.Up(ctx)
	case CommandDown:
		err = m.Down(ctx)
	case CommandStatus:
		err = m.Status(ctx)
	case CommandVersion:
		var v int64
		v, err = m.Version(ctx)
		if err == nil {
			m.logger.InfoContext(ctx, "current schema version", "version", v)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, command)
	}

	m.logger.InfoContext(ctx, "migration operation completed",
		"command", command,
		"duration_ms", time.Since(start).Milliseconds(),
		"success", err == nil)
	if err != nil {
		return fmt.Errorf("migration %s failed: %w", command, err)
	}
	return nil
}

// with configures the goose globals for this migrator and runs fn.
func (m *Migrator) with(fn func() error) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(m.fsys)
	goose.SetTableName(TableName)
	goose.SetLogger(&slogGooseLogger{logger: m.logger})
	if err := goose.SetDialect(m.dialect); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	return fn()
}

// slogGooseLogger adapts the goose logger interface to slog.
type slogGooseLogger struct {
	logger *slog.Logger
}

func (l *slogGooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, v...))
}

// Fatalf logs at error level. It does not exit; goose also returns the error.
func (l *slogGooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, v...))
}
