package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/phrazzld/cardsmith/internal/store"
	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// MapError maps a database error to the matching store error, keeping the
// original error in the message.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	}

	var sqliteErr *moderncsqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return fmt.Errorf("%w: foreign key violation: %v", store.ErrInvalidEntity, err)
		case sqlite3.SQLITE_CONSTRAINT_CHECK:
			return fmt.Errorf("%w: check constraint violation: %v", store.ErrInvalidEntity, err)
		case sqlite3.SQLITE_CONSTRAINT_NOTNULL:
			return fmt.Errorf("%w: not null violation: %v", store.ErrInvalidEntity, err)
		}
	}

	return err
}

// checkRowsAffected returns notFound when an UPDATE matched no rows.
func checkRowsAffected(result sql.Result, notFound error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
