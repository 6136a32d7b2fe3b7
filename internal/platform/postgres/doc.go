// Package postgres provides PostgreSQL implementations of the storage
// interfaces defined in the internal/store package. Connections go through
// the pgx database/sql driver so stores can share *sql.DB and *sql.Tx with
// store.RunInTransaction.
package postgres
