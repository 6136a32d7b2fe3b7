//go:build integration

// Package testdb provides helpers for tests that run against a real
// PostgreSQL database.
//
// Each test runs in its own transaction, which is rolled back when the test
// completes, so tests can run in parallel without cleaning up after
// themselves:
//
//	func TestSomething(t *testing.T) {
//	    t.Parallel()
//	    db := testdb.GetTestDBWithT(t)
//
//	    testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
//	        s := postgres.NewPostgresFlashcardStore(tx, nil)
//	        // ...
//	    })
//	}
//
// Tests are skipped when neither DATABASE_URL nor CARDSMITH_TEST_DB_URL is set.
package testdb
