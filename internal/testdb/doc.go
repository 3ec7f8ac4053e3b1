//go:build integration

// Package testdb provides utilities for database integration tests.
//
// Tests run against the database named by DATABASE_URL and are skipped when
// it is unset. The schema is migrated once per test binary, and each test
// runs in its own transaction that is rolled back when the test completes,
// so tests can run in parallel without cleaning up after themselves.
//
//	func TestMyFeature(t *testing.T) {
//	    t.Parallel()
//	    db := testdb.GetTestDBWithT(t)
//
//	    testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
//	        jobs := postgres.NewPostgresJobStore(tx, nil)
//	        // ...
//	    })
//	}
package testdb
