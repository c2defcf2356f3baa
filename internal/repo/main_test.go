package repo_test

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/pkordes/fitroute/migrations"
	"github.com/pkordes/fitroute/testutil"
)

// TestMain applies all pending migrations once before the integration tests
// in this package run. The pgxmock tests need no database, so when
// TEST_DATABASE_URL is unset the suite still runs and the integration tests
// skip themselves through testutil.NewPool.
func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		os.Exit(m.Run())
	}

	db := testutil.MustOpenSQLDB(dsn)

	if _, err := migrations.Up(context.Background(), db); err != nil {
		log.Fatalf("TestMain: run migrations: %v", err)
	}
	db.Close()

	os.Exit(m.Run())
}
