package db

import (
	"database/sql"
	"path/filepath"
	"testing"
)

// NewTestDB opens an in-memory database with the izposoja schema applied.
// It is closed when the test ends.
func NewTestDB(tb testing.TB) *sql.DB {
	tb.Helper()
	return openTestDB(tb, ":memory:")
}

// NewTestFileDB is NewTestDB backed by a file in the test's temp directory,
// for tests that need WAL mode or reopen the database by path.
func NewTestFileDB(tb testing.TB) (*sql.DB, string) {
	tb.Helper()
	path := filepath.Join(tb.TempDir(), "izposoja.sqlite3")
	return openTestDB(tb, path), path
}

func openTestDB(tb testing.TB, path string) *sql.DB {
	tb.Helper()

	database, err := Open(path)
	if err != nil {
		tb.Fatalf("opening test database %s: %v", path, err)
	}
	tb.Cleanup(func() { database.Close() })

	if err := EnsureSchema(database); err != nil {
		tb.Fatalf("applying izposoja schema: %v", err)
	}
	return database
}
