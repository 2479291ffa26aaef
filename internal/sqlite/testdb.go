package sqlite

import "testing"

// NewTestDB creates a fresh in-memory SQLite database with the schema
// applied. The pool is pinned to one connection: every :memory: connection
// is its own database.
func NewTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.EnsureSchema(); err != nil {
		db.Close()
		t.Fatalf("creating test database schema: %v", err)
	}

	t.Cleanup(func() { db.Close() })

	return db
}
