package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/rowgate/internal/store"
)

// ContentDDL creates a table with every optional record capability:
// ordering, checkout, hits and published.
const ContentDDL = `
CREATE TABLE content (
    id               INTEGER PRIMARY KEY AUTOINCREMENT,
    title            TEXT NOT NULL DEFAULT '',
    catid            INTEGER NOT NULL DEFAULT 0,
    ordering         INTEGER NOT NULL DEFAULT 0,
    checked_out      INTEGER NOT NULL DEFAULT 0,
    checked_out_time TEXT NOT NULL DEFAULT '0000-00-00 00:00:00',
    hits             INTEGER NOT NULL DEFAULT 0,
    published        INTEGER NOT NULL DEFAULT 0
)`

// SessionsDDL creates the table session.SQLProbe reads by default.
const SessionsDDL = `
CREATE TABLE sessions (
    session_id TEXT PRIMARY KEY,
    userid     INTEGER NOT NULL DEFAULT 0
)`

// OpenSQLite opens a SQLite store in a test temp dir and runs ddl on it.
// The store is closed when the test ends. It returns the database path so
// tests can open a second store on the same file.
func OpenSQLite(t *testing.T, ddl ...string) (*store.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rowgate.db")

	s, err := store.Open(context.Background(), "sqlite", path)
	if err != nil {
		t.Fatalf("store.Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	for _, stmt := range ddl {
		if err := s.ExecRaw(context.Background(), stmt); err != nil {
			t.Fatalf("ExecRaw() failed: %v", err)
		}
	}
	return s, path
}
