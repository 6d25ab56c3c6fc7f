package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/rowgate/internal/querysql"
)

// ErrTableLocked is returned by LockTable on SQLite when another store
// holds the lock.
var ErrTableLocked = errors.New("table locked by another owner")

// LockTable takes an exclusive lock on table for this store.
//
// MySQL and PostgreSQL block until the lock is granted. SQLite records the
// lock in rowgate_locks and fails with ErrTableLocked when another store
// owns it; relocking a table the store already holds succeeds.
func (s *Store) LockTable(ctx context.Context, table string) error {
	switch s.dialect {
	case querysql.MySQL:
		return s.ExecRaw(ctx, "LOCK TABLES "+s.QuoteName(table)+" WRITE")
	case querysql.Postgres:
		return s.ExecRaw(ctx, "SELECT pg_advisory_lock(hashtext($1))", table)
	}

	now := time.Now().UTC().Format("2006-01-02 15:04:05")
	if err := s.ExecRaw(ctx,
		"INSERT INTO rowgate_locks (table_name, owner, acquired_at) VALUES (?, ?, ?) ON CONFLICT(table_name) DO NOTHING",
		table, s.owner, now,
	); err != nil {
		return fmt.Errorf("lock %s: %w", table, err)
	}

	var owner string
	if err := s.conn.QueryRowContext(ctx,
		"SELECT owner FROM rowgate_locks WHERE table_name = ?", table,
	).Scan(&owner); err != nil {
		return fmt.Errorf("lock %s: %w", table, err)
	}
	if owner != s.owner {
		return fmt.Errorf("lock %s: %w", table, ErrTableLocked)
	}
	return nil
}

// UnlockAll releases every table lock held by this store.
func (s *Store) UnlockAll(ctx context.Context) error {
	switch s.dialect {
	case querysql.MySQL:
		return s.ExecRaw(ctx, "UNLOCK TABLES")
	case querysql.Postgres:
		return s.ExecRaw(ctx, "SELECT pg_advisory_unlock_all()")
	}
	return s.ExecRaw(ctx, "DELETE FROM rowgate_locks WHERE owner = ?", s.owner)
}
