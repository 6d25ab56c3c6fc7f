// Package store implements record.Driver on database/sql for SQLite, MySQL
// and PostgreSQL.
//
// A Store pins a single connection from the pool for its lifetime. Table
// locks and connection-scoped session state (MySQL LOCK TABLES, PostgreSQL
// advisory locks) only make sense on one connection, and SQLite allows a
// single writer anyway.
//
// # Dialects
//
//   - sqlite:   mattn/go-sqlite3, PRAGMA table_info, lock rows in rowgate_locks
//   - mysql:    go-sql-driver/mysql, INFORMATION_SCHEMA, LOCK TABLES ... WRITE
//   - postgres: jackc/pgx/v5 stdlib, information_schema, pg_advisory_lock,
//     RETURNING for generated keys
//
// # SQLite Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Values read back are normalized: []byte becomes string, everything else
// is returned as the driver scanned it.
package store
