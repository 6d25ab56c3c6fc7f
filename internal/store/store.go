package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/rowgate/internal/querysql"
	"github.com/roach88/rowgate/internal/record"
)

//go:embed schema.sql
var schemaSQL string

var _ record.Driver = (*Store)(nil)

// Store executes record statements on one pinned connection.
type Store struct {
	db      *sql.DB
	conn    *sql.Conn
	dialect querysql.Dialect
	owner   string
	logger  *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger for statement tracing. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// Open connects to the database named by driver ("sqlite", "mysql",
// "postgres" or an alias accepted by querysql.ParseDialect) and dsn.
//
// For SQLite, dsn is a file path; pragmas and the lock table are applied
// on open. This is idempotent.
func Open(ctx context.Context, driver, dsn string, opts ...Option) (*Store, error) {
	dialect, err := querysql.ParseDialect(driver)
	if err != nil {
		return nil, err
	}

	owner, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate lock owner: %w", err)
	}

	s := &Store{
		dialect: dialect,
		owner:   owner.String(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.db, err = openDB(dialect, dsn)
	if err != nil {
		return nil, err
	}

	if err := s.db.PingContext(ctx); err != nil {
		s.db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Keep one connection ready; everything runs on the pinned conn.
	s.db.SetMaxIdleConns(1)
	if dialect == querysql.SQLite {
		s.db.SetMaxOpenConns(1)
	}

	s.conn, err = s.db.Conn(ctx)
	if err != nil {
		s.db.Close()
		return nil, fmt.Errorf("failed to pin connection: %w", err)
	}

	if dialect == querysql.SQLite {
		if err := s.applyPragmas(ctx); err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to apply pragmas: %w", err)
		}
		if err := s.applySchema(ctx); err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	s.logger.Debug("store opened", "dialect", dialect.String(), "owner", s.owner)
	return s, nil
}

func openDB(dialect querysql.Dialect, dsn string) (*sql.DB, error) {
	switch dialect {
	case querysql.MySQL:
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return nil, fmt.Errorf("parse mysql dsn: %w", err)
		}
		connector, err := mysql.NewConnector(cfg)
		if err != nil {
			return nil, fmt.Errorf("mysql connector: %w", err)
		}
		return sql.OpenDB(connector), nil

	case querysql.Postgres:
		cfg, err := pgx.ParseConfig(dsn)
		if err != nil {
			return nil, fmt.Errorf("parse postgres dsn: %w", err)
		}
		return stdlib.OpenDB(*cfg), nil

	default:
		db, err := sql.Open("sqlite3", dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		return db, nil
	}
}

// Close releases the pinned connection and the pool.
func (s *Store) Close() error {
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Dialect returns the SQL dialect of the connection.
func (s *Store) Dialect() querysql.Dialect {
	return s.dialect
}

// Owner returns the token identifying this store's SQLite table locks.
func (s *Store) Owner() string {
	return s.owner
}

// QuoteName quotes an identifier for the store's dialect.
func (s *Store) QuoteName(name string) string {
	return s.dialect.QuoteName(name)
}

// NewQuery returns an empty builder for the store's dialect.
func (s *Store) NewQuery() *querysql.Builder {
	return querysql.New(s.dialect)
}

// NullDate is the checked_out_time value of an unlocked row.
func (s *Store) NullDate() string {
	if s.dialect == querysql.Postgres {
		return "1970-01-01 00:00:00"
	}
	return "0000-00-00 00:00:00"
}

// ExecRaw runs a statement that the builder cannot express, such as DDL.
func (s *Store) ExecRaw(ctx context.Context, query string, args ...any) error {
	if _, err := s.conn.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("exec: %w", err)
	}
	return nil
}

// applyPragmas sets required SQLite configuration.
func (s *Store) applyPragmas(ctx context.Context) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := s.conn.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates the lock table. The application owns user_version,
// so rowgate does not track a schema version of its own.
func (s *Store) applySchema(ctx context.Context) error {
	if _, err := s.conn.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(ctx context.Context, name, expected string) error {
	var value string
	if err := s.conn.QueryRowContext(ctx, "PRAGMA "+name).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
