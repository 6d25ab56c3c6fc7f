package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/rowgate/internal/querysql"
)

// Execute runs a write statement and returns the number of affected rows.
func (s *Store) Execute(ctx context.Context, q *querysql.Builder) (int64, error) {
	query, args, err := q.Build()
	if err != nil {
		return 0, err
	}
	s.logger.Debug("exec", "sql", query, "args", args)

	res, err := s.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("exec: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// LoadRows returns every row of a SELECT as column-name maps.
func (s *Store) LoadRows(ctx context.Context, q *querysql.Builder) ([]map[string]any, error) {
	return s.query(ctx, q, 0)
}

// LoadSingleRow returns the first row of a SELECT, or nil.
func (s *Store) LoadSingleRow(ctx context.Context, q *querysql.Builder) (map[string]any, error) {
	rows, err := s.query(ctx, q, 1)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

// LoadScalar returns the first column of the first row, or nil.
func (s *Store) LoadScalar(ctx context.Context, q *querysql.Builder) (any, error) {
	query, args, err := q.Build()
	if err != nil {
		return nil, err
	}
	s.logger.Debug("query", "sql", query, "args", args)

	var v any
	err = s.conn.QueryRowContext(ctx, query, args...).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query scalar: %w", err)
	}
	return normalizeValue(v), nil
}

// query reads at most limit rows; zero means all.
func (s *Store) query(ctx context.Context, q *querysql.Builder, limit int) ([]map[string]any, error) {
	query, args, err := q.Build()
	if err != nil {
		return nil, err
	}
	s.logger.Debug("query", "sql", query, "args", args)

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}

	var out []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		row := make(map[string]any, len(cols))
		for i, name := range cols {
			row[name] = normalizeValue(values[i])
		}
		out = append(out, row)

		if limit > 0 && len(out) == limit {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// normalizeValue converts driver-specific scan results to the plain values
// records work with.
func normalizeValue(v any) any {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case time.Time:
		return x.UTC().Format("2006-01-02 15:04:05")
	default:
		return v
	}
}
