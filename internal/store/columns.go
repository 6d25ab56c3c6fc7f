package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/roach88/rowgate/internal/querysql"
	"github.com/roach88/rowgate/internal/schema"
)

// ColumnsOf returns the columns of table in declaration order. A table
// that does not exist has no columns.
func (s *Store) ColumnsOf(ctx context.Context, table string) ([]schema.Column, error) {
	switch s.dialect {
	case querysql.MySQL:
		return s.informationSchemaColumns(ctx, `
			SELECT COLUMN_NAME, COLUMN_TYPE, COLUMN_DEFAULT, IS_NULLABLE
			FROM INFORMATION_SCHEMA.COLUMNS
			WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?
			ORDER BY ORDINAL_POSITION
		`, table)
	case querysql.Postgres:
		return s.informationSchemaColumns(ctx, `
			SELECT column_name, data_type, column_default, is_nullable
			FROM information_schema.columns
			WHERE table_schema = current_schema() AND table_name = $1
			ORDER BY ordinal_position
		`, table)
	default:
		return s.sqliteColumns(ctx, table)
	}
}

func (s *Store) sqliteColumns(ctx context.Context, table string) ([]schema.Column, error) {
	rows, err := s.conn.QueryContext(ctx, "PRAGMA table_info("+s.QuoteName(table)+")")
	if err != nil {
		return nil, fmt.Errorf("query columns of %s: %w", table, err)
	}
	defer rows.Close()

	var cols []schema.Column
	for rows.Next() {
		var (
			cid, notNull, pk int
			name, typ        string
			dflt             sql.NullString
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		cols = append(cols, schema.Column{
			Name:     name,
			Type:     typ,
			Default:  normalizeDefault(s.dialect, dflt),
			Nullable: notNull == 0 && pk == 0,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns: %w", err)
	}
	return cols, nil
}

func (s *Store) informationSchemaColumns(ctx context.Context, query, table string) ([]schema.Column, error) {
	rows, err := s.conn.QueryContext(ctx, query, table)
	if err != nil {
		return nil, fmt.Errorf("query columns of %s: %w", table, err)
	}
	defer rows.Close()

	var cols []schema.Column
	for rows.Next() {
		var (
			name, typ, nullable string
			dflt                sql.NullString
		)
		if err := rows.Scan(&name, &typ, &dflt, &nullable); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		cols = append(cols, schema.Column{
			Name:     name,
			Type:     typ,
			Default:  normalizeDefault(s.dialect, dflt),
			Nullable: strings.EqualFold(nullable, "YES"),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns: %w", err)
	}
	return cols, nil
}

// normalizeDefault turns a catalogue default expression into the value a
// fresh record should hold. Sequence defaults become nil so inserts let the
// database generate the value.
func normalizeDefault(d querysql.Dialect, v sql.NullString) any {
	if !v.Valid {
		return nil
	}
	s := strings.TrimSpace(v.String)
	if strings.EqualFold(s, "NULL") {
		return nil
	}

	if d == querysql.Postgres {
		if strings.HasPrefix(strings.ToLower(s), "nextval(") {
			return nil
		}
		if i := strings.LastIndex(s, "::"); i > 0 && !strings.HasSuffix(s, "'") {
			s = s[:i]
		}
	}

	if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		s = strings.ReplaceAll(s[1:len(s)-1], "''", "'")
	}
	return s
}
