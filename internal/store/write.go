package store

import (
	"context"
	"fmt"
	"sort"

	"github.com/roach88/rowgate/internal/queryir"
	"github.com/roach88/rowgate/internal/querysql"
	"github.com/roach88/rowgate/internal/schema"
)

// InsertRecord inserts the non-nil fields of a record. For a single key
// column whose value is empty, the key is left to the database and the
// generated value is written back into fields.
func (s *Store) InsertRecord(ctx context.Context, table string, fields map[string]any, keys []string) error {
	var generated string
	if len(keys) == 1 && schema.IsEmpty(fields[keys[0]]) {
		generated = keys[0]
	}

	q := s.NewQuery().Insert(table)
	for _, name := range sortedNames(fields) {
		v := fields[name]
		if v == nil || name == generated {
			continue
		}
		q.Set(name, v)
	}

	if generated == "" {
		_, err := s.Execute(ctx, q)
		return err
	}

	if s.dialect == querysql.Postgres {
		id, err := s.LoadScalar(ctx, q.Returning(generated))
		if err != nil {
			return fmt.Errorf("insert %s: %w", table, err)
		}
		fields[generated] = id
		return nil
	}

	query, args, err := q.Build()
	if err != nil {
		return err
	}
	s.logger.Debug("exec", "sql", query, "args", args)

	res, err := s.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("insert %s: %w", table, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert %s: last insert id: %w", table, err)
	}
	fields[generated] = id
	return nil
}

// UpdateRecord updates the non-key fields of the row whose key columns
// match fields. Nil fields are skipped unless updateNulls is set. A record
// with nothing to update is not an error.
func (s *Store) UpdateRecord(ctx context.Context, table string, fields map[string]any, keys []string, updateNulls bool) error {
	isKey := make(map[string]bool, len(keys))
	where := make([]queryir.Predicate, 0, len(keys))
	for _, k := range keys {
		isKey[k] = true
		where = append(where, queryir.Eq(k, fields[k]))
	}

	q := s.NewQuery().Update(table)
	var sets int
	for _, name := range sortedNames(fields) {
		v := fields[name]
		if isKey[name] || (v == nil && !updateNulls) {
			continue
		}
		q.Set(name, v)
		sets++
	}
	if sets == 0 {
		return nil
	}

	_, err := s.Execute(ctx, q.Where(queryir.AllOf(where...)))
	return err
}

func sortedNames(fields map[string]any) []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
