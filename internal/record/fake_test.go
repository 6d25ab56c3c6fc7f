package record

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/rowgate/internal/querysql"
	"github.com/roach88/rowgate/internal/schema"
)

// fakeDriver records every statement it is given and answers reads from
// queued results.
type fakeDriver struct {
	columns map[string][]schema.Column

	statements []string
	affected   []int64
	singles    []map[string]any
	rows       [][]map[string]any
	scalars    []any

	inserts []map[string]any
	updates []map[string]any
	nextID  int64

	locks     int
	unlocks   int
	unlockErr error
	execErr   error
	scalarErr error
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		columns: map[string][]schema.Column{
			"content":  contentColumns(),
			"pairs":    pairColumns(),
			"articles": {{Name: "id"}, {Name: "title"}},
		},
		nextID: 100,
	}
}

func contentColumns() []schema.Column {
	return []schema.Column{
		{Name: "id", Type: "INTEGER"},
		{Name: "title", Type: "TEXT", Default: ""},
		{Name: "catid", Type: "INTEGER", Default: "0"},
		{Name: "ordering", Type: "INTEGER", Default: "0"},
		{Name: "checked_out", Type: "INTEGER", Default: "0"},
		{Name: "checked_out_time", Type: "TEXT", Default: "0000-00-00 00:00:00"},
		{Name: "hits", Type: "INTEGER", Default: "0"},
		{Name: "published", Type: "INTEGER", Default: "0"},
	}
}

func pairColumns() []schema.Column {
	return []schema.Column{
		{Name: "a", Type: "INTEGER"},
		{Name: "b", Type: "INTEGER"},
		{Name: "label", Type: "TEXT", Default: "none"},
	}
}

func (d *fakeDriver) ColumnsOf(_ context.Context, table string) ([]schema.Column, error) {
	return d.columns[table], nil
}

func (d *fakeDriver) QuoteName(name string) string { return querysql.SQLite.QuoteName(name) }

func (d *fakeDriver) NewQuery() *querysql.Builder { return querysql.New(querysql.SQLite) }

func (d *fakeDriver) record(q *querysql.Builder) error {
	sql, args, err := q.Build()
	if err != nil {
		return err
	}
	d.statements = append(d.statements, fmt.Sprintf("%s %v", sql, args))
	return nil
}

func (d *fakeDriver) Execute(_ context.Context, q *querysql.Builder) (int64, error) {
	if err := d.record(q); err != nil {
		return 0, err
	}
	if d.execErr != nil {
		return 0, d.execErr
	}
	if len(d.affected) == 0 {
		return 1, nil
	}
	n := d.affected[0]
	d.affected = d.affected[1:]
	return n, nil
}

func (d *fakeDriver) LoadSingleRow(_ context.Context, q *querysql.Builder) (map[string]any, error) {
	if err := d.record(q); err != nil {
		return nil, err
	}
	if len(d.singles) == 0 {
		return nil, nil
	}
	row := d.singles[0]
	d.singles = d.singles[1:]
	return row, nil
}

func (d *fakeDriver) LoadRows(_ context.Context, q *querysql.Builder) ([]map[string]any, error) {
	if err := d.record(q); err != nil {
		return nil, err
	}
	if len(d.rows) == 0 {
		return nil, nil
	}
	rows := d.rows[0]
	d.rows = d.rows[1:]
	return rows, nil
}

func (d *fakeDriver) LoadScalar(_ context.Context, q *querysql.Builder) (any, error) {
	if err := d.record(q); err != nil {
		return nil, err
	}
	if d.scalarErr != nil {
		return nil, d.scalarErr
	}
	if len(d.scalars) == 0 {
		return nil, nil
	}
	v := d.scalars[0]
	d.scalars = d.scalars[1:]
	return v, nil
}

func (d *fakeDriver) InsertRecord(_ context.Context, _ string, fields map[string]any, keys []string) error {
	if d.execErr != nil {
		return d.execErr
	}
	d.inserts = append(d.inserts, copyFields(fields))
	if len(keys) == 1 && schema.IsEmpty(fields[keys[0]]) {
		d.nextID++
		fields[keys[0]] = d.nextID
	}
	return nil
}

func (d *fakeDriver) UpdateRecord(_ context.Context, _ string, fields map[string]any, _ []string, _ bool) error {
	if d.execErr != nil {
		return d.execErr
	}
	d.updates = append(d.updates, copyFields(fields))
	return nil
}

func (d *fakeDriver) LockTable(context.Context, string) error {
	d.locks++
	return nil
}

func (d *fakeDriver) UnlockAll(context.Context) error {
	d.unlocks++
	return d.unlockErr
}

func (d *fakeDriver) NullDate() string { return "0000-00-00 00:00:00" }

func copyFields(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

var errBoom = errors.New("boom")

type fixedClock struct{}

func (fixedClock) Now() time.Time {
	return time.Date(2024, 3, 9, 14, 30, 0, 0, time.UTC)
}

func newTestRecord(t *testing.T, drv *fakeDriver, table string, keys []string, opts ...Option) *Record {
	t.Helper()
	opts = append([]Option{WithCache(schema.NewCache()), WithClock(fixedClock{})}, opts...)
	r, err := New(context.Background(), drv, table, keys, opts...)
	require.NoError(t, err)
	return r
}
