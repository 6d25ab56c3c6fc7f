package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rowgate/internal/queryir"
	"github.com/roach88/rowgate/internal/querysql"
	"github.com/roach88/rowgate/internal/schema"
)

const contentDDL = `
CREATE TABLE content (
    id               INTEGER PRIMARY KEY AUTOINCREMENT,
    title            TEXT NOT NULL DEFAULT '',
    catid            INTEGER NOT NULL DEFAULT 0,
    ordering         INTEGER NOT NULL DEFAULT 0,
    checked_out      INTEGER NOT NULL DEFAULT 0,
    checked_out_time TEXT NOT NULL DEFAULT '0000-00-00 00:00:00',
    hits             INTEGER NOT NULL DEFAULT 0,
    published        INTEGER NOT NULL DEFAULT 0,
    note             TEXT
)`

// createTestStore opens a SQLite store in a temp dir with the content table.
func createTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(context.Background(), "sqlite", path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	require.NoError(t, s.ExecRaw(context.Background(), contentDDL))
	return s, path
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(context.Background(), "sqlite3", path)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err)
	assert.Equal(t, querysql.SQLite, s.Dialect())
	assert.NotEmpty(t, s.Owner())
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(context.Background(), "sqlite", path)
		require.NoError(t, err, "iteration %d", i)
		require.NoError(t, s.Close())
	}

	s, err := Open(context.Background(), "sqlite", path)
	require.NoError(t, err)
	defer s.Close()

	var name string
	err = s.conn.QueryRowContext(context.Background(),
		"SELECT name FROM sqlite_master WHERE type='table' AND name=?", "rowgate_locks",
	).Scan(&name)
	assert.NoError(t, err)
}

func TestOpen_Pragmas(t *testing.T) {
	s, _ := createTestStore(t)
	ctx := context.Background()

	assert.NoError(t, s.verifyPragma(ctx, "journal_mode", "wal"))
	assert.NoError(t, s.verifyPragma(ctx, "synchronous", "1"))
	assert.NoError(t, s.verifyPragma(ctx, "busy_timeout", "5000"))
	assert.NoError(t, s.verifyPragma(ctx, "foreign_keys", "1"))
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "oracle", "x")
	assert.Error(t, err)
}

func TestOpen_BadDSN(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "not a dsn")
	assert.Error(t, err)

	_, err = Open(context.Background(), "postgres", "postgres://user@host:notaport/db")
	assert.Error(t, err)
}

func TestClose_Twice(t *testing.T) {
	s, _ := createTestStore(t)
	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}

func TestColumnsOf(t *testing.T) {
	s, _ := createTestStore(t)

	cols, err := s.ColumnsOf(context.Background(), "content")
	require.NoError(t, err)
	require.Len(t, cols, 9)

	assert.Equal(t, schema.Column{Name: "id", Type: "INTEGER"}, cols[0])
	assert.Equal(t, schema.Column{Name: "title", Type: "TEXT", Default: ""}, cols[1])
	assert.Equal(t, "0", cols[2].Default)
	assert.Equal(t, "0000-00-00 00:00:00", cols[5].Default)
	assert.Equal(t, schema.Column{Name: "note", Type: "TEXT", Nullable: true}, cols[8])

	desc, err := schema.NewTableDescriptor("content", nil, cols)
	require.NoError(t, err)
	assert.True(t, desc.HasOrdering)
	assert.True(t, desc.HasCheckout)
	assert.True(t, desc.HasHits)
	assert.True(t, desc.HasPublished)
}

func TestColumnsOf_MissingTable(t *testing.T) {
	s, _ := createTestStore(t)

	cols, err := s.ColumnsOf(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Empty(t, cols)
}

func TestInsertAndLoad(t *testing.T) {
	s, _ := createTestStore(t)
	ctx := context.Background()

	fields := map[string]any{"id": nil, "title": "Hello", "catid": 3, "note": nil}
	require.NoError(t, s.InsertRecord(ctx, "content", fields, []string{"id"}))
	assert.Equal(t, int64(1), fields["id"])

	fields = map[string]any{"id": 0, "title": "World"}
	require.NoError(t, s.InsertRecord(ctx, "content", fields, []string{"id"}))
	assert.Equal(t, int64(2), fields["id"])

	row, err := s.LoadSingleRow(ctx, s.NewQuery().Select().From("content").Where(queryir.Eq("id", 1)))
	require.NoError(t, err)
	assert.Equal(t, "Hello", row["title"])
	assert.Equal(t, int64(3), row["catid"])
	assert.Nil(t, row["note"])
	assert.Equal(t, "0000-00-00 00:00:00", row["checked_out_time"])

	rows, err := s.LoadRows(ctx, s.NewQuery().Select("id", "title").From("content").OrderBy("id", true))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "World", rows[0]["title"])

	n, err := s.LoadScalar(ctx, s.NewQuery().SelectExpr("COUNT(*)").From("content"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestInsert_UnsignedZeroKeyIsGenerated(t *testing.T) {
	s, _ := createTestStore(t)
	ctx := context.Background()

	for i, id := range []any{uint32(0), int8(0), float32(0), []byte{}} {
		fields := map[string]any{"id": id, "title": "row"}
		require.NoError(t, s.InsertRecord(ctx, "content", fields, []string{"id"}))
		assert.Equal(t, int64(i+1), fields["id"])
	}

	n, err := s.LoadScalar(ctx, s.NewQuery().SelectExpr("COUNT(*)").From("content").Where(queryir.Eq("id", 0)))
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestLoad_NoRows(t *testing.T) {
	s, _ := createTestStore(t)
	ctx := context.Background()

	row, err := s.LoadSingleRow(ctx, s.NewQuery().Select().From("content").Where(queryir.Eq("id", 42)))
	require.NoError(t, err)
	assert.Nil(t, row)

	v, err := s.LoadScalar(ctx, s.NewQuery().Select("title").From("content").Where(queryir.Eq("id", 42)))
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = s.LoadScalar(ctx, s.NewQuery().SelectExpr(`MAX("ordering")`).From("content"))
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestInsert_ExplicitCompositeKey(t *testing.T) {
	s, _ := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.ExecRaw(ctx, `CREATE TABLE pairs (a INTEGER, b INTEGER, label TEXT, PRIMARY KEY (a, b))`))

	fields := map[string]any{"a": 1, "b": 0, "label": "x"}
	require.NoError(t, s.InsertRecord(ctx, "pairs", fields, []string{"a", "b"}))
	assert.Equal(t, 0, fields["b"])

	v, err := s.LoadScalar(ctx, s.NewQuery().Select("label").From("pairs").
		Where(queryir.AllOf(queryir.Eq("a", 1), queryir.Eq("b", 0))))
	require.NoError(t, err)
	assert.Equal(t, "x", v)
}

func TestUpdateRecord(t *testing.T) {
	s, _ := createTestStore(t)
	ctx := context.Background()

	fields := map[string]any{"title": "Before", "note": "keep"}
	require.NoError(t, s.InsertRecord(ctx, "content", fields, []string{"id"}))

	load := func() map[string]any {
		row, err := s.LoadSingleRow(ctx, s.NewQuery().Select().From("content").Where(queryir.Eq("id", fields["id"])))
		require.NoError(t, err)
		return row
	}

	update := map[string]any{"id": fields["id"], "title": "After", "note": nil}
	require.NoError(t, s.UpdateRecord(ctx, "content", update, []string{"id"}, false))
	row := load()
	assert.Equal(t, "After", row["title"])
	assert.Equal(t, "keep", row["note"])

	require.NoError(t, s.UpdateRecord(ctx, "content", update, []string{"id"}, true))
	assert.Nil(t, load()["note"])

	// Only keys: nothing to do.
	require.NoError(t, s.UpdateRecord(ctx, "content", map[string]any{"id": fields["id"]}, []string{"id"}, false))
}

func TestExecute_AffectedRows(t *testing.T) {
	s, _ := createTestStore(t)
	ctx := context.Background()

	for _, title := range []string{"a", "b", "c"} {
		require.NoError(t, s.InsertRecord(ctx, "content", map[string]any{"title": title}, []string{"id"}))
	}

	n, err := s.Execute(ctx, s.NewQuery().Update("content").Set("published", 1).
		Where(queryir.Compare{Field: "id", Op: queryir.OpLessEqual, Value: 2}))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = s.Execute(ctx, s.NewQuery().DeleteFrom("content").Where(queryir.Eq("id", 99)))
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	_, err = s.Execute(ctx, s.NewQuery().Update("missing").Set("x", 1))
	assert.Error(t, err)
}

func TestNullDate(t *testing.T) {
	s, _ := createTestStore(t)
	assert.Equal(t, "0000-00-00 00:00:00", s.NullDate())
	assert.Equal(t, "1970-01-01 00:00:00", (&Store{dialect: querysql.Postgres}).NullDate())
}

func TestNormalizeDefault(t *testing.T) {
	tests := []struct {
		name    string
		dialect querysql.Dialect
		in      sql.NullString
		want    any
	}{
		{"null", querysql.SQLite, sql.NullString{}, nil},
		{"NULL literal", querysql.SQLite, sql.NullString{String: "NULL", Valid: true}, nil},
		{"number", querysql.SQLite, sql.NullString{String: "0", Valid: true}, "0"},
		{"quoted", querysql.SQLite, sql.NullString{String: "'it''s'", Valid: true}, "it's"},
		{"empty quoted", querysql.SQLite, sql.NullString{String: "''", Valid: true}, ""},
		{"mysql plain", querysql.MySQL, sql.NullString{String: "draft", Valid: true}, "draft"},
		{"pg cast", querysql.Postgres, sql.NullString{String: "'draft'::character varying", Valid: true}, "draft"},
		{"pg number cast", querysql.Postgres, sql.NullString{String: "0::smallint", Valid: true}, "0"},
		{"pg serial", querysql.Postgres, sql.NullString{String: "nextval('content_id_seq'::regclass)", Valid: true}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeDefault(tt.dialect, tt.in))
		})
	}
}
