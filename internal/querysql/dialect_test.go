package querysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDialect(t *testing.T) {
	testCases := []struct {
		in   string
		want Dialect
	}{
		{"sqlite", SQLite},
		{"sqlite3", SQLite},
		{"MySQL", MySQL},
		{"postgres", Postgres},
		{" pgx ", Postgres},
	}
	for _, tc := range testCases {
		got, err := ParseDialect(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got)
	}

	_, err := ParseDialect("oracle")
	assert.Error(t, err)
}

func TestDialect_Placeholder(t *testing.T) {
	assert.Equal(t, "?", SQLite.Placeholder(3))
	assert.Equal(t, "?", MySQL.Placeholder(3))
	assert.Equal(t, "$3", Postgres.Placeholder(3))
}

func TestDialect_QuoteName(t *testing.T) {
	assert.Equal(t, `"content"`, SQLite.QuoteName("content"))
	assert.Equal(t, "`content`", MySQL.QuoteName("content"))
	assert.Equal(t, `"c"."title"`, Postgres.QuoteName("c.title"))
	assert.Equal(t, `"c".*`, SQLite.QuoteName("c.*"))
	assert.Equal(t, "*", MySQL.QuoteName("*"))
	assert.Equal(t, `"we""ird"`, SQLite.QuoteName(`we"ird`))
	assert.Equal(t, "`we``ird`", MySQL.QuoteName("we`ird"))
}

func TestDialect_Quote(t *testing.T) {
	assert.Equal(t, "NULL", SQLite.Quote(nil))
	assert.Equal(t, "42", SQLite.Quote(42))
	assert.Equal(t, "1", SQLite.Quote(true))
	assert.Equal(t, "'it''s'", SQLite.Quote("it's"))
	assert.Equal(t, `'a\\b'`, MySQL.Quote(`a\b`))
	assert.Equal(t, `'a\b'`, Postgres.Quote(`a\b`))
}
