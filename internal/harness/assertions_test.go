package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rowgate/internal/testutil"
)

func TestEvaluateAssertions(t *testing.T) {
	st, _ := testutil.OpenSQLite(t, testutil.ContentDDL)
	ctx := context.Background()
	require.NoError(t, st.ExecRaw(ctx, `INSERT INTO content (id, title, catid) VALUES (1, 'One', 1), (2, 'Two', 1), (3, 'Three', 2)`))

	tests := []struct {
		name      string
		assertion Assertion
		wantErr   string
	}{
		{
			name:      "final state matches",
			assertion: Assertion{Type: AssertFinalState, Table: "content", Where: map[string]any{"id": 2}, Expect: map[string]any{"title": "Two", "catid": 1}},
		},
		{
			name:      "final state mismatch",
			assertion: Assertion{Type: AssertFinalState, Table: "content", Where: map[string]any{"id": 2}, Expect: map[string]any{"title": "Deux"}},
			wantErr:   `field "title" = Two (type string)`,
		},
		{
			name:      "final state missing column",
			assertion: Assertion{Type: AssertFinalState, Table: "content", Where: map[string]any{"id": 2}, Expect: map[string]any{"colour": "red"}},
			wantErr:   `field "colour" not present in content`,
		},
		{
			name:      "final state no row",
			assertion: Assertion{Type: AssertFinalState, Table: "content", Where: map[string]any{"id": 9}},
			wantErr:   "row not found",
		},
		{
			name:      "final state ambiguous",
			assertion: Assertion{Type: AssertFinalState, Table: "content", Where: map[string]any{"catid": 1}},
			wantErr:   "2 rows matched",
		},
		{
			name:      "row count",
			assertion: Assertion{Type: AssertRowCount, Table: "content", Where: map[string]any{"catid": 1}, Count: 2},
		},
		{
			name:      "row count mismatch",
			assertion: Assertion{Type: AssertRowCount, Table: "content", Count: 2},
			wantErr:   "Actual: 3 row(s)",
		},
		{
			name:      "query error",
			assertion: Assertion{Type: AssertRowCount, Table: "missing"},
			wantErr:   "query error",
		},
		{
			name:      "unknown type",
			assertion: Assertion{Type: "trace_order", Table: "content"},
			wantErr:   `unknown assertion type "trace_order"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			failures := EvaluateAssertions(ctx, st, []Assertion{tt.assertion})
			if tt.wantErr == "" {
				assert.Empty(t, failures)
				return
			}
			require.Len(t, failures, 1)
			assert.Contains(t, failures[0], tt.wantErr)
		})
	}
}

func TestFormatWhereClause(t *testing.T) {
	assert.Equal(t, "(no conditions)", formatWhereClause(nil))
	assert.Equal(t, "catid=1 AND id=2", formatWhereClause(map[string]any{"id": 2, "catid": 1}))
}

func TestStateValuesEqual(t *testing.T) {
	assert.True(t, stateValuesEqual(nil, nil))
	assert.True(t, stateValuesEqual(5, int64(5)))
	assert.True(t, stateValuesEqual("2024-01-15 10:30:00", "2024-01-15 10:30:00"))
	assert.False(t, stateValuesEqual(nil, int64(0)))
	assert.False(t, stateValuesEqual(0, nil))
	assert.False(t, stateValuesEqual(1, int64(2)))
}
