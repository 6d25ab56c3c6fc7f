package session

import (
	"context"
	"fmt"
	"strconv"

	"github.com/roach88/rowgate/internal/queryir"
	"github.com/roach88/rowgate/internal/querysql"
)

// Defaults for SQLProbe.
const (
	DefaultTable  = "sessions"
	DefaultColumn = "userid"
)

// Querier is the part of a record.Driver an SQLProbe needs.
type Querier interface {
	NewQuery() *querysql.Builder
	LoadScalar(ctx context.Context, q *querysql.Builder) (any, error)
}

// SQLProbe reports an actor active while at least one row of the session
// table carries its id.
type SQLProbe struct {
	db     Querier
	table  string
	column string
}

// NewSQLProbe creates a probe over table.column. Empty names use
// DefaultTable and DefaultColumn.
func NewSQLProbe(db Querier, table, column string) *SQLProbe {
	if table == "" {
		table = DefaultTable
	}
	if column == "" {
		column = DefaultColumn
	}
	return &SQLProbe{db: db, table: table, column: column}
}

// Active implements record.SessionProbe.
func (p *SQLProbe) Active(ctx context.Context, actorID int64) (bool, error) {
	q := p.db.NewQuery().
		SelectExpr("COUNT(*)").
		From(p.table).
		Where(queryir.Eq(p.column, actorID))
	v, err := p.db.LoadScalar(ctx, q)
	if err != nil {
		return false, fmt.Errorf("count sessions: %w", err)
	}

	if v == nil {
		return false, nil
	}
	n, err := strconv.ParseInt(fmt.Sprint(v), 10, 64)
	if err != nil {
		return false, fmt.Errorf("count sessions: unexpected %T", v)
	}
	return n > 0, nil
}
