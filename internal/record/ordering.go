package record

import (
	"context"
	"fmt"
	"sort"

	"github.com/roach88/rowgate/internal/queryir"
	"github.com/roach88/rowgate/internal/schema"
)

func (r *Record) requireOrdering(op string) error {
	if r.desc.HasOrdering {
		return nil
	}
	return r.misuse(ErrCodeUnsupportedOperation, schema.ColumnOrdering, "%s requires an ordering column", op)
}

// GetNextOrder returns one more than the highest ordering among the rows
// matching filter, or 1 when there are none. filter may be nil.
func (r *Record) GetNextOrder(ctx context.Context, filter queryir.Predicate) (int64, error) {
	if err := r.requireOrdering("GetNextOrder"); err != nil {
		return 0, err
	}

	q := r.drv.NewQuery().
		SelectExpr("MAX(" + r.drv.QuoteName(schema.ColumnOrdering) + ")").
		From(r.desc.Table).
		Where(filter)
	v, err := r.drv.LoadScalar(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("next order %s: %w", r.desc.Table, err)
	}
	n, _ := toInt64(v)
	return n + 1, nil
}

type orderedRow struct {
	key      Key
	ordering int64
}

// Reorder renumbers the rows matching filter whose ordering is not
// negative to 1..N, keeping their relative order. Rows with equal ordering
// keep the order the database returned them in. Only rows whose value
// changes are written.
func (r *Record) Reorder(ctx context.Context, filter queryir.Predicate) (bool, error) {
	if err := r.requireOrdering("Reorder"); err != nil {
		return false, err
	}

	q := r.drv.NewQuery().
		Select(r.orderingColumns()...).
		From(r.desc.Table).
		Where(queryir.Compare{Field: schema.ColumnOrdering, Op: queryir.OpGreaterEqual, Value: 0}).
		Where(filter).
		OrderBy(schema.ColumnOrdering, false)
	rows, err := r.drv.LoadRows(ctx, q)
	if err != nil {
		return false, fmt.Errorf("reorder %s: %w", r.desc.Table, err)
	}

	entries := make([]orderedRow, len(rows))
	for i, row := range rows {
		n, _ := toInt64(row[schema.ColumnOrdering])
		entries[i] = orderedRow{key: r.rowKey(row), ordering: n}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].ordering < entries[j].ordering
	})

	var written int
	for i, e := range entries {
		pos := int64(i + 1)
		if e.ordering == pos {
			continue
		}
		if err := r.writeOrdering(ctx, e.key, pos); err != nil {
			return false, err
		}
		written++
	}

	r.logger.Debug("table reordered", "table", r.desc.Table, "rows", len(entries), "written", written)
	return true, nil
}

// Move swaps the record's ordering with its nearest neighbour in the
// direction of delta: the previous row for a negative delta, the next for
// a positive one. filter narrows the candidate neighbours. Without a
// neighbour the record keeps its position. A zero delta does nothing.
func (r *Record) Move(ctx context.Context, delta int, filter queryir.Predicate) (bool, error) {
	if delta == 0 {
		return true, nil
	}
	if err := r.requireOrdering("Move"); err != nil {
		return false, err
	}
	pk, err := r.primaryKey(nil)
	if err != nil {
		return false, err
	}

	current, _ := toInt64(r.fields[schema.ColumnOrdering])
	op, desc := queryir.OpGreater, false
	if delta < 0 {
		op, desc = queryir.OpLess, true
	}

	q := r.drv.NewQuery().
		Select(r.orderingColumns()...).
		From(r.desc.Table).
		Where(queryir.Compare{Field: schema.ColumnOrdering, Op: op, Value: current}).
		Where(filter).
		OrderBy(schema.ColumnOrdering, desc).
		Limit(1)
	neighbour, err := r.drv.LoadSingleRow(ctx, q)
	if err != nil {
		return false, fmt.Errorf("move %s: %w", r.desc.Table, err)
	}

	if neighbour == nil {
		if err := r.writeOrdering(ctx, pk, current); err != nil {
			return false, err
		}
		return true, nil
	}

	target, _ := toInt64(neighbour[schema.ColumnOrdering])
	if err := r.writeOrdering(ctx, r.rowKey(neighbour), current); err != nil {
		return false, err
	}
	if err := r.writeOrdering(ctx, pk, target); err != nil {
		return false, err
	}

	r.logger.Debug("record moved", "table", r.desc.Table, "key", pk, "from", current, "to", target)
	return true, nil
}

func (r *Record) orderingColumns() []string {
	cols := r.KeyNames()
	if !r.desc.IsKey(schema.ColumnOrdering) {
		cols = append(cols, schema.ColumnOrdering)
	}
	return cols
}

func (r *Record) writeOrdering(ctx context.Context, k Key, value int64) error {
	q := r.drv.NewQuery().
		Update(r.desc.Table).
		Set(schema.ColumnOrdering, value).
		Where(r.keyPredicate(k))
	if _, err := r.drv.Execute(ctx, q); err != nil {
		return fmt.Errorf("write ordering %s: %w", r.desc.Table, err)
	}
	if r.isOwnKey(k) {
		r.fields[schema.ColumnOrdering] = value
	}
	return nil
}
