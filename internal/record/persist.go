package record

import (
	"context"
	"fmt"

	"github.com/roach88/rowgate/internal/queryir"
	"github.com/roach88/rowgate/internal/schema"
)

// Load reads one row into the record.
//
// key is nil (use the current primary-key values), a scalar (single-key
// tables only) or a Key naming any columns to match. With no key and every
// current key value empty there is nothing to load and Load succeeds
// without querying. A scalar is always matched literally, so Load(ctx, 0,
// ...) looks up id 0 rather than the record's own key. When reset is set,
// non-key fields return to their column defaults before the row is bound.
//
// No matching row returns false and appends "empty row returned" to the
// error log.
func (r *Record) Load(ctx context.Context, key any, reset bool) (bool, error) {
	match, none, err := r.lookupKey(key)
	if err != nil {
		return false, err
	}
	if none {
		return true, nil
	}
	for name := range match {
		if !r.desc.HasColumn(name) {
			return false, r.misuse(ErrCodeUnknownField, name, "no such column")
		}
	}

	if reset {
		r.Reset()
	}

	q := r.drv.NewQuery().Select().From(r.desc.Table).Where(matchPredicate(match))
	row, err := r.drv.LoadSingleRow(ctx, q)
	if err != nil {
		return false, fmt.Errorf("load %s: %w", r.desc.Table, err)
	}
	if row == nil {
		r.SetError("empty row returned")
		return false, nil
	}

	r.logger.Debug("record loaded", "table", r.desc.Table, "key", match)
	return true, r.Bind(row)
}

// Reset sets every non-key field to its column default.
func (r *Record) Reset() {
	for _, col := range r.desc.Columns {
		if r.desc.IsKey(col.Name) {
			continue
		}
		r.fields[col.Name] = col.Default
	}
}

// HasPrimaryKey reports whether the record's key identifies an existing
// row. For an autoincrement table this is an in-memory check that the key
// is not empty; otherwise exactly one row must match the composite key.
func (r *Record) HasPrimaryKey(ctx context.Context) (bool, error) {
	if r.desc.AutoIncrement {
		for _, name := range r.desc.Keys {
			if schema.IsEmpty(r.fields[name]) {
				return false, nil
			}
		}
		return true, nil
	}

	q := r.drv.NewQuery().
		SelectExpr("COUNT(*)").
		From(r.desc.Table).
		Where(r.keyPredicate(r.currentKey()))
	v, err := r.drv.LoadScalar(ctx, q)
	if err != nil {
		return false, fmt.Errorf("count %s: %w", r.desc.Table, err)
	}
	n, _ := toInt64(v)
	return n == 1, nil
}

// Store writes the record, updating when HasPrimaryKey is true and
// inserting otherwise. Nil fields are left untouched on update unless
// updateNulls is set. After an insert into an autoincrement table the
// generated key is available through Get.
//
// A table lock taken with Lock is released before Store returns.
func (r *Record) Store(ctx context.Context, updateNulls bool) (ok bool, err error) {
	if r.locked {
		defer func() {
			if uerr := r.Unlock(ctx); uerr != nil && err == nil {
				ok, err = false, uerr
			}
		}()
	}

	exists, err := r.HasPrimaryKey(ctx)
	if err != nil {
		return false, err
	}

	action := "insert"
	if exists {
		action = "update"
		err = r.drv.UpdateRecord(ctx, r.desc.Table, r.fields, r.desc.Keys, updateNulls)
	} else {
		err = r.drv.InsertRecord(ctx, r.desc.Table, r.fields, r.desc.Keys)
	}
	if err != nil {
		return false, fmt.Errorf("store %s (%s): %w", r.desc.Table, action, err)
	}

	r.logger.Debug("record stored", "table", r.desc.Table, "action", action, "key", r.currentKey())
	return true, nil
}

// Delete removes the row identified by key, or the record's own row when
// key is nil.
func (r *Record) Delete(ctx context.Context, key any) (bool, error) {
	pk, err := r.primaryKey(key)
	if err != nil {
		return false, err
	}

	q := r.drv.NewQuery().DeleteFrom(r.desc.Table).Where(r.keyPredicate(pk))
	if _, err := r.drv.Execute(ctx, q); err != nil {
		return false, fmt.Errorf("delete %s: %w", r.desc.Table, err)
	}

	r.logger.Debug("record deleted", "table", r.desc.Table, "key", pk)
	return true, nil
}

// Check runs the configured Checker. Without one every record is valid.
func (r *Record) Check() bool {
	if r.checker == nil {
		return true
	}
	return r.checker.Check(r)
}

// Save binds src, checks, stores and checks the row back in. When
// orderingFilter names a column, the rows sharing the record's value for it
// are then reordered. Save stops at the first step that fails.
func (r *Record) Save(ctx context.Context, src any, orderingFilter string, ignore ...string) (bool, error) {
	if orderingFilter != "" && !r.desc.HasColumn(orderingFilter) {
		return false, r.misuse(ErrCodeUnknownField, orderingFilter, "ordering filter is not a column")
	}

	if err := r.Bind(src, ignore...); err != nil {
		return false, err
	}

	logged := len(r.errs)
	if !r.Check() {
		if len(r.errs) == logged {
			r.SetError("check failed")
		}
		return false, nil
	}

	if ok, err := r.Store(ctx, false); !ok || err != nil {
		return false, err
	}
	if ok, err := r.CheckIn(ctx, nil); !ok || err != nil {
		return false, err
	}

	if orderingFilter != "" {
		filter := queryir.Eq(orderingFilter, r.fields[orderingFilter])
		if ok, err := r.Reorder(ctx, filter); !ok || err != nil {
			return false, err
		}
	}
	return true, nil
}

// Hit increments the hit counter of the row identified by key.
func (r *Record) Hit(ctx context.Context, key any) (bool, error) {
	if !r.desc.HasHits {
		return true, nil
	}
	pk, err := r.primaryKey(key)
	if err != nil {
		return false, err
	}

	col := r.drv.QuoteName(schema.ColumnHits)
	q := r.drv.NewQuery().
		Update(r.desc.Table).
		SetExpr(schema.ColumnHits, col+" + 1").
		Where(r.keyPredicate(pk))
	if _, err := r.drv.Execute(ctx, q); err != nil {
		return false, fmt.Errorf("hit %s: %w", r.desc.Table, err)
	}

	if r.isOwnKey(pk) {
		n, _ := toInt64(r.fields[schema.ColumnHits])
		r.fields[schema.ColumnHits] = n + 1
	}
	return true, nil
}
