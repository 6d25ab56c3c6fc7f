package record

import (
	"context"
	"fmt"

	"github.com/roach88/rowgate/internal/queryir"
	"github.com/roach88/rowgate/internal/schema"
)

// Publish sets the published state of the rows identified by keys, or of
// the record's own row when keys is empty.
//
// On tables with checkout columns a row is only changed when it is not
// checked out or is checked out by actorID. If every target was changed,
// all targets are checked in. If none was changed, Publish returns false
// and logs why.
func (r *Record) Publish(ctx context.Context, keys []Key, state int, actorID int64) (bool, error) {
	if !r.desc.HasPublished {
		return false, r.misuse(ErrCodeUnsupportedOperation, schema.ColumnPublished, "Publish requires a published column")
	}

	targets, err := r.publishTargets(keys)
	if err != nil {
		return false, err
	}
	if len(targets) == 0 {
		r.SetError("no rows selected")
		return false, nil
	}

	var affected int64
	for _, k := range targets {
		q := r.drv.NewQuery().
			Update(r.desc.Table).
			Set(schema.ColumnPublished, state).
			Where(r.keyPredicate(k))
		if r.desc.HasCheckout {
			q.Where(queryir.Or{Predicates: []queryir.Predicate{
				queryir.Eq(schema.ColumnCheckedOut, 0),
				queryir.Eq(schema.ColumnCheckedOut, actorID),
			}})
		}
		n, err := r.drv.Execute(ctx, q)
		if err != nil {
			return false, fmt.Errorf("publish %s: %w", r.desc.Table, err)
		}
		affected += n

		if r.isOwnKey(k) {
			r.fields[schema.ColumnPublished] = int64(state)
		}
	}

	r.logger.Debug("records published", "table", r.desc.Table, "state", state,
		"targets", len(targets), "affected", affected)

	if !r.desc.HasCheckout {
		return true, nil
	}
	switch {
	case affected == int64(len(targets)):
		for _, k := range targets {
			if _, err := r.CheckIn(ctx, k); err != nil {
				return false, err
			}
		}
	case affected == 0:
		r.SetError("no rows published: checked out by another actor")
		return false, nil
	}
	return true, nil
}

func (r *Record) publishTargets(keys []Key) ([]Key, error) {
	if len(keys) == 0 {
		own := r.currentKey()
		for _, v := range own {
			if schema.IsEmpty(v) {
				return nil, nil
			}
		}
		return []Key{own}, nil
	}

	targets := make([]Key, 0, len(keys))
	for _, k := range keys {
		t := make(Key, len(r.desc.Keys))
		for _, name := range r.desc.Keys {
			v, ok := k[name]
			if !ok || v == nil {
				return nil, r.misuse(ErrCodeNullPrimaryKey, name, "publish target missing key column")
			}
			t[name] = v
		}
		targets = append(targets, t)
	}
	return targets, nil
}
