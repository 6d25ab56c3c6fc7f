package record

import (
	"reflect"
	"sort"

	"github.com/roach88/rowgate/internal/queryir"
	"github.com/roach88/rowgate/internal/schema"
)

// Key maps column names to values. It identifies a row by its primary key
// or, for Load, by any combination of columns.
type Key map[string]any

// KeyName returns the first primary-key column.
func (r *Record) KeyName() string {
	return r.desc.Keys[0]
}

// KeyNames returns all primary-key columns in order.
func (r *Record) KeyNames() []string {
	return append([]string(nil), r.desc.Keys...)
}

// currentKey returns the record's own primary-key values.
func (r *Record) currentKey() Key {
	k := make(Key, len(r.desc.Keys))
	for _, name := range r.desc.Keys {
		k[name] = r.fields[name]
	}
	return k
}

// asKey converts a Key or string-keyed map to a Key. ok is false for
// anything that is not a map.
func asKey(v any) (Key, bool) {
	switch m := v.(type) {
	case Key:
		return m, true
	case map[string]any:
		return Key(m), true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	k := make(Key, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		k[iter.Key().String()] = iter.Value().Interface()
	}
	return k, true
}

// lookupKey resolves the argument of Load. none is true when no key was
// given and every current key value is empty.
func (r *Record) lookupKey(key any) (match Key, none bool, err error) {
	if m, ok := asKey(key); ok && len(m) > 0 {
		return m, false, nil
	} else if key != nil && !ok {
		if len(r.desc.Keys) != 1 {
			return nil, false, r.misuse(ErrCodeMultiKeyScalar, "",
				"scalar key given for %d key columns", len(r.desc.Keys))
		}
		return Key{r.desc.Keys[0]: key}, false, nil
	}

	cur := r.currentKey()
	for _, v := range cur {
		if !schema.IsEmpty(v) {
			return cur, false, nil
		}
	}
	return nil, true, nil
}

// primaryKey resolves a strict primary key: every key column must end up
// with a non-nil value. Map keys missing a column fall back to the record's
// current value for it.
func (r *Record) primaryKey(key any) (Key, error) {
	var given Key
	if m, ok := asKey(key); ok {
		given = m
	} else if key != nil {
		if len(r.desc.Keys) != 1 {
			return nil, r.misuse(ErrCodeMultiKeyScalar, "",
				"scalar key given for %d key columns", len(r.desc.Keys))
		}
		given = Key{r.desc.Keys[0]: key}
	}

	pk := make(Key, len(r.desc.Keys))
	for _, name := range r.desc.Keys {
		v, ok := given[name]
		if !ok || v == nil {
			v = r.fields[name]
		}
		if v == nil {
			return nil, r.misuse(ErrCodeNullPrimaryKey, name, "null primary key not allowed")
		}
		pk[name] = v
	}
	return pk, nil
}

// isOwnKey reports whether k identifies the row the record holds.
func (r *Record) isOwnKey(k Key) bool {
	for _, name := range r.desc.Keys {
		cur := r.fields[name]
		if cur == nil || !sameValue(cur, k[name]) {
			return false
		}
	}
	return true
}

// keyPredicate matches the primary-key columns in key order.
func (r *Record) keyPredicate(k Key) queryir.Predicate {
	preds := make([]queryir.Predicate, 0, len(r.desc.Keys))
	for _, name := range r.desc.Keys {
		preds = append(preds, queryir.Eq(name, k[name]))
	}
	return queryir.AllOf(preds...)
}

// matchPredicate matches arbitrary columns in name order.
func matchPredicate(k Key) queryir.Predicate {
	names := make([]string, 0, len(k))
	for name := range k {
		names = append(names, name)
	}
	sort.Strings(names)

	preds := make([]queryir.Predicate, 0, len(names))
	for _, name := range names {
		preds = append(preds, queryir.Eq(name, k[name]))
	}
	return queryir.AllOf(preds...)
}

// rowKey extracts the primary key from a loaded row.
func (r *Record) rowKey(row map[string]any) Key {
	k := make(Key, len(r.desc.Keys))
	for _, name := range r.desc.Keys {
		k[name] = row[name]
	}
	return k
}
