package record

import (
	"reflect"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Bind copies values from src into the record's columns. src is a
// string-keyed map, a struct or a pointer to a struct. Struct fields map to
// columns through the `db` tag, or the lower-cased field name; `db:"-"`
// skips a field. Only declared columns not named in ignore are assigned.
// String values are stored in Unicode NFC.
func (r *Record) Bind(src any, ignore ...string) error {
	values, err := r.sourceValues(src)
	if err != nil {
		return err
	}

	skip := make(map[string]bool, len(ignore))
	for _, name := range ignore {
		skip[name] = true
	}

	for _, name := range r.desc.ColumnNames() {
		if skip[name] {
			continue
		}
		v, ok := values[name]
		if !ok {
			continue
		}
		r.fields[name] = normalizeValue(v)
	}
	return nil
}

func (r *Record) sourceValues(src any) (map[string]any, error) {
	if m, ok := asKey(src); ok {
		return m, nil
	}

	rv := reflect.ValueOf(src)
	for rv.IsValid() && rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, r.misuse(ErrCodeInvalidSourceType, "", "bind source is a nil pointer")
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() || rv.Kind() != reflect.Struct {
		return nil, r.misuse(ErrCodeInvalidSourceType, "", "bind source must be a map or struct, got %T", src)
	}

	out := make(map[string]any)
	structValues(rv, out)
	return out, nil
}

func structValues(rv reflect.Value, out map[string]any) {
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		tag := f.Tag.Get("db")
		name, _, _ := strings.Cut(tag, ",")

		if f.Anonymous && tag == "" {
			fv := rv.Field(i)
			if fv.Kind() == reflect.Pointer {
				if fv.IsNil() {
					continue
				}
				fv = fv.Elem()
			}
			if fv.Kind() == reflect.Struct {
				structValues(fv, out)
				continue
			}
		}
		if !f.IsExported() || name == "-" {
			continue
		}
		if name == "" {
			name = strings.ToLower(f.Name)
		}
		out[name] = rv.Field(i).Interface()
	}
}

func normalizeValue(v any) any {
	if s, ok := v.(string); ok {
		return norm.NFC.String(s)
	}
	return v
}
