package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/rowgate/internal/queryir"
	"github.com/roach88/rowgate/internal/record"
)

// KeySeparator joins the values of a composite key on the command line.
const KeySeparator = "|"

// parseKey splits arg into one value per key column of rec, in key order.
func parseKey(rec *record.Record, arg string) (record.Key, error) {
	names := rec.KeyNames()
	parts := strings.Split(arg, KeySeparator)
	if len(parts) != len(names) {
		return nil, fmt.Errorf("key %q has %d value(s), %s needs %d (%s)",
			arg, len(parts), rec.Table(), len(names), strings.Join(names, KeySeparator))
	}

	key := make(record.Key, len(names))
	for i, name := range names {
		key[name] = parseValue(parts[i])
	}
	return key, nil
}

// parseAssignments turns name=value arguments into a map. Every name must
// be a column of rec.
func parseAssignments(rec *record.Record, args []string) (map[string]any, error) {
	out := make(map[string]any, len(args))
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("expected name=value, got %q", arg)
		}
		if !rec.Descriptor().HasColumn(name) {
			return nil, fmt.Errorf("%s has no column %q", rec.Table(), name)
		}
		out[name] = parseValue(value)
	}
	return out, nil
}

// parseFilter builds an equality filter from name=value arguments.
// It returns nil for no arguments.
func parseFilter(rec *record.Record, args []string) (queryir.Predicate, error) {
	values, err := parseAssignments(rec, args)
	if err != nil {
		return nil, err
	}
	preds := make([]queryir.Predicate, 0, len(values))
	for _, arg := range args {
		name, _, _ := strings.Cut(arg, "=")
		name = strings.TrimSpace(name)
		preds = append(preds, queryir.Eq(name, values[name]))
	}
	return queryir.AllOf(preds...), nil
}

// parseValue reads integers as int64 and keeps everything else a string.
func parseValue(s string) any {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	return s
}
