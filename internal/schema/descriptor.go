package schema

import (
	"fmt"
	"strings"
)

// Reserved column names that unlock optional record capabilities.
const (
	ColumnOrdering       = "ordering"
	ColumnCheckedOut     = "checked_out"
	ColumnCheckedOutTime = "checked_out_time"
	ColumnHits           = "hits"
	ColumnPublished      = "published"
)

// DefaultKey is used when a record is constructed without key columns.
const DefaultKey = "id"

// Column is the metadata of a single table column.
type Column struct {
	Name     string
	Type     string
	Default  any
	Nullable bool
}

// TableDescriptor is the immutable description of a modeled table.
type TableDescriptor struct {
	Table   string
	Keys    []string // Primary-key columns in configured order
	Columns []Column

	// AutoIncrement is true iff exactly one key column exists.
	AutoIncrement bool

	HasOrdering  bool
	HasCheckout  bool
	HasHits      bool
	HasPublished bool

	index map[string]int
}

// NormalizeKeys validates a key specification and returns a copy of it.
// An empty specification yields the default "id" key.
func NormalizeKeys(keys []string) ([]string, error) {
	if len(keys) == 0 {
		return []string{DefaultKey}, nil
	}
	out := make([]string, 0, len(keys))
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			return nil, fmt.Errorf("empty primary key column name")
		}
		if seen[k] {
			return nil, fmt.Errorf("duplicate primary key column %q", k)
		}
		seen[k] = true
		out = append(out, k)
	}
	return out, nil
}

// NewTableDescriptor builds a descriptor from column metadata and a key
// specification.
func NewTableDescriptor(table string, keys []string, columns []Column) (*TableDescriptor, error) {
	if len(columns) == 0 {
		return nil, &LookupError{Table: table}
	}
	normalized, err := NormalizeKeys(keys)
	if err != nil {
		return nil, fmt.Errorf("table %s: %w", table, err)
	}

	d := &TableDescriptor{
		Table:         table,
		Keys:          normalized,
		Columns:       append([]Column(nil), columns...),
		AutoIncrement: len(normalized) == 1,
		index:         make(map[string]int, len(columns)),
	}
	for i, c := range d.Columns {
		d.index[c.Name] = i
	}
	for _, k := range d.Keys {
		if !d.HasColumn(k) {
			return nil, &KeyError{Table: table, Column: k}
		}
	}

	d.HasOrdering = d.HasColumn(ColumnOrdering)
	d.HasCheckout = d.HasColumn(ColumnCheckedOut) && d.HasColumn(ColumnCheckedOutTime)
	d.HasHits = d.HasColumn(ColumnHits)
	d.HasPublished = d.HasColumn(ColumnPublished)

	return d, nil
}

// HasColumn reports whether name is a column of the table.
func (d *TableDescriptor) HasColumn(name string) bool {
	_, ok := d.index[name]
	return ok
}

// Column returns the metadata of the named column.
func (d *TableDescriptor) Column(name string) (Column, bool) {
	i, ok := d.index[name]
	if !ok {
		return Column{}, false
	}
	return d.Columns[i], true
}

// ColumnNames returns the column names in table order.
func (d *TableDescriptor) ColumnNames() []string {
	names := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		names[i] = c.Name
	}
	return names
}

// IsKey reports whether name is one of the primary-key columns.
func (d *TableDescriptor) IsKey(name string) bool {
	for _, k := range d.Keys {
		if k == name {
			return true
		}
	}
	return false
}

// LookupError reports that the database returned no columns for a table.
type LookupError struct {
	Table string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("schema lookup: no columns found for table %q", e.Table)
}

// KeyError reports a primary-key column that the table does not have.
type KeyError struct {
	Table  string
	Column string
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("table %s has no primary key column %q", e.Table, e.Column)
}
