package schema

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// ColumnSource reports column metadata for a table.
type ColumnSource interface {
	ColumnsOf(ctx context.Context, table string) ([]Column, error)
}

// Cache memoizes column metadata and descriptors by table name.
//
// Thread-safety: all methods are safe for concurrent use. Returned
// descriptors are shared and must be treated as read-only.
type Cache struct {
	mu          sync.Mutex
	columns     map[string][]Column
	descriptors map[string]*TableDescriptor
}

// Default is the process-scoped cache.
var Default = NewCache()

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{
		columns:     make(map[string][]Column),
		descriptors: make(map[string]*TableDescriptor),
	}
}

// Columns returns the columns of table, fetching them from src on first
// use. Failed lookups are not memoized.
func (c *Cache) Columns(ctx context.Context, src ColumnSource, table string) ([]Column, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cols, err := c.columnsLocked(ctx, src, table)
	if err != nil {
		return nil, err
	}
	return append([]Column(nil), cols...), nil
}

// Descriptor returns the descriptor for table with the given key columns.
func (c *Cache) Descriptor(ctx context.Context, src ColumnSource, table string, keys []string) (*TableDescriptor, error) {
	normalized, err := NormalizeKeys(keys)
	if err != nil {
		return nil, fmt.Errorf("table %s: %w", table, err)
	}
	cacheKey := table + "\x00" + strings.Join(normalized, "\x00")

	c.mu.Lock()
	defer c.mu.Unlock()

	if d, ok := c.descriptors[cacheKey]; ok {
		return d, nil
	}

	cols, err := c.columnsLocked(ctx, src, table)
	if err != nil {
		return nil, err
	}
	d, err := NewTableDescriptor(table, normalized, cols)
	if err != nil {
		return nil, err
	}
	c.descriptors[cacheKey] = d
	return d, nil
}

func (c *Cache) columnsLocked(ctx context.Context, src ColumnSource, table string) ([]Column, error) {
	if cols, ok := c.columns[table]; ok {
		return cols, nil
	}

	cols, err := src.ColumnsOf(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("schema lookup %s: %w", table, err)
	}
	if len(cols) == 0 {
		return nil, &LookupError{Table: table}
	}
	c.columns[table] = cols
	return cols, nil
}

// Reset drops every memoized entry. Intended for tests.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.columns = make(map[string][]Column)
	c.descriptors = make(map[string]*TableDescriptor)
}
