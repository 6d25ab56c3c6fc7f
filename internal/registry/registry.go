// Package registry maps record type names to constructors. Types are
// registered explicitly at startup, usually from a catalog file; nothing
// is discovered at runtime.
package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/roach88/rowgate/internal/record"
)

// Constructor builds an empty record of one type.
type Constructor func(ctx context.Context, drv record.Driver, opts ...record.Option) (*record.Record, error)

// Definition describes a record type.
type Definition struct {
	// Name is the type name callers look up, e.g. "content".
	Name string

	// Table is the database table. Defaults to Name.
	Table string

	// Keys lists the primary-key columns. Empty means "id".
	Keys []string

	// OrderingFilter names the column that partitions ordering, if any.
	OrderingFilter string

	// New overrides the default constructor, which is record.New over
	// Table and Keys.
	New Constructor
}

// Registry is safe for concurrent use.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]Definition
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{defs: make(map[string]Definition)}
}

// Register adds a record type.
// Panics if the name is empty or already registered.
func (r *Registry) Register(def Definition) {
	if def.Name == "" {
		panic("registry: empty type name")
	}
	if def.Table == "" {
		def.Table = def.Name
	}
	if def.New == nil {
		table, keys := def.Table, append([]string(nil), def.Keys...)
		def.New = func(ctx context.Context, drv record.Driver, opts ...record.Option) (*record.Record, error) {
			return record.New(ctx, drv, table, keys, opts...)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.defs[def.Name]; exists {
		panic(fmt.Sprintf("record type already registered: %s", def.Name))
	}
	r.defs[def.Name] = def
}

// Get returns the definition of a type.
// Returns false if not found.
func (r *Registry) Get(name string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.defs[name]
	return def, ok
}

// New constructs an empty record of the named type.
func (r *Registry) New(ctx context.Context, name string, drv record.Driver, opts ...record.Option) (*record.Record, error) {
	def, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("unknown record type %q", name)
	}
	return def.New(ctx, drv, opts...)
}

// Names returns all registered type names.
// Sorted alphabetically.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clear removes all registrations. Used by tests.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.defs = make(map[string]Definition)
}
