// Package schema describes relational tables as rowgate sees them.
//
// A TableDescriptor is built once per (table, key list) from column
// metadata reported by the database and never mutated afterwards. Optional
// column capabilities (ordering, checkout, hits, published) are derived at
// build time so record operations branch on flags instead of inspecting
// the column set on every call.
//
// # Cache lifecycle
//
// Column metadata is fetched at most once per table name for the lifetime
// of a Cache. A table altered after the first fetch keeps its stale
// description until Reset is called; Reset exists for tests. Default is the
// process-scoped cache used when callers do not inject their own.
package schema
