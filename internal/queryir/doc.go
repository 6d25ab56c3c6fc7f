// Package queryir provides the filter predicates used to scope rowgate
// queries.
//
// Predicates describe WHERE conditions independently of any SQL dialect. The
// querysql package compiles them into parameterized SQL for a concrete
// dialect; values are never interpolated into the statement text.
//
// SEALED INTERFACE:
//
// Predicate is sealed using the marker method pattern. Only types in this
// package implement it, so compilers can switch over it exhaustively:
//
//   - Equals:  field = value (nil value compiles to IS NULL)
//   - Compare: field <op> value for <, <=, >, >=, <>
//   - And:     all sub-predicates must hold (empty = always true)
//   - Or:      at least one sub-predicate must hold (empty = always false)
//   - Raw:     caller-supplied SQL fragment with ? placeholders
//
// Ordering partitions, key equalities and the lock-respecting publish clause
// are all expressed with these types.
package queryir
