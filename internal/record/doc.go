// Package record implements the rowgate record gateway: an in-memory
// representation of one table row that loads, validates, persists,
// deletes, orders, locks and publishes itself.
//
// A Record knows nothing about its table at compile time. Column metadata
// comes from the Driver through a schema.Cache, and optional behaviour is
// enabled by reserved columns:
//
//   - ordering                        positional ordering (Reorder, Move)
//   - checked_out, checked_out_time   cooperative checkout (CheckOut, CheckIn)
//   - hits                            hit counter (Hit)
//   - published                       publish state (Publish)
//
// # Errors
//
// Misuse of the API or the schema (a scalar key for a composite-key table,
// a nil primary-key column, an ordering operation on a table without an
// ordering column, ...) returns a *Error. Database failures from the Driver
// are wrapped and returned as is. Soft failures, such as a Checker rejecting
// the data, return false and append an entry to the record's error log;
// callers must check the boolean.
//
// # Locking
//
// Checkout is advisory: Store does not consult checked_out before writing.
// Callers check IsCheckedOut before allowing an edit. The only mutual
// exclusion primitive is the table lock taken with Lock, which Store always
// releases, whether the write succeeds or not.
//
// A Record is not safe for concurrent use.
package record
