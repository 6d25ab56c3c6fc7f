// Package harness runs record scenarios against an in-memory SQLite store.
//
// A scenario declares a schema, a catalog of record types, seed rows and a
// flow of record operations, then asserts on the outcome of each step and
// on the final table contents.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	schema:
//	  - CREATE TABLE content (...)
//	catalog: |
//	  tables: content: ordering_filter: "catid"
//	seed:
//	  - INSERT INTO content (id, title) VALUES (1, 'Hello')
//	sessions: [7]
//	flow:
//	  - op: checkout
//	    type: content
//	    key: { id: 1 }
//	    actor: 5
//	    expect:
//	      ok: true
//	      fields: { checked_out: 5 }
//	assertions:
//	  - type: final_state
//	    table: content
//	    where: { id: 1 }
//	    expect: { checked_out: 5 }
//	  - type: row_count
//	    table: content
//	    count: 1
//
// When a step names a key, the row is loaded before the operation runs and
// the operation then acts on the loaded record. Listing actors under
// sessions enables the SQL session probe with those actors active.
//
// # Golden Files
//
// RunWithGolden snapshots the step trace and final table contents under
// testdata/golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
