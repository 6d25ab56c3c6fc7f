package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/roach88/rowgate/internal/catalog"
	"github.com/roach88/rowgate/internal/logging"
	"github.com/roach88/rowgate/internal/queryir"
	"github.com/roach88/rowgate/internal/record"
	"github.com/roach88/rowgate/internal/registry"
	"github.com/roach88/rowgate/internal/schema"
	"github.com/roach88/rowgate/internal/session"
	"github.com/roach88/rowgate/internal/store"
	"github.com/roach88/rowgate/internal/testutil"
)

// Harness is the test execution engine.
// It runs scenarios with a fixed clock so traces are reproducible.
type Harness struct {
	store    *store.Store
	catalog  *catalog.Catalog
	registry *registry.Registry
	cache    *schema.Cache
	clock    *testutil.FixedClock
	sessions record.SessionProbe
	logger   *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Execution flow:
// 1. Create the schema, sessions and seed rows
// 2. Load the catalog into a registry
// 3. Execute flow steps with expect validation
// 4. Snapshot every catalogued table and evaluate assertions
//
// The returned error covers setup and database failures only. Failed
// expectations and assertions are reported in the result.
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()
	logger := logging.Discard()

	st, err := store.Open(ctx, "sqlite", ":memory:", store.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:    st,
		registry: registry.New(),
		cache:    schema.NewCache(),
		clock:    testutil.NewFixedClock(),
		logger:   logger,
	}
	if err := h.setup(ctx, scenario); err != nil {
		return nil, err
	}

	result := NewResult()
	for i, step := range scenario.Flow {
		if err := h.executeStep(ctx, i+1, step, result); err != nil {
			return nil, fmt.Errorf("flow step %d (%s %s): %w", i+1, step.Op, step.Type, err)
		}
	}

	for _, t := range h.catalog.Tables {
		if _, done := result.State[t.Table]; done {
			continue
		}
		rows, err := h.dumpTable(ctx, t)
		if err != nil {
			return nil, err
		}
		result.State[t.Table] = rows
	}

	for _, errMsg := range EvaluateAssertions(ctx, st, scenario.Assertions) {
		result.AddError(errMsg)
	}
	return result, nil
}

// setup creates the schema and sessions, seeds rows and registers the
// catalogued types.
func (h *Harness) setup(ctx context.Context, scenario *Scenario) error {
	for i, stmt := range scenario.Schema {
		if err := h.store.ExecRaw(ctx, stmt); err != nil {
			return fmt.Errorf("schema[%d]: %w", i, err)
		}
	}

	if len(scenario.Sessions) > 0 {
		if err := h.store.ExecRaw(ctx, testutil.SessionsDDL); err != nil {
			return fmt.Errorf("sessions table: %w", err)
		}
		for i, actor := range scenario.Sessions {
			if err := h.store.ExecRaw(ctx, "INSERT INTO sessions (session_id, userid) VALUES (?, ?)",
				fmt.Sprintf("s%d", i+1), actor); err != nil {
				return fmt.Errorf("sessions[%d]: %w", i, err)
			}
		}
		h.sessions = session.NewSQLProbe(h.store, "", "")
	}

	for i, stmt := range scenario.Seed {
		if err := h.store.ExecRaw(ctx, stmt); err != nil {
			return fmt.Errorf("seed[%d]: %w", i, err)
		}
	}

	cat, err := catalog.Parse(scenario.Name+".cue", []byte(scenario.Catalog))
	if err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	h.catalog = cat
	cat.Register(h.registry)
	return nil
}

// executeStep runs one step and records its outcome. Hard record errors
// are part of the outcome; other errors abort the scenario.
func (h *Harness) executeStep(ctx context.Context, n int, step Step, result *Result) error {
	def, ok := h.registry.Get(step.Type)
	if !ok {
		return fmt.Errorf("unknown record type %q", step.Type)
	}

	opts := []record.Option{
		record.WithCache(h.cache),
		record.WithClock(h.clock),
		record.WithLogger(h.logger),
	}
	if h.sessions != nil {
		opts = append(opts, record.WithSessions(h.sessions))
	}
	rec, err := def.New(ctx, h.store, opts...)
	if err != nil {
		return err
	}

	event := TraceEvent{Step: n, Op: step.Op, Type: step.Type}
	ok, err = h.apply(ctx, rec, def, step)

	var recErr *record.Error
	switch {
	case errors.As(err, &recErr):
		ok = false
		event.Error = string(recErr.Code)
	case err != nil:
		return err
	case !ok:
		event.Error = rec.LastError()
	}
	event.OK = ok
	event.Fields = rec.Fields()

	result.AddTrace(event)
	checkExpect(step, event, result)
	return nil
}

// apply loads step.Key when given, then runs the operation on the record.
func (h *Harness) apply(ctx context.Context, rec *record.Record, def registry.Definition, step Step) (bool, error) {
	if step.Op == OpLoad {
		return rec.Load(ctx, keyOf(step.Key), true)
	}
	if step.Key != nil {
		loaded, err := rec.Load(ctx, record.Key(step.Key), true)
		if err != nil || !loaded {
			return loaded, err
		}
	}

	switch step.Op {
	case OpSave:
		return rec.Save(ctx, step.Values, def.OrderingFilter)
	case OpDelete:
		return rec.Delete(ctx, nil)
	case OpCheckOut:
		return rec.CheckOut(ctx, step.Actor, nil)
	case OpCheckIn:
		return rec.CheckIn(ctx, nil)
	case OpIsCheckedOut:
		return rec.IsCheckedOut(ctx, step.Actor, nil)
	case OpHit:
		return rec.Hit(ctx, nil)
	case OpPublish:
		keys := make([]record.Key, len(step.Keys))
		for i, k := range step.Keys {
			keys[i] = record.Key(k)
		}
		return rec.Publish(ctx, keys, step.State, step.Actor)
	case OpReorder:
		return rec.Reorder(ctx, whereFilter(step.Where))
	case OpMove:
		filter := whereFilter(step.Where)
		if filter == nil && def.OrderingFilter != "" {
			v, _ := rec.Get(def.OrderingFilter)
			filter = queryir.Eq(def.OrderingFilter, v)
		}
		return rec.Move(ctx, step.Delta, filter)
	}
	return false, fmt.Errorf("unknown op %q", step.Op)
}

// keyOf keeps a missing key nil so Load falls back to the record's own key.
func keyOf(k map[string]any) any {
	if k == nil {
		return nil
	}
	return record.Key(k)
}

// whereFilter turns column equalities into a predicate, sorted by column.
func whereFilter(where map[string]any) queryir.Predicate {
	names := make([]string, 0, len(where))
	for name := range where {
		names = append(names, name)
	}
	sort.Strings(names)

	preds := make([]queryir.Predicate, 0, len(names))
	for _, name := range names {
		preds = append(preds, queryir.Eq(name, where[name]))
	}
	return queryir.AllOf(preds...)
}

// checkExpect compares a step outcome with its expect clause.
func checkExpect(step Step, event TraceEvent, result *Result) {
	wantOK := true
	if step.Expect != nil && step.Expect.OK != nil {
		wantOK = *step.Expect.OK
	}
	prefix := fmt.Sprintf("step %d (%s %s)", event.Step, step.Op, step.Type)

	if event.OK != wantOK {
		msg := fmt.Sprintf("%s: ok = %v, expected %v", prefix, event.OK, wantOK)
		if event.Error != "" {
			msg += " (error: " + event.Error + ")"
		}
		result.AddError(msg)
	}
	if step.Expect == nil {
		return
	}

	if step.Expect.Error != "" && event.Error != step.Expect.Error {
		result.AddError(fmt.Sprintf("%s: error = %q, expected %q", prefix, event.Error, step.Expect.Error))
	}

	names := make([]string, 0, len(step.Expect.Fields))
	for name := range step.Expect.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		want := step.Expect.Fields[name]
		got, ok := event.Fields[name]
		if !ok {
			result.AddError(fmt.Sprintf("%s: field %q is not a column", prefix, name))
			continue
		}
		if !stateValuesEqual(want, got) {
			result.AddError(fmt.Sprintf("%s: field %q = %v, expected %v", prefix, name, got, want))
		}
	}
}

// dumpTable reads every row of a catalogued table ordered by primary key.
func (h *Harness) dumpTable(ctx context.Context, t catalog.Table) ([]map[string]any, error) {
	q := h.store.NewQuery().Select().From(t.Table)
	for _, k := range t.Keys {
		q.OrderBy(k, false)
	}
	rows, err := h.store.LoadRows(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", t.Table, err)
	}
	if rows == nil {
		rows = []map[string]any{}
	}
	return rows, nil
}
