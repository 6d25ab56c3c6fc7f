package harness

// TraceEvent is the outcome of one flow step.
type TraceEvent struct {
	Step   int            `json:"step"`
	Op     string         `json:"op"`
	Type   string         `json:"type"`
	OK     bool           `json:"ok"`
	Error  string         `json:"error,omitempty"`  // last soft error, or the code of a hard error
	Fields map[string]any `json:"fields,omitempty"` // record fields after the step
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if all expect clauses and assertions match.
	Pass bool `json:"pass"`

	// Trace contains one event per flow step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// State holds the final rows of every catalogued table, ordered by
	// primary key. Keys are table names.
	State map[string][]map[string]any `json:"state,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		State:  make(map[string][]map[string]any),
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a step outcome to the trace.
func (r *Result) AddTrace(event TraceEvent) {
	r.Trace = append(r.Trace, event)
}
