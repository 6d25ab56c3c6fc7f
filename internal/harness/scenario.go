package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines a record scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Schema lists DDL statements run on a fresh database.
	Schema []string `yaml:"schema"`

	// Catalog is CUE source declaring the record types.
	Catalog string `yaml:"catalog"`

	// Seed lists statements run after the schema to insert starting rows.
	Seed []string `yaml:"seed,omitempty"`

	// Sessions lists actors with an active session. A non-empty list
	// creates the sessions table and enables the session probe.
	Sessions []int64 `yaml:"sessions,omitempty"`

	// Flow contains the record operations to run, in order.
	Flow []Step `yaml:"flow"`

	// Assertions validate the final table contents.
	// Supported types: final_state, row_count
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one record operation.
type Step struct {
	// Op is one of the Op* constants.
	Op string `yaml:"op"`

	// Type is the catalogued record type.
	Type string `yaml:"type"`

	// Key identifies the row to load before the operation.
	Key map[string]any `yaml:"key,omitempty"`

	// Keys are the publish targets. Empty publishes the loaded row.
	Keys []map[string]any `yaml:"keys,omitempty"`

	// Values are bound by save.
	Values map[string]any `yaml:"values,omitempty"`

	// Where filters reorder and move by column equality.
	Where map[string]any `yaml:"where,omitempty"`

	Actor int64 `yaml:"actor,omitempty"`
	State int   `yaml:"state,omitempty"`
	Delta int   `yaml:"delta,omitempty"`

	// Expect specifies the expected outcome.
	// If nil, the step must succeed.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect specifies the expected outcome of a step.
type Expect struct {
	// OK is the expected boolean result. Defaults to true.
	OK *bool `yaml:"ok,omitempty"`

	// Error is the expected last soft error message, or the code of the
	// expected hard error.
	Error string `yaml:"error,omitempty"`

	// Fields is a subset of the record fields expected after the step.
	Fields map[string]any `yaml:"fields,omitempty"`
}

// Assertion validates final table contents.
type Assertion struct {
	// Type specifies the assertion type:
	// - "final_state": exactly one row matches Where and has the Expect values
	// - "row_count": Count rows match Where
	Type string `yaml:"type"`

	// Table is the table to query.
	Table string `yaml:"table"`

	// Where specifies query filters.
	// All fields must match exactly.
	Where map[string]any `yaml:"where,omitempty"`

	// Expect contains expected field values (used by final_state).
	// Subset match - only specified fields are validated.
	Expect map[string]any `yaml:"expect,omitempty"`

	// Count is the expected number of rows (used by row_count).
	Count int `yaml:"count,omitempty"`
}

// Step operations.
const (
	OpLoad         = "load"
	OpSave         = "save"
	OpDelete       = "delete"
	OpCheckOut     = "checkout"
	OpCheckIn      = "checkin"
	OpIsCheckedOut = "is_checked_out"
	OpPublish      = "publish"
	OpReorder      = "reorder"
	OpMove         = "move"
	OpHit          = "hit"
)

var validOps = map[string]bool{
	OpLoad: true, OpSave: true, OpDelete: true, OpCheckOut: true, OpCheckIn: true,
	OpIsCheckedOut: true, OpPublish: true, OpReorder: true, OpMove: true, OpHit: true,
}

// Assertion type constants.
const (
	AssertFinalState = "final_state"
	AssertRowCount   = "row_count"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Reject unknown fields (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Schema) == 0 {
		return fmt.Errorf("schema list is required and must be non-empty")
	}
	if s.Catalog == "" {
		return fmt.Errorf("catalog is required")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	for i, step := range s.Flow {
		if !validOps[step.Op] {
			return fmt.Errorf("flow[%d]: unknown op %q", i, step.Op)
		}
		if step.Type == "" {
			return fmt.Errorf("flow[%d]: type is required", i)
		}
	}

	for i, a := range s.Assertions {
		switch a.Type {
		case AssertFinalState, AssertRowCount:
		default:
			return fmt.Errorf("assertions[%d]: unknown type %q", i, a.Type)
		}
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required", i)
		}
	}
	return nil
}
