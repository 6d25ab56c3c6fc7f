package queryir

// Predicate represents a filter condition.
//
// This is a sealed interface - only types in this package implement it.
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// Equals represents a field-equals-value predicate.
//
// Semantics:
//
//	<field> = <value>
//
// A nil Value compiles to "<field> IS NULL" so that key lookups against
// unset columns behave the way callers expect.
type Equals struct {
	Field string
	Value any
}

func (Equals) predicateNode() {}

// Op is a comparison operator usable in Compare.
type Op string

const (
	OpLess         Op = "<"
	OpLessEqual    Op = "<="
	OpGreater      Op = ">"
	OpGreaterEqual Op = ">="
	OpNotEqual     Op = "<>"
)

// Valid reports whether op is one of the supported operators.
func (op Op) Valid() bool {
	switch op {
	case OpLess, OpLessEqual, OpGreater, OpGreaterEqual, OpNotEqual:
		return true
	}
	return false
}

// Compare represents an ordered comparison between a field and a value.
//
// Example:
//
//	Compare{Field: "ordering", Op: OpGreaterEqual, Value: 0}
//
// compiles to "ordering >= ?" with a single parameter.
type Compare struct {
	Field string
	Op    Op
	Value any
}

func (Compare) predicateNode() {}

// And represents a conjunction of predicates (all must be true).
// An empty Predicates slice means "always true".
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Or represents a disjunction of predicates (at least one must be true).
// An empty Predicates slice means "always false".
//
// Used by the publish path for the lock clause:
//
//	Or{Predicates: []Predicate{
//	  Equals{Field: "checked_out", Value: 0},
//	  Equals{Field: "checked_out", Value: actorID},
//	}}
type Or struct {
	Predicates []Predicate
}

func (Or) predicateNode() {}

// Raw is a caller-supplied SQL fragment. Placeholders are written as "?"
// and are renumbered by the compiler for dialects that use $N.
// The fragment is wrapped in parentheses when compiled.
type Raw struct {
	SQL  string
	Args []any
}

func (Raw) predicateNode() {}

// Eq is shorthand for Equals{Field: field, Value: value}.
func Eq(field string, value any) Equals {
	return Equals{Field: field, Value: value}
}

// AllOf builds an And from the non-nil predicates given.
// It returns nil when no predicate remains.
func AllOf(preds ...Predicate) Predicate {
	var kept []Predicate
	for _, p := range preds {
		if p != nil {
			kept = append(kept, p)
		}
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	}
	return And{Predicates: kept}
}
