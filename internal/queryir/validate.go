package queryir

import (
	"fmt"
	"strings"
)

// ValidationError describes why a predicate cannot be compiled.
type ValidationError struct {
	Path    string // Location in the predicate tree, e.g. "and[1].or[0]"
	Message string
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return "invalid predicate: " + e.Message
	}
	return fmt.Sprintf("invalid predicate at %s: %s", e.Path, e.Message)
}

// Validate checks that a predicate tree can be compiled.
//
// Rules:
//  1. Field names are non-empty
//  2. Compare uses a supported operator
//  3. Raw fragments are non-empty and carry one argument per placeholder
//
// A nil predicate is valid (no filter). Validate is a pure function.
func Validate(p Predicate) error {
	return validate(p, "")
}

func validate(p Predicate, path string) error {
	if p == nil {
		return nil
	}

	switch pred := p.(type) {
	case Equals:
		return validateField(pred.Field, path)
	case *Equals:
		return validateField(pred.Field, path)
	case Compare:
		return validateCompare(pred, path)
	case *Compare:
		return validateCompare(*pred, path)
	case And:
		return validateAll(pred.Predicates, join(path, "and"))
	case *And:
		return validateAll(pred.Predicates, join(path, "and"))
	case Or:
		return validateAll(pred.Predicates, join(path, "or"))
	case *Or:
		return validateAll(pred.Predicates, join(path, "or"))
	case Raw:
		return validateRaw(pred, path)
	case *Raw:
		return validateRaw(*pred, path)
	default:
		return &ValidationError{Path: path, Message: fmt.Sprintf("unsupported predicate type %T", p)}
	}
}

func validateField(field, path string) error {
	if strings.TrimSpace(field) == "" {
		return &ValidationError{Path: path, Message: "empty field name"}
	}
	return nil
}

func validateCompare(c Compare, path string) error {
	if err := validateField(c.Field, path); err != nil {
		return err
	}
	if !c.Op.Valid() {
		return &ValidationError{Path: path, Message: fmt.Sprintf("unsupported operator %q", c.Op)}
	}
	return nil
}

func validateAll(preds []Predicate, path string) error {
	for i, sub := range preds {
		if err := validate(sub, fmt.Sprintf("%s[%d]", path, i)); err != nil {
			return err
		}
	}
	return nil
}

func validateRaw(r Raw, path string) error {
	if strings.TrimSpace(r.SQL) == "" {
		return &ValidationError{Path: path, Message: "empty raw fragment"}
	}
	if n := strings.Count(r.SQL, "?"); n != len(r.Args) {
		return &ValidationError{
			Path:    path,
			Message: fmt.Sprintf("raw fragment has %d placeholders but %d args", n, len(r.Args)),
		}
	}
	return nil
}

func join(path, seg string) string {
	if path == "" {
		return seg
	}
	return path + "." + seg
}
