package querysql

import (
	"strings"

	"github.com/roach88/rowgate/internal/queryir"
)

// compiler accumulates parameters while rendering one statement.
// Placeholders are numbered in the order values are bound.
type compiler struct {
	dialect Dialect
	args    []any
}

func (c *compiler) bind(v any) string {
	c.args = append(c.args, v)
	return c.dialect.Placeholder(len(c.args))
}

func (c *compiler) value(a assignment) string {
	if a.expr != "" {
		return a.expr
	}
	return c.bind(a.value)
}

// predicate renders p. Callers validate the tree first.
func (c *compiler) predicate(p queryir.Predicate) string {
	switch pred := p.(type) {
	case queryir.Equals:
		return c.equals(pred)
	case *queryir.Equals:
		return c.equals(*pred)
	case queryir.Compare:
		return c.compare(pred)
	case *queryir.Compare:
		return c.compare(*pred)
	case queryir.And:
		return c.and(pred.Predicates)
	case *queryir.And:
		return c.and(pred.Predicates)
	case queryir.Or:
		return c.or(pred.Predicates)
	case *queryir.Or:
		return c.or(pred.Predicates)
	case queryir.Raw:
		return c.raw(pred)
	case *queryir.Raw:
		return c.raw(*pred)
	default:
		return "1 = 0"
	}
}

func (c *compiler) equals(eq queryir.Equals) string {
	field := c.dialect.QuoteName(eq.Field)
	if eq.Value == nil {
		return field + " IS NULL"
	}
	return field + " = " + c.bind(eq.Value)
}

func (c *compiler) compare(cmp queryir.Compare) string {
	return c.dialect.QuoteName(cmp.Field) + " " + string(cmp.Op) + " " + c.bind(cmp.Value)
}

func (c *compiler) and(preds []queryir.Predicate) string {
	if len(preds) == 0 {
		return "1 = 1"
	}
	parts := make([]string, len(preds))
	for i, p := range preds {
		parts[i] = c.nested(p)
	}
	return strings.Join(parts, " AND ")
}

func (c *compiler) or(preds []queryir.Predicate) string {
	if len(preds) == 0 {
		return "1 = 0"
	}
	parts := make([]string, len(preds))
	for i, p := range preds {
		parts[i] = c.nested(p)
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

// nested renders a sub-predicate, parenthesizing conjunctions so they
// keep their meaning inside an OR.
func (c *compiler) nested(p queryir.Predicate) string {
	switch pred := p.(type) {
	case queryir.And:
		if len(pred.Predicates) > 1 {
			return "(" + c.and(pred.Predicates) + ")"
		}
	case *queryir.And:
		if len(pred.Predicates) > 1 {
			return "(" + c.and(pred.Predicates) + ")"
		}
	}
	return c.predicate(p)
}

// raw renumbers "?" placeholders for the dialect. The fragment is not
// parsed, so a literal "?" inside a string must be passed as an argument.
func (c *compiler) raw(r queryir.Raw) string {
	var sb strings.Builder
	sb.WriteByte('(')
	argIdx := 0
	for _, ch := range r.SQL {
		if ch == '?' {
			sb.WriteString(c.bind(r.Args[argIdx]))
			argIdx++
			continue
		}
		sb.WriteRune(ch)
	}
	sb.WriteByte(')')
	return sb.String()
}
