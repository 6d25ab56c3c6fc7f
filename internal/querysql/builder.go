package querysql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/rowgate/internal/queryir"
)

type statementKind int

const (
	kindNone statementKind = iota
	kindSelect
	kindInsert
	kindUpdate
	kindDelete
)

type assignment struct {
	column string
	value  any
	expr   string // raw SQL expression; used instead of value when non-empty
}

type orderTerm struct {
	column string
	desc   bool
}

// Builder composes a single parameterized statement.
//
// Builder methods return the receiver so calls chain. Multiple Where calls
// combine with AND. Build compiles the statement; values always travel as
// parameters and identifiers are quoted for the builder's dialect.
//
//	sql, args, err := querysql.New(querysql.SQLite).
//		Select("id", "ordering").
//		From("content").
//		Where(queryir.Compare{Field: "ordering", Op: queryir.OpGreaterEqual, Value: 0}).
//		OrderBy("ordering", false).
//		Build()
type Builder struct {
	dialect   Dialect
	kind      statementKind
	table     string
	columns   []string // already rendered select terms
	sets      []assignment
	where     []queryir.Predicate
	order     []orderTerm
	limit     int
	returning string
}

// New returns an empty builder for the given dialect.
func New(d Dialect) *Builder {
	return &Builder{dialect: d}
}

// Dialect returns the builder's dialect.
func (b *Builder) Dialect() Dialect {
	return b.dialect
}

// Select starts a SELECT of the given columns. No columns means "*".
func (b *Builder) Select(columns ...string) *Builder {
	b.kind = kindSelect
	for _, c := range columns {
		b.columns = append(b.columns, b.dialect.QuoteName(c))
	}
	return b
}

// SelectExpr adds a raw select term such as "COUNT(*)".
func (b *Builder) SelectExpr(expr string) *Builder {
	b.kind = kindSelect
	b.columns = append(b.columns, expr)
	return b
}

// From sets the table of a SELECT.
func (b *Builder) From(table string) *Builder {
	b.table = table
	return b
}

// Insert starts an INSERT into table. Columns come from Set.
func (b *Builder) Insert(table string) *Builder {
	b.kind = kindInsert
	b.table = table
	return b
}

// Update starts an UPDATE of table.
func (b *Builder) Update(table string) *Builder {
	b.kind = kindUpdate
	b.table = table
	return b
}

// DeleteFrom starts a DELETE from table.
func (b *Builder) DeleteFrom(table string) *Builder {
	b.kind = kindDelete
	b.table = table
	return b
}

// Set assigns a parameterized value to column (UPDATE and INSERT).
func (b *Builder) Set(column string, value any) *Builder {
	b.sets = append(b.sets, assignment{column: column, value: value})
	return b
}

// SetExpr assigns a raw SQL expression to column, e.g. SetExpr("hits", `"hits" + 1`).
func (b *Builder) SetExpr(column, expr string) *Builder {
	b.sets = append(b.sets, assignment{column: column, expr: expr})
	return b
}

// Where adds a condition. Nil predicates are ignored.
func (b *Builder) Where(p queryir.Predicate) *Builder {
	if p != nil {
		b.where = append(b.where, p)
	}
	return b
}

// OrderBy appends a sort term.
func (b *Builder) OrderBy(column string, desc bool) *Builder {
	b.order = append(b.order, orderTerm{column: column, desc: desc})
	return b
}

// Limit caps the number of rows a SELECT returns. Zero means no limit.
func (b *Builder) Limit(n int) *Builder {
	b.limit = n
	return b
}

// Returning requests a RETURNING clause on INSERT (Postgres only).
func (b *Builder) Returning(column string) *Builder {
	b.returning = column
	return b
}

// Build compiles the statement to SQL text and its parameters.
func (b *Builder) Build() (string, []any, error) {
	if b.table == "" {
		return "", nil, fmt.Errorf("build query: no table")
	}
	for _, p := range b.where {
		if err := queryir.Validate(p); err != nil {
			return "", nil, fmt.Errorf("build query: %w", err)
		}
	}

	c := &compiler{dialect: b.dialect}
	var sql string

	switch b.kind {
	case kindSelect:
		sql = b.buildSelect(c)
	case kindInsert:
		sql = b.buildInsert(c)
	case kindUpdate:
		if len(b.sets) == 0 {
			return "", nil, fmt.Errorf("build query: update of %s without assignments", b.table)
		}
		sql = b.buildUpdate(c)
	case kindDelete:
		sql = "DELETE FROM " + b.dialect.QuoteName(b.table) + b.buildWhere(c)
	default:
		return "", nil, fmt.Errorf("build query: statement kind not set")
	}

	return sql, c.args, nil
}

func (b *Builder) buildSelect(c *compiler) string {
	cols := "*"
	if len(b.columns) > 0 {
		cols = strings.Join(b.columns, ", ")
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(cols)
	sb.WriteString(" FROM ")
	sb.WriteString(b.dialect.QuoteName(b.table))
	sb.WriteString(b.buildWhere(c))

	if len(b.order) > 0 {
		terms := make([]string, len(b.order))
		for i, o := range b.order {
			dir := "ASC"
			if o.desc {
				dir = "DESC"
			}
			terms[i] = b.dialect.QuoteName(o.column) + " " + dir
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(terms, ", "))
	}
	if b.limit > 0 {
		sb.WriteString(" LIMIT ")
		sb.WriteString(strconv.Itoa(b.limit))
	}
	return sb.String()
}

func (b *Builder) buildInsert(c *compiler) string {
	table := b.dialect.QuoteName(b.table)
	var sql string
	if len(b.sets) == 0 {
		if b.dialect == MySQL {
			sql = "INSERT INTO " + table + " () VALUES ()"
		} else {
			sql = "INSERT INTO " + table + " DEFAULT VALUES"
		}
	} else {
		cols := make([]string, len(b.sets))
		vals := make([]string, len(b.sets))
		for i, a := range b.sets {
			cols[i] = b.dialect.QuoteName(a.column)
			vals[i] = c.value(a)
		}
		sql = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			table, strings.Join(cols, ", "), strings.Join(vals, ", "))
	}
	if b.returning != "" && b.dialect == Postgres {
		sql += " RETURNING " + b.dialect.QuoteName(b.returning)
	}
	return sql
}

func (b *Builder) buildUpdate(c *compiler) string {
	sets := make([]string, len(b.sets))
	for i, a := range b.sets {
		sets[i] = b.dialect.QuoteName(a.column) + " = " + c.value(a)
	}
	return "UPDATE " + b.dialect.QuoteName(b.table) +
		" SET " + strings.Join(sets, ", ") +
		b.buildWhere(c)
}

func (b *Builder) buildWhere(c *compiler) string {
	if len(b.where) == 0 {
		return ""
	}
	var pred queryir.Predicate = b.where[0]
	if len(b.where) > 1 {
		pred = queryir.And{Predicates: b.where}
	}
	return " WHERE " + c.predicate(pred)
}

// String renders the statement for logs. Build errors are rendered inline.
func (b *Builder) String() string {
	sql, args, err := b.Build()
	if err != nil {
		return "<" + err.Error() + ">"
	}
	if len(args) == 0 {
		return sql
	}
	return fmt.Sprintf("%s %v", sql, args)
}
