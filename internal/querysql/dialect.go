package querysql

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect selects placeholder and identifier quoting rules.
type Dialect int

const (
	SQLite Dialect = iota
	MySQL
	Postgres
)

// String returns the dialect name as used in configuration files.
func (d Dialect) String() string {
	switch d {
	case SQLite:
		return "sqlite"
	case MySQL:
		return "mysql"
	case Postgres:
		return "postgres"
	default:
		return fmt.Sprintf("dialect(%d)", int(d))
	}
}

// ParseDialect maps a configuration name to a Dialect.
func ParseDialect(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "mysql":
		return MySQL, nil
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	default:
		return 0, fmt.Errorf("unknown dialect %q", name)
	}
}

// Placeholder returns the n-th (1-based) bind placeholder.
func (d Dialect) Placeholder(n int) string {
	if d == Postgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// QuoteName quotes an identifier. Dotted names are quoted per segment and
// "*" is left alone.
func (d Dialect) QuoteName(name string) string {
	if name == "*" {
		return name
	}
	parts := strings.Split(name, ".")
	for i, p := range parts {
		if p == "*" {
			continue
		}
		parts[i] = d.quoteSegment(p)
	}
	return strings.Join(parts, ".")
}

func (d Dialect) quoteSegment(s string) string {
	if d == MySQL {
		return "`" + strings.ReplaceAll(s, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// Quote renders a literal value as SQL text. Statements built by Builder
// never need it; it exists for diagnostics and hand-written fragments.
func (d Dialect) Quote(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case bool:
		if val {
			return "1"
		}
		return "0"
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case string:
		return quoteString(d, val)
	case []byte:
		return quoteString(d, string(val))
	default:
		return quoteString(d, fmt.Sprint(val))
	}
}

func quoteString(d Dialect, s string) string {
	s = strings.ReplaceAll(s, "'", "''")
	if d == MySQL {
		s = strings.ReplaceAll(s, `\`, `\\`)
	}
	return "'" + s + "'"
}
