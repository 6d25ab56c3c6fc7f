package record

import (
	"context"
	"time"

	"github.com/roach88/rowgate/internal/querysql"
	"github.com/roach88/rowgate/internal/schema"
)

// Driver executes statements against the database holding the table.
//
// Implementations execute synchronously and own any I/O timeout policy.
// Errors are connection or SQL failures and are propagated by every record
// operation that issues a query.
type Driver interface {
	schema.ColumnSource

	// QuoteName quotes an identifier for the driver's dialect.
	QuoteName(name string) string

	// NewQuery returns an empty builder for the driver's dialect.
	NewQuery() *querysql.Builder

	// Execute runs a write statement and returns the affected row count.
	Execute(ctx context.Context, q *querysql.Builder) (int64, error)

	// LoadSingleRow returns the first row, or nil when there is none.
	LoadSingleRow(ctx context.Context, q *querysql.Builder) (map[string]any, error)

	// LoadRows returns all rows in result order.
	LoadRows(ctx context.Context, q *querysql.Builder) ([]map[string]any, error)

	// LoadScalar returns the first column of the first row, or nil.
	LoadScalar(ctx context.Context, q *querysql.Builder) (any, error)

	// InsertRecord inserts the non-nil fields. With a single key column
	// whose value is empty, the generated value is written back to fields.
	InsertRecord(ctx context.Context, table string, fields map[string]any, keys []string) error

	// UpdateRecord updates the non-key fields of the row matching keys.
	// Nil fields are skipped unless updateNulls is set.
	UpdateRecord(ctx context.Context, table string, fields map[string]any, keys []string, updateNulls bool) error

	// LockTable takes an exclusive advisory lock on table.
	LockTable(ctx context.Context, table string) error

	// UnlockAll releases every table lock held by the driver.
	UnlockAll(ctx context.Context) error

	// NullDate is the value stored in checked_out_time when unlocked.
	NullDate() string
}

// SessionProbe reports whether an actor currently has an active session.
type SessionProbe interface {
	Active(ctx context.Context, actorID int64) (bool, error)
}

// Clock supplies checkout timestamps.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Checker validates record data before it is stored. Implementations
// report problems with Record.SetError or Record.AddError and return false.
type Checker interface {
	Check(r *Record) bool
}

// CheckFunc adapts a function to the Checker interface.
type CheckFunc func(r *Record) bool

// Check calls f(r).
func (f CheckFunc) Check(r *Record) bool { return f(r) }

// DateTimeLayout formats checkout timestamps.
const DateTimeLayout = "2006-01-02 15:04:05"
