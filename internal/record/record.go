package record

import (
	"context"
	"errors"
	"log/slog"

	"github.com/roach88/rowgate/internal/schema"
)

// Record is the in-memory image of one row of a table.
type Record struct {
	desc     *schema.TableDescriptor
	drv      Driver
	fields   map[string]any
	errs     []ErrorEntry
	locked   bool
	cache    *schema.Cache
	sessions SessionProbe
	clock    Clock
	checker  Checker
	logger   *slog.Logger
}

// Option configures a Record.
type Option func(*Record)

// WithCache sets the schema cache. Defaults to schema.Default.
func WithCache(c *schema.Cache) Option {
	return func(r *Record) {
		r.cache = c
	}
}

// WithSessions sets the probe used by IsCheckedOut to decide whether a
// foreign lock holder is still active.
func WithSessions(p SessionProbe) Option {
	return func(r *Record) {
		r.sessions = p
	}
}

// WithClock sets the clock used for checkout timestamps.
func WithClock(c Clock) Option {
	return func(r *Record) {
		r.clock = c
	}
}

// WithChecker sets the validation hook run by Check.
func WithChecker(c Checker) Option {
	return func(r *Record) {
		r.checker = c
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Record) {
		r.logger = l
	}
}

// New creates an empty record for table. keys lists the primary-key
// columns in order; an empty list means the single column "id".
//
// Column metadata is fetched through drv on first use of the table and
// cached. A table with no columns fails with a SCHEMA_LOOKUP *Error and a
// key that is not a column with an UNKNOWN_FIELD *Error.
func New(ctx context.Context, drv Driver, table string, keys []string, opts ...Option) (*Record, error) {
	r := &Record{
		drv:    drv,
		cache:  schema.Default,
		clock:  systemClock{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}

	desc, err := r.cache.Descriptor(ctx, drv, table, keys)
	if err != nil {
		var le *schema.LookupError
		if errors.As(err, &le) {
			return nil, &Error{
				Code:    ErrCodeSchemaLookup,
				Table:   table,
				Message: "table has no columns",
				Err:     err,
			}
		}
		var ke *schema.KeyError
		if errors.As(err, &ke) {
			return nil, &Error{
				Code:    ErrCodeUnknownField,
				Table:   table,
				Field:   ke.Column,
				Message: "primary key column does not exist",
				Err:     err,
			}
		}
		return nil, err
	}
	r.desc = desc

	r.fields = make(map[string]any, len(desc.Columns))
	for _, col := range desc.Columns {
		r.fields[col.Name] = nil
	}
	return r, nil
}

// Descriptor returns the table metadata.
func (r *Record) Descriptor() *schema.TableDescriptor {
	return r.desc
}

// Table returns the table name.
func (r *Record) Table() string {
	return r.desc.Table
}

// Get returns the current value of a field and whether it is a column.
func (r *Record) Get(name string) (any, bool) {
	v, ok := r.fields[name]
	return v, ok
}

// Set assigns a column value. Names that are not columns are rejected.
func (r *Record) Set(name string, value any) error {
	if !r.desc.HasColumn(name) {
		return r.misuse(ErrCodeUnknownField, name, "no such column")
	}
	r.fields[name] = value
	return nil
}

// Fields returns a copy of the field map.
func (r *Record) Fields() map[string]any {
	out := make(map[string]any, len(r.fields))
	for k, v := range r.fields {
		out[k] = v
	}
	return out
}

// Locked reports whether the record holds the table lock.
func (r *Record) Locked() bool {
	return r.locked
}
