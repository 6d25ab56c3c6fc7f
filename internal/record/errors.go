package record

import (
	"errors"
	"fmt"

	"github.com/roach88/rowgate/internal/schema"
)

// ErrorCode categorizes record misuse errors.
type ErrorCode string

const (
	// ErrCodeSchemaLookup indicates the driver reported no columns for the table.
	ErrCodeSchemaLookup ErrorCode = "SCHEMA_LOOKUP"

	// ErrCodeInvalidSourceType indicates a bind source that is neither a map nor a struct.
	ErrCodeInvalidSourceType ErrorCode = "INVALID_SOURCE_TYPE"

	// ErrCodeMultiKeyScalar indicates a scalar key given for a composite-key table.
	ErrCodeMultiKeyScalar ErrorCode = "MULTI_KEY_SCALAR"

	// ErrCodeUnknownField indicates a lookup field that is not a column.
	ErrCodeUnknownField ErrorCode = "UNKNOWN_FIELD"

	// ErrCodeNullPrimaryKey indicates a resolved primary-key column is nil.
	ErrCodeNullPrimaryKey ErrorCode = "NULL_PRIMARY_KEY"

	// ErrCodeUnsupportedOperation indicates an operation the table's columns cannot support.
	ErrCodeUnsupportedOperation ErrorCode = "UNSUPPORTED_OPERATION"
)

// Error is returned for programmer or schema misuse. It is never a
// transient condition; retrying the same call fails the same way.
type Error struct {
	Code    ErrorCode
	Table   string
	Field   string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Field != "" {
		msg = fmt.Sprintf("%s (table=%s, field=%s)", msg, e.Table, e.Field)
	} else if e.Table != "" {
		msg = fmt.Sprintf("%s (table=%s)", msg, e.Table)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HasCode reports whether err wraps a record *Error with the given code.
func HasCode(err error, code ErrorCode) bool {
	var re *Error
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// IsSchemaLookupError matches both *Error{Code: ErrCodeSchemaLookup} and a
// bare *schema.LookupError.
func IsSchemaLookupError(err error) bool {
	if HasCode(err, ErrCodeSchemaLookup) {
		return true
	}
	var le *schema.LookupError
	return errors.As(err, &le)
}

func IsInvalidSourceTypeError(err error) bool { return HasCode(err, ErrCodeInvalidSourceType) }
func IsMultiKeyScalarError(err error) bool    { return HasCode(err, ErrCodeMultiKeyScalar) }
func IsUnknownFieldError(err error) bool      { return HasCode(err, ErrCodeUnknownField) }
func IsNullPrimaryKeyError(err error) bool    { return HasCode(err, ErrCodeNullPrimaryKey) }
func IsUnsupportedOperationError(err error) bool {
	return HasCode(err, ErrCodeUnsupportedOperation)
}

func (r *Record) misuse(code ErrorCode, field, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Table:   r.desc.Table,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}

// ErrorEntry is one entry of a record's error log: a message, a cause, or
// both.
type ErrorEntry struct {
	Message string
	Cause   error
}

// String formats the entry for display.
func (e ErrorEntry) String() string {
	switch {
	case e.Cause == nil:
		return e.Message
	case e.Message == "":
		return e.Cause.Error()
	default:
		return e.Message + ": " + e.Cause.Error()
	}
}

// SetError appends a message to the error log.
func (r *Record) SetError(msg string) {
	r.errs = append(r.errs, ErrorEntry{Message: msg})
}

// AddError appends a structured cause to the error log.
func (r *Record) AddError(err error) {
	if err == nil {
		return
	}
	r.errs = append(r.errs, ErrorEntry{Cause: err})
}

// Errors returns a copy of the error log in append order.
func (r *Record) Errors() []ErrorEntry {
	return append([]ErrorEntry(nil), r.errs...)
}

// ErrorAt returns the formatted entry at index i. Negative indexes count
// from the end, so ErrorAt(-1) is the most recent entry.
func (r *Record) ErrorAt(i int) (string, bool) {
	if i < 0 {
		i += len(r.errs)
	}
	if i < 0 || i >= len(r.errs) {
		return "", false
	}
	return r.errs[i].String(), true
}

// LastError returns the most recent entry, or "" when the log is empty.
func (r *Record) LastError() string {
	s, _ := r.ErrorAt(-1)
	return s
}
