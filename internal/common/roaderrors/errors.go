// Package roaderrors contains the error types shared between the storage
// backends and the ingestion pipeline. Callers should match on these with
// errors.As, as wrapping with github.com/pkg/errors is applied at most
// boundaries.
package roaderrors

import (
	"fmt"
)

// ErrClosed is returned by any backend operation invoked after Close.
type ErrClosed struct {
	// Backend name, e.g. "postgres" or "mongo"
	Backend string
}

func (err *ErrClosed) Error() string {
	if err.Backend != "" {
		return fmt.Sprintf("backend %q is closed", err.Backend)
	}
	return "backend is closed"
}

// ErrUnsupportedScope is returned when a delete is requested for a scope the
// backend does not manage. This includes unknown scope keywords, row deletes
// naming an unmanaged table and row deletes whose id is not an integer.
type ErrUnsupportedScope struct {
	Scope   string
	Message string // An optional message to include in the error message
}

func (err *ErrUnsupportedScope) Error() (s string) {
	s = fmt.Sprintf("unsupported delete scope %q", err.Scope)
	if err.Message != "" {
		s = s + fmt.Sprintf("; %s", err.Message)
	}
	return
}

// ErrRowFormat indicates a data file row whose column count does not match
// the file's header.
type ErrRowFormat struct {
	Line     int // 1-based line number within the file, header included
	Expected int
	Actual   int
}

func (err *ErrRowFormat) Error() string {
	return fmt.Sprintf("line %d: expected %d columns but found %d", err.Line, err.Expected, err.Actual)
}

// ErrBadCell indicates a cell that could not be parsed as the target column's
// type.
type ErrBadCell struct {
	Line   int // 1-based line number within the file, header included
	Column string
	Value  string
}

func (err *ErrBadCell) Error() string {
	return fmt.Sprintf("line %d: cannot parse %q as a number for column %q", err.Line, err.Value, err.Column)
}
