// Package diag defines the structured error taxonomy surfaced at the
// retrieval boundary.
package diag

import (
	"errors"
	"strings"
)

// Error is the paperlake error domain type.
//
// Errors coming from paperlake components should be inspectable as
// ([errors.As]) an *Error at some point in the error chain. Components
// create an Error at the system boundary (a failed lookup, a missing
// archive, a closed database) and intermediate layers should prefer
// [fmt.Errorf] with a "%w" verb over wrapping in another Error.
type Error struct {
	Inner   error
	Kind    Kind
	Message string
	Op      string
}

var (
	_ error                       = (*Error)(nil)
	_ interface{ Is(error) bool } = (*Error)(nil)
	_ interface{ Unwrap() error } = (*Error)(nil)
)

// Error implements error.
func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(" ")
	}
	b.WriteString("[")
	switch e.Kind {
	case ErrNotFound, ErrVersionNotFound, ErrFormatUnavailable,
		ErrArchiveMissing, ErrPermissionDenied, ErrEmptyDatabase,
		ErrDatabaseError, ErrSystemError:
		b.WriteString(string(e.Kind))
	default:
		b.WriteString("???")
	}
	b.WriteString("]: ")
	if e.Message != "" {
		b.WriteString(e.Message)
	}
	if e.Message != "" && e.Inner != nil {
		b.WriteString(": ")
	}
	if e.Op == "" && e.Message == "" {
		b.Reset()
	}
	if e.Inner != nil {
		b.WriteString(e.Inner.Error())
	}
	return b.String()
}

// Is enables [errors.Is] against a declared [Kind].
func (e *Error) Is(kind error) bool {
	return errors.Is(e.Kind, kind)
}

// Unwrap enables [errors.Unwrap].
func (e *Error) Unwrap() error {
	return e.Inner
}

// Kind represents a class of retrieval-boundary error.
//
// This is the taxonomy from the component design: callers should
// compare against one of the declared Kind values, never against a
// specific *Error.
type Kind string

// Defined error kinds.
var (
	ErrEmptyDatabase     = Kind("empty_database")
	ErrNotFound          = Kind("not_found")
	ErrVersionNotFound   = Kind("version_not_found")
	ErrFormatUnavailable = Kind("format_unavailable")
	ErrArchiveMissing    = Kind("archive_missing")
	ErrPermissionDenied  = Kind("permission_denied")
	ErrDatabaseError     = Kind("database_error")
	ErrSystemError       = Kind("system_error")
)

// Error implements error.
func (k Kind) Error() string { return string(k) }
