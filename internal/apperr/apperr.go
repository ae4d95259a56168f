// Package apperr defines the error template type shared across steadfast
package apperr

import (
	"fmt"
)

// Error is an application error template. Package-level templates are
// declared once and specialised with Fmt or Wrap; the derived errors still
// match the template with errors.Is.
type Error struct {
	Message string
	Cause   error
	base    *Error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}

	return e.Message
}

// Unwrap returns the wrapped cause (if any).
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is this error or the template it was derived
// from.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return e == t || (e.base != nil && e.base == t)
}

// Fmt returns a copy of the error with its message formatted using args.
func (e *Error) Fmt(args ...any) *Error {
	return &Error{
		Message: fmt.Sprintf(e.Message, args...),
		Cause:   e.Cause,
		base:    e.root(),
	}
}

// Wrap returns a copy of the error that wraps err.
func (e *Error) Wrap(err error) *Error {
	return &Error{
		Message: e.Message,
		Cause:   err,
		base:    e.root(),
	}
}

func (e *Error) root() *Error {
	if e.base != nil {
		return e.base
	}

	return e
}
