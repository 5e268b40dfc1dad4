// Package errors augments the standard errors with sentinel values
// that can carry a cause.
//
// A sentinel is declared once with New and decorated at the failure site with
// Wrap. The decorated copy still matches the sentinel with errors.Is, and its
// cause remains reachable through Unwrap.
package errors

import (
	stderr "errors"
	"fmt"
)

var _ error = New("")

// New sentinel error
func New(msg string) *Error {
	e := &Error{msg: msg}
	e.kind = e
	return e
}

// Error is a sentinel error that may wrap a cause.
//
// Unlike github.com/pkg/errors, wrapping never mutates the sentinel: Wrap
// returns a new value bound to the same kind.
type Error struct {
	msg  string
	err  error
	kind *Error
}

// Error message, followed by the cause if any
func (e *Error) Error() string {
	if e.err == nil {
		return e.msg
	}
	return e.msg + ": " + e.err.Error()
}

// Unwrap nested error
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.err
}

// Wrap a nested error
func (e *Error) Wrap(err error) *Error {
	return &Error{msg: e.msg, err: err, kind: e.kind}
}

// Wrapf wraps a formatted message as the cause
func (e *Error) Wrapf(format string, args ...interface{}) *Error {
	return e.Wrap(fmt.Errorf(format, args...))
}

// Is of some error kind?
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.kind == t.kind
}

// As finds the first error in err's chain that matches target, and if so, sets target to that error value and returns true.
// (a shortcut to standard lib errors.As)
func As(err error, target interface{}) bool {
	return stderr.As(err, target)
}

// Is reports whether any error in err's chain matches target
// (a shortcut to standard lib errors.Is)
func Is(err, target error) bool {
	return stderr.Is(err, target)
}
