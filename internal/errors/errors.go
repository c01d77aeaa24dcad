// Package errors provides error wrapping helpers used consistently across
// cartgraph so that every error that crosses a package boundary carries a
// stack trace back to where it originated.
package errors

import (
	"errors"
	"fmt"
	"runtime/debug"
)

// Is, As, and Unwrap are re-exported so callers never need to import the
// standard errors package alongside this one.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
)

// stackError decorates an error with the stack captured at the point it was
// first wrapped. Wrapping the same error twice is a no-op.
type stackError struct {
	underlying error
	stack      []byte
}

func (e *stackError) Error() string {
	return e.underlying.Error()
}

func (e *stackError) Unwrap() error {
	return e.underlying
}

// Stack returns the stack trace captured when the error was wrapped.
func (e *stackError) Stack() []byte {
	return e.stack
}

// WithStackTrace wraps err with the current stack trace, unless it already
// carries one. Returns nil if err is nil.
func WithStackTrace(err error) error {
	if err == nil {
		return nil
	}

	var existing *stackError
	if errors.As(err, &existing) {
		return err
	}

	return &stackError{underlying: err, stack: captureStack()}
}

// New creates a new stack-traced error from a message or an existing error.
func New(val any) error {
	switch v := val.(type) {
	case error:
		return WithStackTrace(v)
	case string:
		return WithStackTrace(errors.New(v))
	default:
		return WithStackTrace(fmt.Errorf("%v", v))
	}
}

// Errorf formats according to a format specifier, wraps the result with a
// stack trace, and supports %w the same way fmt.Errorf does.
func Errorf(format string, args ...any) error {
	return WithStackTrace(fmt.Errorf(format, args...))
}

// IsError returns true if actual is, or wraps, expected.
func IsError(actual error, expected error) bool {
	return errors.Is(actual, expected)
}

func captureStack() []byte {
	return debug.Stack()
}
