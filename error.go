// Package errenvelope provides a tiny, framework-agnostic
// server-side HTTP error envelope for Go services.
// It standardizes code/message/details/trace_id/retryable/retry_after
// and includes helpers for validation, auth, timeouts,
// and downstream errors.
//
// An *Error is immutable once built: every With* method returns a
// modified copy, so a value can be shared across goroutines freely.
package errenvelope

import (
	"errors"
	"fmt"
	"maps"
	"time"
)

// Error is a structured error envelope for HTTP APIs.
type Error struct {
	code      Code
	message   string
	details   any
	traceID   string
	retryable bool

	// Not serialized in the body:
	status        int
	retryAfter    time.Duration
	hasRetryAfter bool

	// Only the rendered text of the cause is kept.
	cause    string
	hasCause bool
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.hasCause {
		return fmt.Sprintf("%s: %s (%s)", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

// New creates a new Error with the given code, HTTP status, and message.
// If status is 0, the code's default status is used. If message is empty,
// the code's default message is used.
func New(code Code, status int, msg string) *Error {
	if status <= 0 {
		status = code.DefaultStatus()
	}
	if msg == "" {
		msg = code.DefaultMessage()
	}
	return &Error{
		code:      code,
		message:   msg,
		status:    status,
		retryable: code.IsRetryableDefault(),
	}
}

// Newf creates a new Error with a formatted message.
func Newf(code Code, status int, format string, args ...any) *Error {
	return New(code, status, fmt.Sprintf(format, args...))
}

// Wrap creates a new Error that records the text of an underlying cause.
// The cause itself is not retained, so the result does not unwrap to it.
func Wrap(code Code, status int, msg string, cause error) *Error {
	e := New(code, status, msg)
	if cause != nil {
		e.cause = cause.Error()
		e.hasCause = true
	}
	return e
}

// Wrapf is Wrap with a formatted message.
func Wrapf(code Code, status int, format string, cause error, args ...any) *Error {
	return Wrap(code, status, fmt.Sprintf(format, args...), cause)
}

func (e *Error) clone() *Error {
	if e == nil {
		return New(CodeInternal, 0, "")
	}
	c := *e
	c.details = copyDetails(e.details)
	return &c
}

// WithDetails returns a copy of e carrying structured details.
// Maps, slices and ValidationDetails are copied deeply; values of any
// other type are shared and must not be mutated afterwards.
func (e *Error) WithDetails(details any) *Error {
	c := e.clone()
	c.details = copyDetails(details)
	return c
}

func copyDetails(v any) any {
	switch d := v.(type) {
	case map[string]any:
		if d == nil {
			return d
		}
		out := make(map[string]any, len(d))
		for k, val := range d {
			out[k] = copyDetails(val)
		}
		return out
	case []any:
		if d == nil {
			return d
		}
		out := make([]any, len(d))
		for i, val := range d {
			out[i] = copyDetails(val)
		}
		return out
	case map[string]string:
		return maps.Clone(d)
	case FieldErrors:
		return maps.Clone(d)
	case ValidationDetails:
		return ValidationDetails{Fields: maps.Clone(d.Fields)}
	default:
		return v
	}
}

// WithTraceID returns a copy of e carrying a trace ID.
func (e *Error) WithTraceID(id string) *Error {
	c := e.clone()
	c.traceID = id
	return c
}

// WithRetryable returns a copy of e with the retry signal set to v.
func (e *Error) WithRetryable(v bool) *Error {
	c := e.clone()
	c.retryable = v
	return c
}

// WithStatus returns a copy of e with the HTTP status overridden.
// A status of 0 leaves the current status in place.
func (e *Error) WithStatus(status int) *Error {
	c := e.clone()
	if status > 0 {
		c.status = status
	}
	return c
}

// WithRetryAfter returns a copy of e carrying a retry-after hint.
func (e *Error) WithRetryAfter(d time.Duration) *Error {
	c := e.clone()
	c.retryAfter = d
	c.hasRetryAfter = true
	return c
}

// Code returns the error code.
func (e *Error) Code() Code {
	if e == nil {
		return ""
	}
	return e.code
}

// Message returns the human-readable message.
func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

// Details returns the structured details, or nil.
func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

// TraceID returns the trace ID, or "".
func (e *Error) TraceID() string {
	if e == nil {
		return ""
	}
	return e.traceID
}

// Retryable reports whether the caller may retry the operation unchanged.
func (e *Error) Retryable() bool {
	return e != nil && e.retryable
}

// Status returns the effective HTTP status.
func (e *Error) Status() int {
	if e == nil {
		return 0
	}
	return e.status
}

// RetryAfter returns the retry-after hint and whether one was set.
func (e *Error) RetryAfter() (time.Duration, bool) {
	if e == nil {
		return 0, false
	}
	return e.retryAfter, e.hasRetryAfter
}

// Cause returns the text captured from the wrapped cause, if any.
func (e *Error) Cause() (string, bool) {
	if e == nil {
		return "", false
	}
	return e.cause, e.hasCause
}

// Is checks if an error has the given code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.code == code
	}
	return false
}

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) && e != nil {
		return e, true
	}
	return nil, false
}
