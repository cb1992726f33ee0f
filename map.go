package errenvelope

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net"
	"net/http"
	"strings"
)

// FieldErrors is a simple, library-agnostic validation shape.
type FieldErrors map[string]string

// ValidationDetails holds field-level validation errors.
type ValidationDetails struct {
	Fields FieldErrors `json:"fields"`
}

// Validation creates a validation error with field-level details.
// The message is left to the code default.
func Validation(fields FieldErrors) *Error {
	owned := maps.Clone(fields)
	if owned == nil {
		owned = FieldErrors{}
	}
	return New(CodeValidationFailed, http.StatusBadRequest, "").
		WithDetails(ValidationDetails{Fields: owned}).
		WithRetryable(false)
}

// Internal creates an internal server error (500).
func Internal(msg string) *Error {
	return New(CodeInternal, http.StatusInternalServerError, msg).
		WithRetryable(false)
}

// BadRequest creates a bad request error (400).
func BadRequest(msg string) *Error {
	return New(CodeBadRequest, http.StatusBadRequest, msg).
		WithRetryable(false)
}

// Unauthorized creates an unauthorized error (401).
func Unauthorized(msg string) *Error {
	return New(CodeUnauthorized, http.StatusUnauthorized, msg).
		WithRetryable(false)
}

// Forbidden creates a forbidden error (403).
func Forbidden(msg string) *Error {
	return New(CodeForbidden, http.StatusForbidden, msg).
		WithRetryable(false)
}

// NotFound creates a not found error (404).
func NotFound(msg string) *Error {
	return New(CodeNotFound, http.StatusNotFound, msg).
		WithRetryable(false)
}

// MethodNotAllowed creates a method not allowed error (405).
func MethodNotAllowed(msg string) *Error {
	return New(CodeMethodNotAllowed, http.StatusMethodNotAllowed, msg).
		WithRetryable(false)
}

// RequestTimeout creates a request timeout error (408).
func RequestTimeout(msg string) *Error {
	return New(CodeRequestTimeout, http.StatusRequestTimeout, msg).
		WithRetryable(true)
}

// Conflict creates a conflict error (409).
func Conflict(msg string) *Error {
	return New(CodeConflict, http.StatusConflict, msg).
		WithRetryable(false)
}

// Gone creates a gone error (410).
func Gone(msg string) *Error {
	return New(CodeGone, http.StatusGone, msg).
		WithRetryable(false)
}

// PayloadTooLarge creates a payload too large error (413).
func PayloadTooLarge(msg string) *Error {
	return New(CodePayloadTooLarge, http.StatusRequestEntityTooLarge, msg).
		WithRetryable(false)
}

// UnprocessableEntity creates an unprocessable entity error (422).
func UnprocessableEntity(msg string) *Error {
	return New(CodeUnprocessableEntity, http.StatusUnprocessableEntity, msg).
		WithRetryable(false)
}

// RateLimited creates a rate limit error (429).
func RateLimited(msg string) *Error {
	return New(CodeRateLimited, http.StatusTooManyRequests, msg).
		WithRetryable(true)
}

// Canceled creates a canceled error (499).
func Canceled(msg string) *Error {
	return New(CodeCanceled, StatusClientClosedRequest, msg).
		WithRetryable(false)
}

// Timeout creates a timeout error (504).
func Timeout(msg string) *Error {
	return New(CodeTimeout, http.StatusGatewayTimeout, msg).
		WithRetryable(true)
}

// Unavailable creates an unavailable error (503).
func Unavailable(msg string) *Error {
	return New(CodeUnavailable, http.StatusServiceUnavailable, msg).
		WithRetryable(true)
}

// Downstream creates an error for downstream service failures (502).
// Downstream failures are always retryable, whatever the code default says.
func Downstream(service string, cause error) *Error {
	return downstream(CodeDownstream, http.StatusBadGateway, service, cause)
}

// DownstreamTimeout creates a timeout error for downstream services (504).
func DownstreamTimeout(service string, cause error) *Error {
	return downstream(CodeDownstreamTimeout, http.StatusGatewayTimeout, service, cause)
}

func downstream(code Code, status int, service string, cause error) *Error {
	e := Wrap(code, status, "", cause)
	if service != "" {
		e = e.WithDetails(map[string]any{"service": service})
	}
	return e.WithRetryable(true)
}

// Internalf creates an internal error with a formatted message.
func Internalf(format string, args ...any) *Error {
	return Internal(fmt.Sprintf(format, args...))
}

// BadRequestf creates a bad request error with a formatted message.
func BadRequestf(format string, args ...any) *Error {
	return BadRequest(fmt.Sprintf(format, args...))
}

// NotFoundf creates a not found error with a formatted message.
func NotFoundf(format string, args ...any) *Error {
	return NotFound(fmt.Sprintf(format, args...))
}

// Unauthorizedf creates an unauthorized error with a formatted message.
func Unauthorizedf(format string, args ...any) *Error {
	return Unauthorized(fmt.Sprintf(format, args...))
}

// Forbiddenf creates a forbidden error with a formatted message.
func Forbiddenf(format string, args ...any) *Error {
	return Forbidden(fmt.Sprintf(format, args...))
}

// Conflictf creates a conflict error with a formatted message.
func Conflictf(format string, args ...any) *Error {
	return Conflict(fmt.Sprintf(format, args...))
}

// Timeoutf creates a timeout error with a formatted message.
func Timeoutf(format string, args ...any) *Error {
	return Timeout(fmt.Sprintf(format, args...))
}

// Unavailablef creates an unavailable error with a formatted message.
func Unavailablef(format string, args ...any) *Error {
	return Unavailable(fmt.Sprintf(format, args...))
}

// From maps arbitrary errors into an *Error.
//
// Classification is best-effort. Envelopes already in the chain are
// returned as is, context and net.Error timeouts are recognized by type,
// and everything else is matched on its text: "timeout" or "timed out"
// becomes CodeTimeout, "cancel" becomes CodeCanceled, and the rest is
// wrapped as CodeInternal.
func From(err error) *Error {
	if err == nil {
		return nil
	}

	// A typed nil *Error is still nil.
	if e, ok := err.(*Error); ok && e == nil {
		return nil
	}
	if e, ok := As(err); ok {
		return e
	}

	// Context-driven
	if errors.Is(err, context.DeadlineExceeded) {
		return Timeout("")
	}
	if errors.Is(err, context.Canceled) {
		return Canceled("")
	}

	// net.Error timeouts
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return Timeout("")
	}

	text := strings.ToLower(err.Error())
	switch {
	case strings.Contains(text, "timeout"), strings.Contains(text, "timed out"):
		return Timeout("")
	case strings.Contains(text, "cancel"):
		return Canceled("")
	}

	// Default
	return Wrap(CodeInternal, http.StatusInternalServerError, "", err).
		WithRetryable(false)
}
