package errenvelope

import "net/http"

// Code is a stable, machine-readable error identifier.
type Code string

const (
	// Generic
	CodeInternal         Code = "INTERNAL"
	CodeBadRequest       Code = "BAD_REQUEST"
	CodeNotFound         Code = "NOT_FOUND"
	CodeMethodNotAllowed Code = "METHOD_NOT_ALLOWED"
	CodeGone             Code = "GONE"
	CodeConflict         Code = "CONFLICT"
	CodePayloadTooLarge  Code = "PAYLOAD_TOO_LARGE"
	CodeRequestTimeout   Code = "REQUEST_TIMEOUT"
	CodeRateLimited      Code = "RATE_LIMITED"
	CodeUnavailable      Code = "UNAVAILABLE"

	// Validation / auth
	CodeValidationFailed    Code = "VALIDATION_FAILED"
	CodeUnauthorized        Code = "UNAUTHORIZED"
	CodeForbidden           Code = "FORBIDDEN"
	CodeUnprocessableEntity Code = "UNPROCESSABLE_ENTITY"

	// Timeouts / cancellations
	CodeTimeout  Code = "TIMEOUT"
	CodeCanceled Code = "CANCELED"

	// Downstream
	CodeDownstream        Code = "DOWNSTREAM_ERROR"
	CodeDownstreamTimeout Code = "DOWNSTREAM_TIMEOUT"
)

// StatusClientClosedRequest is the non-standard 499 status used for
// requests the client gave up on.
const StatusClientClosedRequest = 499

type codeDefaults struct {
	status    int
	retryable bool
	message   string
}

// Entries are positional on purpose: a new code does not compile
// without all three defaults.
var registry = map[Code]codeDefaults{
	CodeInternal:         {http.StatusInternalServerError, false, "Internal error"},
	CodeBadRequest:       {http.StatusBadRequest, false, "Bad request"},
	CodeNotFound:         {http.StatusNotFound, false, "Not found"},
	CodeMethodNotAllowed: {http.StatusMethodNotAllowed, false, "Method not allowed"},
	CodeGone:             {http.StatusGone, false, "Resource no longer exists"},
	CodeConflict:         {http.StatusConflict, false, "Conflict"},
	CodePayloadTooLarge:  {http.StatusRequestEntityTooLarge, false, "Payload too large"},
	CodeRequestTimeout:   {http.StatusRequestTimeout, true, "Request timed out"},
	CodeRateLimited:      {http.StatusTooManyRequests, true, "Rate limited"},
	CodeUnavailable:      {http.StatusServiceUnavailable, true, "Service unavailable"},

	CodeValidationFailed:    {http.StatusBadRequest, false, "Invalid input"},
	CodeUnauthorized:        {http.StatusUnauthorized, false, "Unauthorized"},
	CodeForbidden:           {http.StatusForbidden, false, "Forbidden"},
	CodeUnprocessableEntity: {http.StatusUnprocessableEntity, false, "Unprocessable entity"},

	CodeTimeout:  {http.StatusGatewayTimeout, true, "Request timed out"},
	CodeCanceled: {StatusClientClosedRequest, false, "Request canceled"},

	CodeDownstream:        {http.StatusBadGateway, false, "Downstream service error"},
	CodeDownstreamTimeout: {http.StatusGatewayTimeout, true, "Request timed out"},
}

// allCodes keeps declaration order for Codes.
var allCodes = []Code{
	CodeInternal,
	CodeBadRequest,
	CodeNotFound,
	CodeMethodNotAllowed,
	CodeGone,
	CodeConflict,
	CodePayloadTooLarge,
	CodeRequestTimeout,
	CodeRateLimited,
	CodeUnavailable,
	CodeValidationFailed,
	CodeUnauthorized,
	CodeForbidden,
	CodeUnprocessableEntity,
	CodeTimeout,
	CodeCanceled,
	CodeDownstream,
	CodeDownstreamTimeout,
}

// Codes returns every known code in declaration order.
// The returned slice is a copy.
func Codes() []Code {
	out := make([]Code, len(allCodes))
	copy(out, allCodes)
	return out
}

// ParseCode looks up a code by its wire name.
func ParseCode(s string) (Code, bool) {
	c := Code(s)
	if _, ok := registry[c]; !ok {
		return "", false
	}
	return c, true
}

// Valid reports whether c belongs to the closed set of codes.
func (c Code) Valid() bool {
	_, ok := registry[c]
	return ok
}

// DefaultStatus returns the HTTP status used when none is given.
func (c Code) DefaultStatus() int {
	return c.defaults().status
}

// IsRetryableDefault reports whether errors with this code are retryable
// unless told otherwise.
func (c Code) IsRetryableDefault() bool {
	return c.defaults().retryable
}

// DefaultMessage returns the human-readable fallback message.
func (c Code) DefaultMessage() string {
	return c.defaults().message
}

func (c Code) String() string { return string(c) }

// Unknown codes fall back to the CodeInternal row.
func (c Code) defaults() codeDefaults {
	if d, ok := registry[c]; ok {
		return d
	}
	return registry[CodeInternal]
}
