package errenvelope

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	// HeaderTraceID is the standard header name for trace/request IDs.
	HeaderTraceID = "X-Request-Id"

	// HeaderRetryAfter carries the retry hint in whole seconds.
	HeaderRetryAfter = "Retry-After"
)

// ErrNotEnvelope is returned when a payload is not an error envelope.
var ErrNotEnvelope = errors.New("errenvelope: not an error envelope")

// maxEnvelopeBytes bounds how much of a response body ReadResponse reads.
const maxEnvelopeBytes = 1 << 20

// Write writes a consistent JSON error envelope to the response.
// If TraceID is missing on the error, it tries to derive it from the request.
func Write(w http.ResponseWriter, r *http.Request, err error) {
	e := From(err)
	if e == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if e.traceID == "" {
		if id := TraceIDFromRequest(r); id != "" {
			e = e.WithTraceID(id)
		}
	}

	SetHeaders(w.Header(), e)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(ResponseStatus(e))

	_ = json.NewEncoder(w).Encode(e)
}

// SetHeaders maps the transport-level fields of e onto h:
// Retry-After when a retry hint is set and X-Request-Id when a trace ID is.
func SetHeaders(h http.Header, e *Error) {
	if e == nil {
		return
	}
	if e.traceID != "" {
		h.Set(HeaderTraceID, e.traceID)
	}
	if secs, ok := RetryAfterSeconds(e); ok {
		h.Set(HeaderRetryAfter, strconv.FormatInt(secs, 10))
	}
}

// ResponseStatus returns the status line to send for e, falling back
// to 500 when the stored status is not a valid HTTP status.
func ResponseStatus(e *Error) int {
	s := e.Status()
	if s < 100 || s > 999 {
		return http.StatusInternalServerError
	}
	return s
}

// RetryAfterSeconds returns the Retry-After header value for e: the hint
// rounded up to whole seconds, never less than 1.
func RetryAfterSeconds(e *Error) (int64, bool) {
	d, ok := e.RetryAfter()
	if !ok {
		return 0, false
	}
	secs := int64(math.Ceil(d.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return secs, true
}

// ReadResponse decodes an error envelope from an HTTP response.
//
// The status and, when the body lacks them, the retry hint and trace ID
// are restored from the status line and headers. The body is read but
// not closed.
func ReadResponse(resp *http.Response) (*Error, error) {
	if resp == nil || resp.Body == nil {
		return nil, fmt.Errorf("%w: empty response", ErrNotEnvelope)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "json") {
		return nil, fmt.Errorf("%w: content type %q", ErrNotEnvelope, ct)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxEnvelopeBytes))
	if err != nil {
		return nil, fmt.Errorf("read error envelope: %w", err)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrNotEnvelope)
	}

	e := new(Error)
	if err := json.Unmarshal(body, e); err != nil {
		if errors.Is(err, ErrNotEnvelope) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrNotEnvelope, err)
	}

	e = e.WithStatus(resp.StatusCode)
	if _, ok := e.RetryAfter(); !ok {
		if v := resp.Header.Get(HeaderRetryAfter); v != "" {
			if secs, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil && secs >= 0 {
				e = e.WithRetryAfter(time.Duration(secs) * time.Second)
			}
		}
	}
	if e.traceID == "" {
		if id := resp.Header.Get(HeaderTraceID); id != "" {
			e = e.WithTraceID(id)
		}
	}
	return e, nil
}
