package errenvelope

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestWriteWithError(t *testing.T) {
	err := NotFound("user not found").WithTraceID("trace123")

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/test", nil)

	Write(w, r, err)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, w.Code)
	}

	contentType := w.Header().Get("Content-Type")
	if contentType != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", contentType)
	}

	traceID := w.Header().Get(HeaderTraceID)
	if traceID != "trace123" {
		t.Errorf("expected X-Request-Id trace123, got %s", traceID)
	}

	var response Error
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	if response.Code() != CodeNotFound {
		t.Errorf("expected code %s, got %s", CodeNotFound, response.Code())
	}
	if response.Message() != "user not found" {
		t.Errorf("expected message 'user not found', got %s", response.Message())
	}
	if response.TraceID() != "trace123" {
		t.Errorf("expected trace ID trace123, got %s", response.TraceID())
	}
}

func TestWriteWithNil(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/test", nil)

	Write(w, r, nil)

	if w.Code != http.StatusNoContent {
		t.Errorf("expected status %d, got %d", http.StatusNoContent, w.Code)
	}
	if w.Body.Len() != 0 {
		t.Error("expected empty body for nil error")
	}
}

func TestWriteWithTypedNil(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/test", nil)

	var e *Error
	Write(w, r, e)

	if w.Code != http.StatusNoContent {
		t.Errorf("expected status %d, got %d", http.StatusNoContent, w.Code)
	}
	if w.Body.Len() != 0 {
		t.Errorf("expected empty body, got %s", w.Body.String())
	}
}

func TestWriteWithGenericError(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/test", nil)

	Write(w, r, errors.New("something broke"))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
	}

	var response Error
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if response.Code() != CodeInternal {
		t.Errorf("expected code %s, got %s", CodeInternal, response.Code())
	}
	if strings.Contains(w.Body.String(), "something broke") {
		t.Error("cause text must not reach the body")
	}
}

func TestWriteWithTraceFromRequest(t *testing.T) {
	err := NotFound("not found")

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/test", nil)
	r.Header.Set(HeaderTraceID, "request-trace-123")

	Write(w, r, err)

	traceID := w.Header().Get(HeaderTraceID)
	if traceID != "request-trace-123" {
		t.Errorf("expected X-Request-Id request-trace-123, got %s", traceID)
	}

	var response Error
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if response.TraceID() != "request-trace-123" {
		t.Errorf("expected trace ID request-trace-123, got %s", response.TraceID())
	}

	// The caller's value is untouched.
	if err.TraceID() != "" {
		t.Error("Write should not mutate the error it was given")
	}
}

func TestWriteWithTraceFromContext(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/test", nil)
	r = r.WithContext(WithTraceID(r.Context(), "context-trace-456"))

	Write(w, r, NotFound("not found"))

	traceID := w.Header().Get(HeaderTraceID)
	if traceID != "context-trace-456" {
		t.Errorf("expected X-Request-Id context-trace-456, got %s", traceID)
	}
}

func TestWriteInvalidStatusFallsBack(t *testing.T) {
	for _, status := range []int{42, 1000} {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/test", nil)

		Write(w, r, Internal("error").WithStatus(status))

		if w.Code != http.StatusInternalServerError {
			t.Errorf("status %d: expected fallback %d, got %d", status, http.StatusInternalServerError, w.Code)
		}
	}
}

func TestWriteRetryAfterHeader(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{30 * time.Second, "30"},
		{1500 * time.Millisecond, "2"},
		{0, "1"},
		{200 * time.Millisecond, "1"},
		{5 * time.Minute, "300"},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/test", nil)

		Write(w, r, RateLimited("slow down").WithRetryAfter(tt.in))

		if got := w.Header().Get(HeaderRetryAfter); got != tt.want {
			t.Errorf("retry after %v: expected header %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestWriteNoRetryAfterHeader(t *testing.T) {
	w := httptest.NewRecorder()
	Write(w, httptest.NewRequest("GET", "/test", nil), RateLimited(""))

	if _, ok := w.Header()[HeaderRetryAfter]; ok {
		t.Error("Retry-After should be absent without a hint")
	}
	if w.Header().Get(HeaderTraceID) != "" {
		t.Error("X-Request-Id should be absent without a trace ID")
	}
}

func TestWriteValidationError(t *testing.T) {
	err := Validation(FieldErrors{
		"email": "invalid format",
		"age":   "must be positive",
	})

	w := httptest.NewRecorder()
	r := httptest.NewRequest("POST", "/test", nil)

	Write(w, r, err)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}

	var response Error
	if jsonErr := json.Unmarshal(w.Body.Bytes(), &response); jsonErr != nil {
		t.Fatalf("failed to unmarshal response: %v", jsonErr)
	}

	details, ok := response.Details().(map[string]any)
	if !ok {
		t.Fatal("expected details to be map")
	}
	fieldsMap, ok := details["fields"].(map[string]any)
	if !ok {
		t.Fatal("expected fields in details")
	}
	if fieldsMap["email"] != "invalid format" {
		t.Error("expected email error in fields")
	}
}

func TestWriteWithDeadlineExceeded(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/test", nil)

	Write(w, r, context.DeadlineExceeded)

	if w.Code != http.StatusGatewayTimeout {
		t.Errorf("expected status %d, got %d", http.StatusGatewayTimeout, w.Code)
	}

	var response Error
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if response.Code() != CodeTimeout {
		t.Errorf("expected code %s, got %s", CodeTimeout, response.Code())
	}
	if !response.Retryable() {
		t.Error("timeout should be retryable")
	}
}

func TestReadResponseRoundTrip(t *testing.T) {
	sent := Unavailable("maintenance").
		WithStatus(http.StatusServiceUnavailable).
		WithTraceID("trace-rt").
		WithRetryAfter(90 * time.Second).
		WithDetails(map[string]any{"window": "02:00-03:00"})

	w := httptest.NewRecorder()
	Write(w, httptest.NewRequest("GET", "/test", nil), sent)

	got, err := ReadResponse(w.Result())
	if err != nil {
		t.Fatalf("ReadResponse: %v", err)
	}
	if got.Code() != CodeUnavailable || got.Message() != "maintenance" {
		t.Errorf("unexpected envelope: %v", got)
	}
	if got.Status() != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", got.Status())
	}
	if d, ok := got.RetryAfter(); !ok || d != 90*time.Second {
		t.Errorf("expected 90s retry after, got %v", d)
	}
	if got.TraceID() != "trace-rt" {
		t.Errorf("expected trace-rt, got %s", got.TraceID())
	}
	if !got.Retryable() {
		t.Error("expected retryable")
	}
}

func TestReadResponseStatusFromLine(t *testing.T) {
	w := httptest.NewRecorder()
	Write(w, httptest.NewRequest("GET", "/test", nil), NotFound("gone fishing").WithStatus(http.StatusGone))

	got, err := ReadResponse(w.Result())
	if err != nil {
		t.Fatalf("ReadResponse: %v", err)
	}
	if got.Status() != http.StatusGone {
		t.Errorf("expected status from response line, got %d", got.Status())
	}
}

func TestReadResponseHeadersFillGaps(t *testing.T) {
	resp := &http.Response{
		StatusCode: http.StatusTooManyRequests,
		Header: http.Header{
			"Content-Type":   {"application/json; charset=utf-8"},
			HeaderRetryAfter: {"12"},
			HeaderTraceID:    {"hdr-trace"},
		},
		Body: io.NopCloser(strings.NewReader(`{"code":"RATE_LIMITED","message":"slow","retryable":true}`)),
	}

	got, err := ReadResponse(resp)
	if err != nil {
		t.Fatalf("ReadResponse: %v", err)
	}
	if d, ok := got.RetryAfter(); !ok || d != 12*time.Second {
		t.Errorf("expected 12s from header, got %v (%v)", d, ok)
	}
	if got.TraceID() != "hdr-trace" {
		t.Errorf("expected trace from header, got %s", got.TraceID())
	}
}

func TestReadResponseNotEnvelope(t *testing.T) {
	tests := []struct {
		name string
		resp *http.Response
	}{
		{"nil", nil},
		{"empty body", &http.Response{StatusCode: 500, Header: http.Header{}, Body: io.NopCloser(strings.NewReader(""))}},
		{"html", &http.Response{StatusCode: 502, Header: http.Header{"Content-Type": {"text/html"}}, Body: io.NopCloser(strings.NewReader("<h1>bad gateway</h1>"))}},
		{"garbage", &http.Response{StatusCode: 500, Header: http.Header{}, Body: io.NopCloser(strings.NewReader("{not json"))}},
		{"no code", &http.Response{StatusCode: 500, Header: http.Header{}, Body: io.NopCloser(strings.NewReader(`{"message":"x"}`))}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadResponse(tt.resp)
			if !errors.Is(err, ErrNotEnvelope) {
				t.Errorf("expected ErrNotEnvelope, got %v", err)
			}
		})
	}
}

func TestWriteRetryableFlag(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/test", nil)

	Write(w, r, RateLimited("too many requests"))

	var response Error
	if unmarshalErr := json.Unmarshal(w.Body.Bytes(), &response); unmarshalErr != nil {
		t.Fatalf("failed to unmarshal response: %v", unmarshalErr)
	}
	if !response.Retryable() {
		t.Error("rate limited should be retryable")
	}
}
