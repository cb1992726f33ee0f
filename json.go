package errenvelope

import (
	"encoding/json"
	"fmt"
	"time"
)

// wireError fixes the key order of the body: code, message, details,
// trace_id, retryable, retry_after.
type wireError struct {
	Code       Code   `json:"code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
	TraceID    string `json:"trace_id,omitempty"`
	Retryable  bool   `json:"retryable"`
	RetryAfter string `json:"retry_after,omitempty"`
}

// MarshalJSON renders the canonical body. Status and the raw retry-after
// duration are transport concerns and stay out of it.
func (e *Error) MarshalJSON() ([]byte, error) {
	w := wireError{
		Code:      e.code,
		Message:   e.message,
		Details:   e.details,
		TraceID:   e.traceID,
		Retryable: e.retryable,
	}
	if e.hasRetryAfter {
		w.RetryAfter = FormatRetryAfter(e.retryAfter)
	}
	return json.Marshal(w)
}

// UnmarshalJSON reads a body produced by MarshalJSON.
//
// The result is lossy: the status is reset to the code default and no
// cause is recovered. Details decode as generic JSON values.
func (e *Error) UnmarshalJSON(data []byte) error {
	var w wireError
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.Code == "" {
		return fmt.Errorf("%w: missing code", ErrNotEnvelope)
	}

	out := New(w.Code, 0, w.Message)
	out.details = w.Details
	out.traceID = w.TraceID
	out.retryable = w.Retryable
	if w.RetryAfter != "" {
		d, err := time.ParseDuration(w.RetryAfter)
		if err != nil {
			return fmt.Errorf("parse retry_after %q: %w", w.RetryAfter, err)
		}
		out.retryAfter = d
		out.hasRetryAfter = true
	}
	*e = *out
	return nil
}

// FormatRetryAfter renders d in whole seconds as "30s" below a minute
// and "1m30s" from a minute up. Fractions are truncated.
func FormatRetryAfter(d time.Duration) string {
	secs := int64(d / time.Second)
	if secs < 0 {
		secs = 0
	}
	if secs < 60 {
		return fmt.Sprintf("%ds", secs)
	}
	return fmt.Sprintf("%dm%ds", secs/60, secs%60)
}
