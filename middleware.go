package errenvelope

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

type ctxKey string

const traceKey ctxKey = "errenvelope.trace_id"

// TraceIDFromRequest extracts the trace ID from the request header or context.
// An active OpenTelemetry span is used as a last resort.
func TraceIDFromRequest(r *http.Request) string {
	if r == nil {
		return ""
	}
	// Prefer header
	if id := r.Header.Get(HeaderTraceID); id != "" {
		return id
	}
	return GetTraceID(r.Context())
}

// GetTraceID returns the trace ID stored by WithTraceID, or the
// trace ID of the span in ctx.
func GetTraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v := ctx.Value(traceKey); v != nil {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return ""
}

// WithTraceID adds a trace ID to the context.
func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceKey, id)
}

// TraceMiddleware generates or propagates a trace ID for each request.
func TraceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := TraceIDFromRequest(r)
		if id == "" {
			id = newTraceID()
		}
		ctx := WithTraceID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func newTraceID() string {
	return uuid.NewString()
}
