package errenvelope

import "log/slog"

// LogValue implements slog.LogValuer so an *Error logs as a group.
func (e *Error) LogValue() slog.Value {
	if e == nil {
		return slog.GroupValue()
	}

	attrs := []slog.Attr{
		slog.String("code", string(e.code)),
		slog.String("message", e.message),
		slog.Int("status", e.status),
		slog.Bool("retryable", e.retryable),
	}
	if e.traceID != "" {
		attrs = append(attrs, slog.String("trace_id", e.traceID))
	}
	if e.hasRetryAfter {
		attrs = append(attrs, slog.String("retry_after", FormatRetryAfter(e.retryAfter)))
	}
	if e.hasCause {
		attrs = append(attrs, slog.String("cause", e.cause))
	}
	if e.details != nil {
		attrs = append(attrs, slog.Any("details", e.details))
	}
	return slog.GroupValue(attrs...)
}
