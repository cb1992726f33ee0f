// Package zerolog logs error envelopes as zerolog objects.
//
//	log.Error().Object("error", zerolog.Object(e)).Msg("request failed")
package zerolog

import (
	errenvelope "github.com/blackwell-systems/error-envelope"
	"github.com/rs/zerolog"
)

// Object adapts e to zerolog.LogObjectMarshaler. The keys match the
// slog group produced by (*errenvelope.Error).LogValue.
func Object(e *errenvelope.Error) zerolog.LogObjectMarshaler {
	return envelope{e}
}

// Err adds err under the "error" key: envelopes as an object, anything
// else through errenvelope.From.
func Err(ev *zerolog.Event, err error) *zerolog.Event {
	if err == nil {
		return ev
	}
	return ev.Object(zerolog.ErrorFieldName, Object(errenvelope.From(err)))
}

type envelope struct {
	e *errenvelope.Error
}

func (o envelope) MarshalZerologObject(ev *zerolog.Event) {
	e := o.e
	if e == nil {
		return
	}

	ev.Str("code", string(e.Code())).
		Str("message", e.Message()).
		Int("status", e.Status()).
		Bool("retryable", e.Retryable())

	if id := e.TraceID(); id != "" {
		ev.Str("trace_id", id)
	}
	if d, ok := e.RetryAfter(); ok {
		ev.Str("retry_after", errenvelope.FormatRetryAfter(d))
	}
	if cause, ok := e.Cause(); ok {
		ev.Str("cause", cause)
	}
	if details := e.Details(); details != nil {
		ev.Interface("details", details)
	}
}
