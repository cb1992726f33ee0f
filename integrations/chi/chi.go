// Package chi provides thin adapters for using error-envelope with chi router.
//
// Chi uses standard net/http handlers, so the envelope works directly.
// This package adds the trace middleware alias and envelope-shaped
// replacements for chi's plain-text 404 and 405 responses.
package chi

import (
	"net/http"

	errenvelope "github.com/blackwell-systems/error-envelope"
	"github.com/go-chi/chi/v5"
)

// Trace is a convenience wrapper around errenvelope.TraceMiddleware
// that returns a standard net/http middleware for chi.
//
// Example:
//
//	r := chi.NewRouter()
//	r.Use(chi.Trace)
func Trace(next http.Handler) http.Handler {
	return errenvelope.TraceMiddleware(next)
}

// NotFound writes a NOT_FOUND envelope for unmatched routes.
func NotFound(w http.ResponseWriter, r *http.Request) {
	errenvelope.Write(w, r, errenvelope.NotFoundf("no route for %s", r.URL.Path))
}

// MethodNotAllowed writes a METHOD_NOT_ALLOWED envelope.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	errenvelope.Write(w, r, errenvelope.MethodNotAllowed(r.Method+" not allowed"))
}

// Use installs Trace and the envelope 404/405 handlers on r.
func Use(r chi.Router) {
	r.Use(Trace)
	r.NotFound(NotFound)
	r.MethodNotAllowed(MethodNotAllowed)
}
