// Package echo provides adapters for using error-envelope with Echo framework.
package echo

import (
	"errors"
	"net/http"

	errenvelope "github.com/blackwell-systems/error-envelope"
	echofw "github.com/labstack/echo/v4"
)

// Trace adapts the envelope trace middleware to Echo's middleware interface.
//
// This generates or propagates trace IDs and makes them available via
// errenvelope.TraceIDFromRequest(c.Request()).
//
// Example:
//
//	e := echo.New()
//	e.Use(Trace)
func Trace(next echofw.HandlerFunc) echofw.HandlerFunc {
	return func(c echofw.Context) error {
		var err error
		handler := errenvelope.TraceMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c.SetRequest(r)
			err = next(c)
		}))

		handler.ServeHTTP(c.Response().Writer, c.Request())
		return err
	}
}

// Write sends a structured error response using the envelope format.
// It always returns nil so handlers can `return Write(c, err)`.
//
// Example:
//
//	e.GET("/user", func(c echo.Context) error {
//	    if userID == "" {
//	        return Write(c, errenvelope.BadRequest("Missing user ID"))
//	    }
//	    // ...
//	    return nil
//	})
func Write(c echofw.Context, err error) error {
	errenvelope.Write(c.Response(), c.Request(), err)
	return nil
}

// HTTPErrorHandler renders every error returned from a handler as an
// envelope. Echo's own *HTTPError values keep their status code.
//
//	e.HTTPErrorHandler = HTTPErrorHandler
func HTTPErrorHandler(err error, c echofw.Context) {
	if c.Response().Committed {
		return
	}
	_ = Write(c, fromEcho(err))
}

func fromEcho(err error) error {
	var he *echofw.HTTPError
	if !errors.As(err, &he) {
		return err
	}
	if e, ok := errenvelope.As(he.Internal); ok {
		return e.WithStatus(he.Code)
	}
	msg, _ := he.Message.(string)
	return errenvelope.New(codeForStatus(he.Code), he.Code, msg)
}

func codeForStatus(status int) errenvelope.Code {
	switch status {
	case http.StatusBadRequest:
		return errenvelope.CodeBadRequest
	case http.StatusUnauthorized:
		return errenvelope.CodeUnauthorized
	case http.StatusForbidden:
		return errenvelope.CodeForbidden
	case http.StatusNotFound:
		return errenvelope.CodeNotFound
	case http.StatusMethodNotAllowed:
		return errenvelope.CodeMethodNotAllowed
	case http.StatusRequestTimeout:
		return errenvelope.CodeRequestTimeout
	case http.StatusConflict:
		return errenvelope.CodeConflict
	case http.StatusGone:
		return errenvelope.CodeGone
	case http.StatusRequestEntityTooLarge:
		return errenvelope.CodePayloadTooLarge
	case http.StatusUnprocessableEntity:
		return errenvelope.CodeUnprocessableEntity
	case http.StatusTooManyRequests:
		return errenvelope.CodeRateLimited
	case http.StatusServiceUnavailable:
		return errenvelope.CodeUnavailable
	case http.StatusBadGateway:
		return errenvelope.CodeDownstream
	case http.StatusGatewayTimeout:
		return errenvelope.CodeTimeout
	default:
		return errenvelope.CodeInternal
	}
}
