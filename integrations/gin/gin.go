// Package gin provides adapters for using error-envelope with Gin framework.
package gin

import (
	"net/http"

	errenvelope "github.com/blackwell-systems/error-envelope"
	"github.com/gin-gonic/gin"
)

// Trace wires error-envelope trace ID middleware into Gin's middleware chain.
//
// This generates or propagates trace IDs and makes them available via
// errenvelope.TraceIDFromRequest(c.Request).
//
// Example:
//
//	r := gin.Default()
//	r.Use(Trace())
//	r.GET("/user", func(c *gin.Context) {
//	    traceID := errenvelope.TraceIDFromRequest(c.Request)
//	    // ...
//	})
func Trace() gin.HandlerFunc {
	return func(c *gin.Context) {
		handler := errenvelope.TraceMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c.Request = r
			c.Next()
		}))

		handler.ServeHTTP(c.Writer, c.Request)
	}
}

// Write sends a structured error response using the envelope format.
//
// Example:
//
//	r.GET("/user", func(c *gin.Context) {
//	    if userID == "" {
//	        Write(c, errenvelope.BadRequest("Missing user ID"))
//	        return
//	    }
//	    // ...
//	})
func Write(c *gin.Context, err error) {
	errenvelope.Write(c.Writer, c.Request, err)
}

// Abort writes err and stops the remaining handlers.
func Abort(c *gin.Context, err error) {
	Write(c, err)
	c.Abort()
}

// Errors renders the last error attached with c.Error when a handler
// returns without writing a response.
//
//	r.Use(Errors())
//	r.GET("/user", func(c *gin.Context) {
//	    _ = c.Error(errenvelope.NotFound("no such user"))
//	})
func Errors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		Write(c, c.Errors.Last().Err)
	}
}
