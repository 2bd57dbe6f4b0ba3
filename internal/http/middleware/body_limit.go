package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// LimitBody caps every request body at max bytes. Reads past the cap fail with
// *http.MaxBytesError, which handlers turn into a 413.
func LimitBody(max int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if max > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, max)
		}
		c.Next()
	}
}
