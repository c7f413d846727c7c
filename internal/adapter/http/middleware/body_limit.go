package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// DefaultMaxBodyBytes bounds a calculate request at roughly ten thousand raw records.
const DefaultMaxBodyBytes = 4 << 20

// MaxBodySize limits the request body. Reads past maxBytes fail with
// *http.MaxBytesError, which handlers report as 413.
func MaxBodySize(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
