// Package requestid tags every request with an id echoed in the X-Request-ID header.
package requestid

import (
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Header carries the request id in both directions.
const Header = "X-Request-ID"

const ctxKey = "request_id"

// client supplied ids are kept only when they match this shape.
var wellFormed = regexp.MustCompile(`^[A-Za-z0-9._-]{8,64}$`)

// Middleware reuses a well formed inbound id or mints a UUID, then stores and echoes it.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(Header)
		if !wellFormed.MatchString(id) {
			id = uuid.NewString()
		}
		c.Set(ctxKey, id)
		c.Header(Header, id)
		c.Next()
	}
}

// Value returns the id assigned to c, or "" outside the middleware.
func Value(c *gin.Context) string {
	return c.GetString(ctxKey)
}
