package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const ContextRequestID = "request_id"

// RequestID attaches a unique id to every request, honoring an
// upstream X-Request-ID when a gateway already assigned one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(ContextRequestID, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}
