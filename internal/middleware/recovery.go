package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/lexhub/deadline-api/internal/handler"
	"github.com/lexhub/deadline-api/pkg/logger"
)

// Recovery converts panics into 500 responses instead of dropped
// connections.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.ZL.Error().
					Interface("panic", r).
					Str("stack", string(debug.Stack())).
					Str("method", c.Request.Method).
					Str("path", c.Request.URL.Path).
					Str("request_id", c.GetString(ContextRequestID)).
					Msg("request panic recovered")

				c.AbortWithStatusJSON(http.StatusInternalServerError,
					handler.NewErrorResponse("internal server error"))
			}
		}()
		c.Next()
	}
}
