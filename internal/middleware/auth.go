package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/lexhub/deadline-api/internal/handler"
	"github.com/lexhub/deadline-api/pkg/logger"
)

// Claims carries the tenant and user identity minted by the identity
// service. Every API request is scoped to exactly one tenant.
type Claims struct {
	TenantID string `json:"tenant_id"`
	UserID   string `json:"user_id"`
	jwt.RegisteredClaims
}

type AuthMiddleware struct {
	secret []byte
	logger *logger.Logger
}

func NewAuthMiddleware(secret string, logger *logger.Logger) *AuthMiddleware {
	return &AuthMiddleware{secret: []byte(secret), logger: logger}
}

// Authenticate validates the bearer token and propagates the tenant
// and user IDs through both the gin context and the request context.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, handler.NewErrorResponse("missing authorization header"))
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid authorization format"))
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return m.secret, nil
		})
		if err != nil || !token.Valid {
			m.logger.Security("rejected token",
				"client_ip", c.ClientIP(),
				"path", c.Request.URL.Path,
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid token"))
			return
		}

		tenantID, err := uuid.Parse(claims.TenantID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid tenant claim"))
			return
		}
		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid user claim"))
			return
		}

		c.Set("tenant_id", tenantID)
		c.Set("user_id", userID)

		// Services read the actor from the request context for audit
		// trails.
		ctx := context.WithValue(c.Request.Context(), "tenant_id", tenantID)
		ctx = context.WithValue(ctx, "user_id", userID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
