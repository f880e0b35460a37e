package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexhub/deadline-api/pkg/logger"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, tenantID, userID string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		TenantID: tenantID,
		UserID:   userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func setupAuthRouter(t *testing.T) (*gin.Engine, *uuid.UUID, *uuid.UUID) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logger.NewLogger(&logger.Config{
		Level:      logger.ErrorLevel,
		TimeFormat: time.RFC3339,
		Output:     io.Discard,
	})

	var gotTenant, gotUser uuid.UUID
	r := gin.New()
	r.Use(NewAuthMiddleware(testSecret, log).Authenticate())
	r.GET("/probe", func(c *gin.Context) {
		gotTenant = c.MustGet("tenant_id").(uuid.UUID)
		gotUser = c.MustGet("user_id").(uuid.UUID)
		c.Status(http.StatusOK)
	})
	return r, &gotTenant, &gotUser
}

func TestAuthenticateValidToken(t *testing.T) {
	r, gotTenant, gotUser := setupAuthRouter(t)

	tenantID := uuid.New()
	userID := uuid.New()
	token := signToken(t, testSecret, tenantID.String(), userID.String())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, tenantID, *gotTenant)
	assert.Equal(t, userID, *gotUser)
}

func TestAuthenticateRejections(t *testing.T) {
	r, _, _ := setupAuthRouter(t)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc"},
		{"garbage token", "Bearer not-a-jwt"},
		{"wrong secret", "Bearer " + signToken(t, "other-secret", uuid.NewString(), uuid.NewString())},
		{"bad tenant claim", "Bearer " + signToken(t, testSecret, "not-a-uuid", uuid.NewString())},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/probe", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			r.ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestAuthenticateExpiredToken(t *testing.T) {
	r, _, _ := setupAuthRouter(t)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		TenantID: uuid.NewString(),
		UserID:   uuid.NewString(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
