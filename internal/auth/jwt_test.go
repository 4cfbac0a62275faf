package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ajharbinger/cohort-matchmaker/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-with-enough-entropy"

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService(testSecret)

	token, expiresAt, err := svc.GenerateToken("9b2f6c1e-2f1a-4d55-9a7e-0c7c1f3b8a10", "ada@example.com", "authenticated", time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "9b2f6c1e-2f1a-4d55-9a7e-0c7c1f3b8a10", claims.Subject)
	assert.Equal(t, "ada@example.com", claims.Email)

	caller := claims.Caller()
	assert.Equal(t, models.RoleAuthenticated, caller.Role)
	assert.False(t, caller.CanGenerate())
}

func TestJWTService_Rejects(t *testing.T) {
	svc := NewJWTService(testSecret)

	t.Run("wrong secret", func(t *testing.T) {
		token, _, err := NewJWTService("other-secret").GenerateToken("u", "", "admin", time.Hour)
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		token, _, err := svc.GenerateToken("u", "", "admin", -time.Minute)
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("no expiry", func(t *testing.T) {
		claims := Claims{Role: "admin", RegisteredClaims: jwt.RegisteredClaims{
			Subject:  "svc",
			IssuedAt: jwt.NewNumericDate(time.Now()),
		}}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.EqualError(t, err, "token has no expiration")
	})

	t.Run("unsigned", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Role: "admin"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.Error(t, err)
	})
}

func TestJWTMiddlewareAndRequireRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := NewJWTService(testSecret)

	router := gin.New()
	router.Use(JWTMiddleware(svc))
	router.GET("/me", func(c *gin.Context) {
		caller, ok := CallerFromContext(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"user_id": caller.UserID})
	})
	router.POST("/generate", RequireRole(models.RoleServiceRole, models.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	userToken, _, err := svc.GenerateToken("user-1", "", "authenticated", time.Hour)
	require.NoError(t, err)
	serviceToken, _, err := svc.GenerateToken("svc", "", "service_role", time.Hour)
	require.NoError(t, err)
	neverExpires, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role:             "service_role",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "svc"},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name   string
		method string
		path   string
		header string
		status int
	}{
		{"missing header", http.MethodGet, "/me", "", http.StatusUnauthorized},
		{"not bearer", http.MethodGet, "/me", "Basic abc", http.StatusUnauthorized},
		{"garbage token", http.MethodGet, "/me", "Bearer abc.def.ghi", http.StatusUnauthorized},
		{"valid user", http.MethodGet, "/me", "Bearer " + userToken, http.StatusOK},
		{"user cannot generate", http.MethodPost, "/generate", "Bearer " + userToken, http.StatusForbidden},
		{"service can generate", http.MethodPost, "/generate", "Bearer " + serviceToken, http.StatusNoContent},
		{"token without exp", http.MethodPost, "/generate", "Bearer " + neverExpires, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestRequireRole_WithoutCaller(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/admin", RequireRole(models.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
