package auth

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ajharbinger/cohort-matchmaker/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Constants for context keys
const (
	UserIDKey   = "user_id"
	UserRoleKey = "user_role"
	CallerKey   = "caller"
)

// Claims represents the access token claims issued by the identity provider.
// The participant's user id travels in the standard "sub" claim.
type Claims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// JWTService handles JWT token operations
type JWTService struct {
	secret []byte
}

// NewJWTService creates a new JWT service
func NewJWTService(secret string) *JWTService {
	return &JWTService{
		secret: []byte(secret),
	}
}

// GenerateToken signs a token for subject. Used for service tokens and tests;
// participant tokens come from the identity provider.
func (j *JWTService) GenerateToken(subject, email, role string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ttl)
	claims := Claims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(j.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ValidateToken validates a JWT token and returns claims
func (j *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secret, nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		// exp is optional to the parser; tokens without one are never accepted
		if claims.ExpiresAt == nil {
			return nil, fmt.Errorf("token has no expiration")
		}
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}

// Caller converts validated claims into the request principal
func (c *Claims) Caller() *models.Caller {
	return &models.Caller{
		UserID: c.Subject,
		Email:  c.Email,
		Role:   models.UserRole(c.Role),
	}
}

// JWTMiddleware validates the bearer token and stores the caller in the context
func JWTMiddleware(service *JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader || tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Bearer token required"})
			return
		}

		claims, err := service.ValidateToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		caller := claims.Caller()
		c.Set(CallerKey, caller)
		c.Set(UserIDKey, caller.UserID)
		c.Set(UserRoleKey, string(caller.Role))
		c.Next()
	}
}

// RequireRole rejects callers whose role is not listed
func RequireRole(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := CallerFromContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}
		for _, role := range roles {
			if caller.Role == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
	}
}

// CallerFromContext returns the caller stored by JWTMiddleware
func CallerFromContext(c *gin.Context) (*models.Caller, bool) {
	v, exists := c.Get(CallerKey)
	if !exists {
		return nil, false
	}
	caller, ok := v.(*models.Caller)
	return caller, ok && caller != nil
}
