package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dnsforyou/idgw/internal/auth/jwt"
	"github.com/dnsforyou/idgw/internal/observability"
)

// claimsKey is the gin context key for validated token claims.
const claimsKey = "authClaims"

// TokenValidator validates a raw bearer token and returns its claims.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (*jwt.Claims, error)
}

// Auth returns a middleware that requires a valid bearer token. Validated
// claims are stored on the gin context for downstream handlers.
func Auth(validator TokenValidator, logger observability.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = observability.NopLogger()
	}

	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			unauthorized(c, "Missing bearer token")
			return
		}

		claims, err := validator.Validate(c.Request.Context(), token)
		if err != nil {
			logger.Debug("token rejected",
				observability.String("requestId", GetRequestID(c)),
				observability.Error(err),
			)
			unauthorized(c, "Invalid or expired token")
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// RequireRole returns a middleware that requires the authenticated subject
// to hold the given realm role. Must run after Auth.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			unauthorized(c, "Missing bearer token")
			return
		}
		if !claims.HasRole(role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"isSuccess": false,
				"message":   "Insufficient permissions",
			})
			return
		}
		c.Next()
	}
}

// GetClaims returns the validated claims for this request, or nil.
func GetClaims(c *gin.Context) *jwt.Claims {
	if v, ok := c.Get(claimsKey); ok {
		if claims, ok := v.(*jwt.Claims); ok {
			return claims
		}
	}
	return nil
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"isSuccess": false,
		"message":   message,
	})
}
