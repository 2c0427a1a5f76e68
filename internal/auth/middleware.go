package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mookzZ/fast-websockets/internal/repository"
	"github.com/mookzZ/fast-websockets/internal/token"
)

const (
	UserIDKey     = "user_id"
	UsernameKey   = "username"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// Middleware validates bearer tokens in-process and resolves them to a
// stored user account.
type Middleware struct {
	tokens *token.Manager
	users  repository.UserRepository
}

// NewMiddleware creates a new auth middleware.
func NewMiddleware(tokens *token.Manager, users repository.UserRepository) *Middleware {
	return &Middleware{tokens: tokens, users: users}
}

// RequireAuth returns a Gin middleware that validates access tokens.
func (m *Middleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(AuthHeaderKey)
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing authorization header",
			})
			return
		}

		if !strings.HasPrefix(authHeader, BearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid authorization format",
			})
			return
		}

		raw := strings.TrimPrefix(authHeader, BearerPrefix)
		claims, err := m.tokens.Validate(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid or expired token",
			})
			return
		}

		// The token must still map to an existing account.
		user, err := m.users.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "unknown user",
			})
			return
		}

		c.Set(UserIDKey, user.ID)
		c.Set(UsernameKey, user.Username)

		c.Next()
	}
}

// GetUserID extracts the authenticated user id from the Gin context.
func GetUserID(c *gin.Context) int64 {
	if id, exists := c.Get(UserIDKey); exists {
		if v, ok := id.(int64); ok {
			return v
		}
	}
	return 0
}

// GetUsername extracts the authenticated username from the Gin context.
func GetUsername(c *gin.Context) string {
	if username, exists := c.Get(UsernameKey); exists {
		if v, ok := username.(string); ok {
			return v
		}
	}
	return ""
}
