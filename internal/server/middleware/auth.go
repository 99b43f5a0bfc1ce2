package middleware

import (
	"net/http"
	"strings"

	"genielearn-backend/internal/session"

	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

// RequireAuth resolves the bearer credential through the session validator
// and stores the resulting identity on the request context.
func RequireAuth(sessions session.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization header is required"})
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			c.Abort()
			return
		}

		ident, err := sessions.Validate(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired session"})
			c.Abort()
			return
		}

		c.Set(identityKey, ident)
		c.Next()
	}
}

// Identity returns the authenticated identity set by RequireAuth.
func Identity(c *gin.Context) *session.Identity {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil
	}
	ident, _ := v.(*session.Identity)
	return ident
}
