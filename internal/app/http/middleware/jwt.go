package middleware

import (
	"errors"
	"net/http"
	"strings"

	"atelier-backend/internal/auth"
	"atelier-backend/internal/domain/users"

	"github.com/gin-gonic/gin"
)

// Context keys set by the auth middleware.
const (
	CtxUser  = "user"
	CtxToken = "token"
)

func AuthMiddleware(sessions *auth.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Authorization header missing"})
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Bearer token malformed"})
			return
		}

		user, token, err := sessions.ValidateSession(tokenString, c.FullPath())
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrTokenExpired):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Token expired"})
			case errors.Is(err, auth.ErrUserNotFound), errors.Is(err, auth.ErrSessionRevoked), errors.Is(err, auth.ErrInvalidToken):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid or revoked token"})
			default:
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
			}
			return
		}

		c.Set(CtxUser, user)
		c.Set(CtxToken, token)
		c.Next()
	}
}

func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized"})
			return
		}
		if user.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "message": "Access denied"})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user stashed by AuthMiddleware, or
// nil when the request never passed through it.
func CurrentUser(c *gin.Context) *users.User {
	value, exists := c.Get(CtxUser)
	if !exists {
		return nil
	}
	user, ok := value.(*users.User)
	if !ok {
		return nil
	}
	return user
}

// CurrentToken returns the raw bearer token for the request.
func CurrentToken(c *gin.Context) string {
	return c.GetString(CtxToken)
}
