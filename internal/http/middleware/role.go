package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Context keys set by RequireAuth.
const (
	ContextUserID = "user_id"
	ContextRole   = "user_role"
)

// RequireRole must run after RequireAuth.
func RequireRole(allowed ...string) gin.HandlerFunc {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := allowedSet[c.GetString(ContextRole)]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}
