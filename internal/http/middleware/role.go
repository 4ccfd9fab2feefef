package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lumilend/backend/internal/auth"
)

// RequireRole runs after RequireAuth and admits only principals holding one
// of the given roles.
func RequireRole(allowed ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := auth.PrincipalFrom(c.Request.Context())
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		for _, role := range allowed {
			if p.Role == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden", "role": p.Role})
	}
}
