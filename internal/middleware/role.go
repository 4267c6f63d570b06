package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stitchworks/internal/pkg/response"
)

// AdminOnly allows only admin and super_admin roles through.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("role")
		if !exists {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Role not found in token")
			c.Abort()
			return
		}

		if r, _ := role.(string); r != "admin" && r != "super_admin" {
			response.Error(c, http.StatusForbidden, "FORBIDDEN", "Admin access required")
			c.Abort()
			return
		}

		c.Next()
	}
}
