package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"scholarcrm/internal/domain"
	"scholarcrm/internal/pkg/response"
)

// RequireRole lets the request through only if the actor holds one of roles.
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok {
			response.Error(c, http.StatusUnauthorized, "UNAUTHENTICATED", "Role not found in token")
			c.Abort()
			return
		}

		if !actor.Is(roles...) {
			response.Error(c, http.StatusForbidden, "FORBIDDEN", "Access denied: insufficient permissions")
			c.Abort()
			return
		}

		c.Next()
	}
}

// AdminOnly middleware requires admin role
func AdminOnly() gin.HandlerFunc {
	return RequireRole(domain.RoleAdmin)
}

// StaffOnly admits every internal role.
func StaffOnly() gin.HandlerFunc {
	return RequireRole(domain.RoleAdmin, domain.RoleSalesManager, domain.RoleSalesTeam, domain.RoleWritingTeam)
}
