package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"easynetes/internal/manager"
	"easynetes/internal/models"
	"easynetes/internal/utils"
)

// EnsureRoleContext refreshes the role from the user store so role changes
// and deletions take effect before the token expires. Tokens for deleted
// users are rejected. When no admin exists and a user named "admin" is
// authenticated, that user is promoted to prevent lockout. The returned
// middleware expects RequireAPIAuth to have set the username.
func EnsureRoleContext(users *manager.UserStore, logger *utils.Logger, contextLabel string) gin.HandlerFunc {
	return func(c *gin.Context) {
		uname := c.GetString(ContextUsername)
		u, ok := users.Get(uname)
		if !ok {
			c.AbortWithStatusJSON(models.SCodeUnauthorized.HTTP,
				models.SCodeUnauthorized.Envelope(nil, "account no longer exists"))
			return
		}
		role := string(models.RoleUser)
		if string(u.Role) != "" {
			role = string(u.Role)
		}
		if users.AdminCount() == 0 && strings.EqualFold(uname, "admin") {
			if err := users.SetRole(uname, models.RoleAdmin); err == nil {
				role = string(models.RoleAdmin)
				if strings.TrimSpace(contextLabel) == "" {
					logger.Write("No admin found; auto-promoted 'admin' to admin role.")
				} else {
					logger.Write("[" + contextLabel + "] No admin found; auto-promoted 'admin' to admin role.")
				}
			}
		}
		c.Set(ContextRole, role)
		c.Next()
	}
}
