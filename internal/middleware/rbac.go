package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/classmanager/backend/internal/models"
	appErrors "github.com/classmanager/backend/pkg/errors"
	"github.com/classmanager/backend/pkg/response"
)

// SelfRole is a pseudo-role accepted by RBAC: it lets a request through when
// the :id path parameter matches the caller's own user ID, regardless of role.
const SelfRole = "SELF"

// RBAC enforces role-based access control for routes. Entries are role names
// plus the optional SelfRole pseudo-role.
func RBAC(allowed ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := currentClaims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		for _, entry := range allowed {
			if entry == SelfRole {
				if targetID := c.Param("id"); targetID != "" && targetID == claims.UserID {
					c.Next()
					return
				}
				continue
			}
			if models.UserRole(entry) == claims.Role {
				c.Next()
				return
			}
		}

		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}

// RequireRoles is RBAC with typed roles and no self-access escape hatch.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make([]string, len(roles))
	for i, r := range roles {
		allowed[i] = string(r)
	}
	return RBAC(allowed...)
}

func currentClaims(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}
