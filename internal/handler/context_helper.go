package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/classmanager/backend/internal/middleware"
	"github.com/classmanager/backend/internal/models"
)

// claimsFromContext returns the authenticated user's claims, or nil when the
// request went through without (or with an invalid) token.
func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, _ := value.(*models.JWTClaims)
	return claims
}

func isAdmin(c *gin.Context) bool {
	claims := claimsFromContext(c)
	return claims != nil && claims.Role == models.RoleAdmin
}
