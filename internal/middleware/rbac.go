package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edupulse-api/internal/models"
	appErrors "github.com/noah-isme/edupulse-api/pkg/errors"
	"github.com/noah-isme/edupulse-api/pkg/response"
)

// RequireRoles only lets the listed roles through.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// StudentAccess guards routes keyed by the :id student parameter. Staff see
// every student, students see themselves and parents see their children.
func StudentAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if !claims.CanView(c.Param("id")) {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "not allowed to view this student"))
			c.Abort()
			return
		}
		c.Next()
	}
}
