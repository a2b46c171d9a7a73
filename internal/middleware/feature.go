package middleware

import (
	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/edupulse-api/pkg/errors"
	"github.com/noah-isme/edupulse-api/pkg/response"
)

// FeatureFlag hides a route group when the feature is switched off.
func FeatureFlag(enabled bool, name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enabled {
			response.Error(c, appErrors.Clone(appErrors.ErrFeatureDisabled, name+" is disabled"))
			c.Abort()
			return
		}
		c.Next()
	}
}
