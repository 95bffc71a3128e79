package api

import (
	"net/http"

	"github.com/bitswalk/kforge/src/common/errors"
	"github.com/gin-gonic/gin"
)

// rateLimit returns middleware that allows limit requests per minute per
// client IP in the named bucket
func (a *API) rateLimit(bucket string, limit int) gin.HandlerFunc {
	return func(c *gin.Context) {
		if a.rateLimiter == nil {
			c.Next()
			return
		}
		key := bucket + ":ip:" + c.ClientIP()
		if !a.rateLimiter.Allow(key, limit) {
			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, errors.ErrRateLimited.ToResponse())
			return
		}
		c.Next()
	}
}
