package middleware

import (
	"math"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"uploadgw/internal/config"
	"uploadgw/internal/domain"
	"uploadgw/internal/handler"
)

// Throttle applies a process-wide token bucket. Rejected requests get 429 and
// a Retry-After hint; nothing is queued server-side.
func Throttle(cfg config.ThrottleConfig) gin.HandlerFunc {
	if !cfg.Enabled() {
		return func(c *gin.Context) { c.Next() }
	}
	limiter := rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst)

	return func(c *gin.Context) {
		if limiter.Allow() {
			c.Next()
			return
		}

		r := limiter.Reserve()
		delay := r.Delay()
		r.Cancel()

		handler.SetRetryAfter(c, int(math.Ceil(delay.Seconds())))
		handler.AbortWithDomainError(c, domain.ErrThrottled)
	}
}
