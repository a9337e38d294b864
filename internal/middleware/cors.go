package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"uploadgw/internal/domain"
	"uploadgw/internal/handler"
	"uploadgw/internal/logging"
)

const (
	allowMethods  = "GET, POST, OPTIONS"
	allowHeaders  = "Content-Type, Accept, Origin, X-Requested-With, X-Request-ID, " + handler.HeaderUploadSize + ", " + handler.HeaderFilename
	exposeHeaders = "X-Request-ID, Retry-After"
)

// CORS enforces the origin allow-list. A request carrying an Origin that is
// not allowed is rejected before any other processing. Requests without an
// Origin header (non-browser clients) pass through and are answered with the
// declared policy: "*" when any origin is allowed, else the first listed origin.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	allowAll := false
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}
	declared := "*"
	if !allowAll && len(allowedOrigins) > 0 {
		declared = allowedOrigins[0]
	}

	return func(c *gin.Context) {
		c.Header("Vary", "Origin")
		origin := c.GetHeader("Origin")

		if origin != "" && !allowAll && !allowed[origin] {
			logging.Ctx(c.Request.Context()).Warn().Str("origin", origin).Msg("cors: origin rejected")
			handler.AbortWithDomainError(c, domain.ErrOriginNotAllowed)
			return
		}
		if origin == "" {
			origin = declared
		}
		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", allowMethods)
		c.Header("Access-Control-Allow-Headers", allowHeaders)
		c.Header("Access-Control-Expose-Headers", exposeHeaders)
		c.Header("Access-Control-Max-Age", "86400")

		// Handle preflight request
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
