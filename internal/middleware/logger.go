package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"uploadgw/internal/handler"
	"uploadgw/internal/logging"
)

// ContextKeyRequestID is the gin context key holding the correlation id.
const ContextKeyRequestID = "request_id"

// RequestID injects an X-Request-ID header into the request and response and
// attaches a request-scoped logger to the request context.
func RequestID(base zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set(ContextKeyRequestID, requestID)
		c.Header("X-Request-ID", requestID)

		reqLog := base.With().Str("request_id", requestID).Logger()
		c.Request = c.Request.WithContext(logging.WithLogger(c.Request.Context(), &reqLog))
		c.Next()
	}
}

// Logger logs each HTTP request with method, path, status, and latency.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logging.Ctx(c.Request.Context()).Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}

// Recovery recovers from panics and answers with the error envelope.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		handler.AbortWithDomainError(c, fmt.Errorf("recovered from panic: %v", recovered))
	})
}
