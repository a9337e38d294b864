package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"uploadgw/internal/domain"
	"uploadgw/internal/logging"
	"uploadgw/internal/metrics"
)

// Machine-readable error codes carried in the error envelope.
const (
	CodeMissingSizeHint         = "MISSING_SIZE_HINT"
	CodeUnsupportedContentType  = "UNSUPPORTED_CONTENT_TYPE"
	CodeDecodeFailure           = "DECODE_FAILURE"
	CodeContentValidationFailed = "CONTENT_VALIDATION_FAILED"
	CodeSizeLimitExceeded       = "SIZE_LIMIT_EXCEEDED"
	CodeInvalidSize             = "INVALID_SIZE"
	CodeInvalidExpiry           = "INVALID_EXPIRY"
	CodeInvalidParameter        = "INVALID_PARAMETER"
	CodeSigningUnavailable      = "SIGNING_UNAVAILABLE"
	CodeStoreWriteFailed        = "STORE_WRITE_FAILED"
	CodePresignFailed           = "PRESIGN_FAILED"
	CodeDeadlineApproaching     = "DEADLINE_APPROACHING"
	CodeOriginNotAllowed        = "ORIGIN_NOT_ALLOWED"
	CodeMethodNotAllowed        = "METHOD_NOT_ALLOWED"
	CodeThrottled               = "THROTTLED"
	CodeInternalError           = "INTERNAL_ERROR"
)

// ErrorBody is the uniform error envelope.
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	metrics.ObserveError(code)
	c.JSON(status, ErrorBody{Error: code, Message: msg})
}

// AbortWithDomainError sends the mapped error response and stops the handler chain.
func AbortWithDomainError(c *gin.Context, err error) {
	HandleError(c, err)
	c.Abort()
}

// MapDomainError translates domain errors to HTTP status codes and error codes.
func MapDomainError(err error) (status int, code, msg string) {
	switch {
	case errors.Is(err, domain.ErrMissingSizeHint):
		return http.StatusBadRequest, CodeMissingSizeHint, "a declared size is required when no file body is sent"
	case errors.Is(err, domain.ErrUnsupportedContentType):
		return http.StatusUnsupportedMediaType, CodeUnsupportedContentType, "unsupported content type; allowed: pdf, jpg, png"
	case errors.Is(err, domain.ErrDecodeFailure):
		return http.StatusBadRequest, CodeDecodeFailure, "request body could not be decoded"
	case errors.Is(err, domain.ErrContentValidationFailed):
		return http.StatusBadRequest, CodeContentValidationFailed, "file content does not match the declared content type"
	case errors.Is(err, domain.ErrSizeLimitExceeded):
		return http.StatusRequestEntityTooLarge, CodeSizeLimitExceeded, "file exceeds the maximum allowed size"
	case errors.Is(err, domain.ErrInvalidSize):
		return http.StatusBadRequest, CodeInvalidSize, "maxSize must be a positive number of bytes"
	case errors.Is(err, domain.ErrInvalidExpiry):
		return http.StatusBadRequest, CodeInvalidExpiry, "expirySeconds is outside the allowed range"
	case errors.Is(err, domain.ErrInvalidParameter):
		return http.StatusBadRequest, CodeInvalidParameter, "invalid request parameter"
	case errors.Is(err, domain.ErrSigningUnavailable):
		return http.StatusInternalServerError, CodeSigningUnavailable, "upload grants cannot be issued right now"
	case errors.Is(err, domain.ErrStoreTimeout):
		return http.StatusGatewayTimeout, CodeStoreWriteFailed, "object store write timed out; retry the upload"
	case errors.Is(err, domain.ErrStoreWriteFailed):
		return http.StatusBadGateway, CodeStoreWriteFailed, "object store write failed; retry the upload"
	case errors.Is(err, domain.ErrPresignFailed):
		return http.StatusBadGateway, CodePresignFailed, "failed to generate upload URL"
	case errors.Is(err, domain.ErrDeadlineApproaching):
		return http.StatusGatewayTimeout, CodeDeadlineApproaching, "request ran out of time before the upload could start; retry"
	case errors.Is(err, domain.ErrOriginNotAllowed):
		return http.StatusForbidden, CodeOriginNotAllowed, "origin not allowed"
	case errors.Is(err, domain.ErrMethodNotAllowed):
		return http.StatusMethodNotAllowed, CodeMethodNotAllowed, "method not allowed"
	case errors.Is(err, domain.ErrThrottled):
		return http.StatusTooManyRequests, CodeThrottled, "too many requests; retry later"
	default:
		return http.StatusInternalServerError, CodeInternalError, "an internal error occurred"
	}
}

// HandleError maps a domain error and sends the appropriate error response.
// Client errors carry the wrapped detail; server errors only the generic text.
func HandleError(c *gin.Context, err error) {
	status, code, msg := MapDomainError(err)
	log := logging.Ctx(c.Request.Context())
	if status >= 500 {
		log.Error().Err(err).Str("code", code).Int("status", status).Msg("request failed")
	} else {
		log.Debug().Err(err).Str("code", code).Int("status", status).Msg("request rejected")
		msg = err.Error()
	}
	retryable := status == http.StatusTooManyRequests || status == http.StatusGatewayTimeout
	if retryable && c.Writer.Header().Get("Retry-After") == "" {
		SetRetryAfter(c, 1)
	}
	RespondError(c, status, code, msg)
}

// SetRetryAfter advertises when a throttled or timed-out client may retry.
func SetRetryAfter(c *gin.Context, seconds int) {
	if seconds < 1 {
		seconds = 1
	}
	c.Header("Retry-After", strconv.Itoa(seconds))
}
