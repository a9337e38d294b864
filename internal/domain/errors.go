package domain

import "errors"

var (
	ErrMissingSizeHint         = errors.New("declared size is required when no inline body is present")
	ErrUnsupportedContentType  = errors.New("unsupported content type")
	ErrDecodeFailure           = errors.New("request body could not be decoded")
	ErrContentValidationFailed = errors.New("file content does not match declared content type")
	ErrSizeLimitExceeded       = errors.New("size exceeds the applicable limit")
	ErrInvalidSize             = errors.New("size must be a positive number of bytes")
	ErrInvalidExpiry           = errors.New("expiry is outside the allowed range")
	ErrInvalidParameter        = errors.New("invalid request parameter")
	ErrSigningUnavailable      = errors.New("signing material is unavailable")
	ErrStoreWriteFailed        = errors.New("object store write failed")
	ErrStoreTimeout            = errors.New("object store write timed out")
	ErrPresignFailed           = errors.New("object store could not issue an upload grant")
	ErrDeadlineApproaching     = errors.New("request time budget is nearly exhausted")
	ErrOriginNotAllowed        = errors.New("origin not allowed")
	ErrMethodNotAllowed        = errors.New("method not allowed")
	ErrThrottled               = errors.New("too many requests")
	ErrGrantInvalid            = errors.New("upload grant is invalid")
	ErrGrantExpired            = errors.New("upload grant has expired")
)
