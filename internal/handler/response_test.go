package handler_test

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"uploadgw/internal/domain"
	"uploadgw/internal/handler"
)

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{domain.ErrOriginNotAllowed, http.StatusForbidden, handler.CodeOriginNotAllowed},
		{domain.ErrThrottled, http.StatusTooManyRequests, handler.CodeThrottled},
		{domain.ErrMethodNotAllowed, http.StatusMethodNotAllowed, handler.CodeMethodNotAllowed},
		{fmt.Errorf("%w: 7 MB body", domain.ErrSizeLimitExceeded), http.StatusRequestEntityTooLarge, handler.CodeSizeLimitExceeded},
		{fmt.Errorf("%w: i/o timeout", domain.ErrStoreTimeout), http.StatusGatewayTimeout, handler.CodeStoreWriteFailed},
		{errors.New("boom"), http.StatusInternalServerError, handler.CodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			status, code, _ := handler.MapDomainError(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestAbortWithDomainError(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/upload", http.NoBody)

	handler.AbortWithDomainError(c, domain.ErrOriginNotAllowed)

	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusForbidden, w.Code)
	body := decodeError(t, w)
	assert.Equal(t, handler.CodeOriginNotAllowed, body.Error)
	assert.Equal(t, "origin not allowed", body.Message)
}

func TestHandleError_RetryAfter(t *testing.T) {
	t.Run("default hint", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request, _ = http.NewRequest(http.MethodPost, "/upload", http.NoBody)

		handler.HandleError(c, domain.ErrDeadlineApproaching)

		assert.Equal(t, http.StatusGatewayTimeout, w.Code)
		assert.Equal(t, "1", w.Header().Get("Retry-After"))
	})

	t.Run("keeps an earlier hint", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request, _ = http.NewRequest(http.MethodPost, "/upload", http.NoBody)

		handler.SetRetryAfter(c, 7)
		handler.HandleError(c, domain.ErrThrottled)

		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, "7", w.Header().Get("Retry-After"))
	})
}
