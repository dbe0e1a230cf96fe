// internal/common/errors/errors_test.go
package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusErrorClassification(t *testing.T) {
	tests := []struct {
		status    int
		retryable bool
		code      ErrorCode
	}{
		{400, false, ErrCodeWebhookRejected},
		{404, false, ErrCodeWebhookRejected},
		{422, false, ErrCodeWebhookRejected},
		{500, true, ErrCodeWebhookServerError},
		{503, true, ErrCodeWebhookServerError},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status %d", tt.status), func(t *testing.T) {
			err := NewHTTPStatusError(tt.status, "body")
			assert.Equal(t, tt.retryable, err.Retryable)
			assert.Equal(t, tt.code, err.Code)
			assert.Equal(t, tt.retryable, IsRetryable(err))
		})
	}
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(NewNetworkError(assert.AnError)))
	assert.True(t, IsRetryable(fmt.Errorf("wrapped: %w", NewNetworkError(assert.AnError))))
	assert.False(t, IsRetryable(NewPayloadInvalidError("missing label")))
	assert.False(t, IsRetryable(assert.AnError))
	assert.False(t, IsRetryable(nil))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(ErrNotFound))
	assert.True(t, IsNotFound(fmt.Errorf("alert x: %w", ErrNotFound)))
	assert.False(t, IsNotFound(assert.AnError))
	assert.False(t, IsNotFound(nil))
}

func TestDeliveryErrorString(t *testing.T) {
	err := NewChannelNotRegisteredError("pager")
	assert.Contains(t, err.Error(), "CHANNEL_NOT_REGISTERED")
	assert.Contains(t, err.Error(), "pager")
}
