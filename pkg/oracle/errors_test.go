package oracle

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorTypeClassification(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantType  ErrorType
		retryable bool
	}{
		{"rate limit", NewError(ErrorTypeRateLimit, "429"), ErrorTypeRateLimit, true},
		{"transient", NewError(ErrorTypeTransient, "503"), ErrorTypeTransient, true},
		{"empty response", NewError(ErrorTypeEmptyResponse, "no content"), ErrorTypeEmptyResponse, true},
		{"auth", NewError(ErrorTypeAuth, "bad key"), ErrorTypeAuth, false},
		{"bad prompt", NewError(ErrorTypeBadPrompt, "too long"), ErrorTypeBadPrompt, false},
		{"plain error", fmt.Errorf("boom"), ErrorTypeUnknown, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, TypeOf(tt.err))
			assert.Equal(t, tt.retryable, IsRetryable(tt.err))
		})
	}
}

func TestTypeOfUnwrapsChains(t *testing.T) {
	inner := NewError(ErrorTypeRateLimit, "429")
	wrapped := fmt.Errorf("request failed: %w", inner)
	assert.Equal(t, ErrorTypeRateLimit, TypeOf(wrapped))
	assert.True(t, IsRetryable(wrapped))
}

func TestContextErrors(t *testing.T) {
	assert.False(t, IsRetryable(context.Canceled))
	assert.True(t, IsRetryable(context.DeadlineExceeded))
}
