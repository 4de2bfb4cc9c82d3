package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromProviderError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code ErrorCode
	}{
		{"canceled", fmt.Errorf("groq: %w", context.Canceled), ErrCodeContextCanceled},
		{"deadline", fmt.Errorf("openrouter: %w", context.DeadlineExceeded), ErrCodeTimeout},
		{"other", stderrors.New("status 500"), ErrCodeLLMUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			aiErr := FromProviderError(tt.err)
			require.NotNil(t, aiErr)
			assert.Equal(t, tt.code, aiErr.GetCode())
			assert.ErrorIs(t, aiErr, tt.err)
		})
	}

	assert.Nil(t, FromProviderError(nil))
}

func TestIsCode(t *testing.T) {
	err := fmt.Errorf("route: %w", CommandFailed("treasury", stderrors.New("exit status 1")))

	assert.True(t, IsCode(err, ErrCodeCommandFailed))
	assert.False(t, IsCode(err, ErrCodeTimeout))
	assert.False(t, IsCode(stderrors.New("plain"), ErrCodeCommandFailed))
	assert.Equal(t, ErrCodeCommandFailed, GetCodeFromError(err, ErrCodeServiceUnavailable))
	assert.Equal(t, ErrCodeServiceUnavailable, GetCodeFromError(stderrors.New("plain"), ErrCodeServiceUnavailable))
}

func TestAIError_Message(t *testing.T) {
	err := InvalidArgument("platform is required").WithContext("field", "platform")
	assert.Equal(t, "[INVALID_ARGUMENT] platform is required", err.Error())
	assert.Equal(t, "platform", err.Context["field"])

	wrapped := Wrap(stderrors.New("boom"), ErrCodeServiceUnavailable, "store down")
	assert.Equal(t, "[SERVICE_UNAVAILABLE] store down: boom", wrapped.Error())
}
