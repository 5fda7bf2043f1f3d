package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(NewRateLimitError("gpt-4o")))
	assert.True(t, IsRetryable(NewTimeoutError("timed out")))
	assert.True(t, IsRetryable(NewProviderError("gpt-4o", errors.New("503"))))

	assert.False(t, IsRetryable(NewUnauthorizedError("gpt-4o", errors.New("401"))))
	assert.False(t, IsRetryable(NewInvalidRequestError("bad payload")))
	assert.False(t, IsRetryable(errors.New("plain error")))
	assert.False(t, IsRetryable(nil))
}

func TestIsRetryableWrapped(t *testing.T) {
	err := fmt.Errorf("calling model: %w", NewRateLimitError("gpt-4o"))
	assert.True(t, IsRetryable(err))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, ErrSandboxUnavailable, CodeOf(NewSandboxError("docker down", nil)))
	assert.Equal(t, ErrSampleFailed, CodeOf(errors.New("anything")))
	assert.Equal(t, ErrRunAborted, CodeOf(fmt.Errorf("wrap: %w", NewError(ErrRunAborted, "threshold"))))
}

func TestTranslateProviderError(t *testing.T) {
	cases := []struct {
		raw  string
		code ErrorCode
	}{
		{"429 too many requests", ErrRateLimited},
		{"request timeout", ErrTimeout},
		{"context deadline exceeded", ErrTimeout},
		{"401 unauthorized", ErrProviderUnauthorized},
		{"invalid api key provided", ErrProviderUnauthorized},
		{"400 bad request", ErrInvalidRequest},
		{"connection reset by peer", ErrProviderUnavailable},
	}
	for _, tc := range cases {
		err := TranslateProviderError("gpt-4o", errors.New(tc.raw))
		assert.Equal(t, tc.code, CodeOf(err), "raw=%q", tc.raw)
	}

	// Typed errors pass through untouched.
	orig := NewRateLimitError("gpt-4o")
	assert.Same(t, error(orig), TranslateProviderError("gpt-4o", orig))
	assert.NoError(t, TranslateProviderError("gpt-4o", nil))
}
