package core

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode categorizes evaluation errors for retry and isolation decisions.
type ErrorCode string

const (
	// Model invocation errors
	ErrRateLimited          ErrorCode = "MODEL_RATE_LIMITED"
	ErrTimeout              ErrorCode = "MODEL_TIMEOUT"
	ErrProviderUnavailable  ErrorCode = "MODEL_PROVIDER_UNAVAILABLE"
	ErrProviderUnauthorized ErrorCode = "MODEL_PROVIDER_UNAUTHORIZED"
	ErrInvalidRequest       ErrorCode = "MODEL_INVALID_REQUEST"

	// Tool errors (non-fatal, surfaced to the model as observations)
	ErrToolNotFound    ErrorCode = "TOOL_NOT_FOUND"
	ErrToolInvalidArgs ErrorCode = "TOOL_INVALID_ARGS"
	ErrToolTimeout     ErrorCode = "TOOL_TIMEOUT"
	ErrToolExecution   ErrorCode = "TOOL_EXECUTION_FAILED"

	// Sandbox errors (fatal to the sample, not to the run)
	ErrSandboxUnavailable ErrorCode = "SANDBOX_UNAVAILABLE"

	// Run-level errors
	ErrSampleFailed ErrorCode = "SAMPLE_FAILED"
	ErrRunAborted   ErrorCode = "RUN_ABORTED"
	ErrMessageLimit ErrorCode = "MESSAGE_LIMIT_REACHED"
)

// EvalError is the structured error used across the engine. Retryable marks
// transient conditions the model invocation layer may retry.
type EvalError struct {
	Code      ErrorCode
	Message   string
	Retryable bool
	Cause     error
}

// Error implements the error interface.
func (e *EvalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the wrapped cause for errors.Is / errors.As.
func (e *EvalError) Unwrap() error { return e.Cause }

// NewError creates an EvalError with the given code and message.
func NewError(code ErrorCode, message string) *EvalError {
	return &EvalError{Code: code, Message: message}
}

// WrapError creates an EvalError wrapping a cause.
func WrapError(code ErrorCode, message string, cause error) *EvalError {
	return &EvalError{Code: code, Message: message, Cause: cause}
}

// NewRateLimitError creates a retryable error for provider rate limiting.
func NewRateLimitError(model string) *EvalError {
	return &EvalError{Code: ErrRateLimited, Message: "rate limit exceeded for model: " + model, Retryable: true}
}

// NewTimeoutError creates a retryable error for a timed-out model request.
func NewTimeoutError(message string) *EvalError {
	return &EvalError{Code: ErrTimeout, Message: message, Retryable: true}
}

// NewProviderError creates a retryable error for a transient provider failure
// (5xx-class, network).
func NewProviderError(model string, cause error) *EvalError {
	return &EvalError{Code: ErrProviderUnavailable, Message: "provider temporarily unavailable for model: " + model, Retryable: true, Cause: cause}
}

// NewUnauthorizedError creates a fatal authentication error. Never retried.
func NewUnauthorizedError(model string, cause error) *EvalError {
	return &EvalError{Code: ErrProviderUnauthorized, Message: "authentication failed for model: " + model, Cause: cause}
}

// NewInvalidRequestError creates a fatal malformed-request error. Never retried.
func NewInvalidRequestError(message string) *EvalError {
	return &EvalError{Code: ErrInvalidRequest, Message: message}
}

// NewSandboxError creates an error fatal to the owning sample.
func NewSandboxError(message string, cause error) *EvalError {
	return &EvalError{Code: ErrSandboxUnavailable, Message: message, Cause: cause}
}

// IsRetryable determines whether an error is transient and may succeed on
// retry. Errors outside the EvalError taxonomy are never retried.
func IsRetryable(err error) bool {
	var evalErr *EvalError
	if !errors.As(err, &evalErr) {
		return false
	}
	if evalErr.Retryable {
		return true
	}
	switch evalErr.Code {
	case ErrRateLimited, ErrTimeout, ErrProviderUnavailable:
		return true
	default:
		return false
	}
}

// CodeOf extracts the error code, or ErrSampleFailed for untyped errors.
func CodeOf(err error) ErrorCode {
	var evalErr *EvalError
	if errors.As(err, &evalErr) {
		return evalErr.Code
	}
	return ErrSampleFailed
}

// TranslateProviderError classifies a raw provider SDK error into the
// taxonomy based on its message. Errors already in the taxonomy pass through.
func TranslateProviderError(model string, err error) error {
	if err == nil {
		return nil
	}
	var evalErr *EvalError
	if errors.As(err, &evalErr) {
		return err
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "unauthorized") || strings.Contains(msg, "authentication") || strings.Contains(msg, "api key"):
		return NewUnauthorizedError(model, err)
	case strings.Contains(msg, "rate limit") || strings.Contains(msg, "too many requests") || strings.Contains(msg, "429"):
		return NewRateLimitError(model)
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline"):
		return NewTimeoutError(err.Error())
	case strings.Contains(msg, "invalid") || strings.Contains(msg, "bad request") || strings.Contains(msg, "400"):
		return NewInvalidRequestError(err.Error())
	default:
		return NewProviderError(model, err)
	}
}
