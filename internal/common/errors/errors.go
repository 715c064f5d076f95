// internal/common/errors/errors.go

// Package errors provides the standardized error taxonomy of the bot.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// inbound
	ErrCodeInvalidSignature      ErrorCode = "INVALID_SIGNATURE"
	ErrCodeInvalidWebhookPayload ErrorCode = "INVALID_WEBHOOK_PAYLOAD"

	// agent service
	ErrCodeUpstreamCallFailed        ErrorCode = "UPSTREAM_CALL_FAILED"
	ErrCodeUpstreamTimeout           ErrorCode = "UPSTREAM_TIMEOUT"
	ErrCodeInvalidStructuredResponse ErrorCode = "INVALID_STRUCTURED_RESPONSE"

	// rendering and delivery
	ErrCodeRenderFailed       ErrorCode = "RENDER_FAILED"
	ErrCodeMessagingAPIFailed ErrorCode = "MESSAGING_API_FAILED"
	ErrCodeBestEffortFailed   ErrorCode = "BEST_EFFORT_FAILED"

	// ratings
	ErrCodeRatingStoreFailed    ErrorCode = "RATING_STORE_FAILED"
	ErrCodeInvalidRatingCommand ErrorCode = "INVALID_RATING_COMMAND"

	// background execution
	ErrCodeQueueFull ErrorCode = "QUEUE_FULL"
	ErrCodeTaskPanic ErrorCode = "TASK_PANIC"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata attaches a key/value pair and returns the same error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

func newError(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// ==========================
// 2. Error Constructors
// ==========================

// NewInvalidSignatureError is returned when X-Line-Signature is missing or does not match.
func NewInvalidSignatureError(details string) *StandardError {
	return newError(ErrCodeInvalidSignature, "Webhook signature verification failed", details, false, nil)
}

func NewInvalidWebhookPayloadError(err error) *StandardError {
	return newError(ErrCodeInvalidWebhookPayload, "Malformed webhook payload", err.Error(), false, err)
}

// NewUpstreamCallFailedError wraps a transport error or a non-2xx answer from the agent.
func NewUpstreamCallFailedError(endpoint string, err error) *StandardError {
	return newError(ErrCodeUpstreamCallFailed, "Agent call failed",
		fmt.Sprintf("endpoint: %s, error: %s", endpoint, err.Error()), true, err).
		WithMetadata("endpoint", endpoint)
}

func NewUpstreamTimeoutError(endpoint string, err error) *StandardError {
	return newError(ErrCodeUpstreamTimeout, "Agent call timed out",
		fmt.Sprintf("endpoint: %s", endpoint), true, err).
		WithMetadata("endpoint", endpoint)
}

func NewInvalidStructuredResponseError(details string) *StandardError {
	return newError(ErrCodeInvalidStructuredResponse, "Structured response failed validation", details, false, nil)
}

func NewRenderFailedError(kind string, err error) *StandardError {
	return newError(ErrCodeRenderFailed, "Card rendering failed",
		fmt.Sprintf("kind: %s, error: %s", kind, err.Error()), false, err)
}

// NewMessagingAPIFailedError wraps a failed reply, push or loading call to the LINE platform.
func NewMessagingAPIFailedError(operation string, err error) *StandardError {
	return newError(ErrCodeMessagingAPIFailed, "LINE Messaging API call failed",
		fmt.Sprintf("operation: %s, error: %s", operation, err.Error()), true, err).
		WithMetadata("operation", operation)
}

func NewBestEffortFailedError(operation string, err error) *StandardError {
	return newError(ErrCodeBestEffortFailed, "Best-effort call failed",
		fmt.Sprintf("operation: %s, error: %s", operation, err.Error()), false, err)
}

func NewRatingStoreFailedError(operation string, err error) *StandardError {
	return newError(ErrCodeRatingStoreFailed, "Rating store error",
		fmt.Sprintf("operation: %s, error: %s", operation, err.Error()), true, err)
}

func NewInvalidRatingCommandError(details string) *StandardError {
	return newError(ErrCodeInvalidRatingCommand, "Rating command could not be parsed", details, false, nil)
}

func NewQueueFullError(taskType string) *StandardError {
	return newError(ErrCodeQueueFull, "Background queue is full",
		fmt.Sprintf("taskType: %s", taskType), true, nil)
}

func NewTaskPanicError(taskType string, recovered interface{}) *StandardError {
	return newError(ErrCodeTaskPanic, "Background task panicked",
		fmt.Sprintf("taskType: %s, panic: %v", taskType, recovered), false, nil)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false, err)
}

// ==========================
// 3. Utility Functions
// ==========================

// AsStandardError returns err as a *StandardError, wrapping unknown errors as INTERNAL_ERROR.
func AsStandardError(err error) *StandardError {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError(err)
}

// HasCode reports whether any error in err's chain is a StandardError with the given code.
func HasCode(err error, code ErrorCode) bool {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Code == code
	}
	return false
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	switch code {
	case ErrCodeUpstreamCallFailed,
		ErrCodeUpstreamTimeout,
		ErrCodeMessagingAPIFailed,
		ErrCodeRatingStoreFailed,
		ErrCodeQueueFull:
		return true
	default:
		return false
	}
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "SIGNATURE") || strings.Contains(codeStr, "WEBHOOK"):
		return "INBOUND"
	case strings.Contains(codeStr, "UPSTREAM") || strings.Contains(codeStr, "STRUCTURED"):
		return "AGENT"
	case strings.Contains(codeStr, "RATING"):
		return "RATING"
	case strings.Contains(codeStr, "MESSAGING") || strings.Contains(codeStr, "RENDER") || strings.Contains(codeStr, "BEST_EFFORT"):
		return "DELIVERY"
	case strings.Contains(codeStr, "QUEUE") || strings.Contains(codeStr, "TASK"):
		return "EXECUTION"
	default:
		return "OTHER"
	}
}
