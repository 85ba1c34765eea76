package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unified error code across the engine.
type ErrorCode string

// Graph / author-time error codes. These never reach a chat user.
const (
	ErrValidation ErrorCode = "VALIDATION"
)

// Run-control error codes. Fatal safety backstops.
const (
	ErrRouting           ErrorCode = "ROUTING"
	ErrStepLimitExceeded ErrorCode = "STEP_LIMIT_EXCEEDED"
	ErrLoopLimitExceeded ErrorCode = "LOOP_LIMIT_EXCEEDED"
	ErrRunAborted        ErrorCode = "RUN_ABORTED"
)

// Tool invocation error codes. Handled per the node's on_error policy.
const (
	ErrToolNotFound ErrorCode = "TOOL_NOT_FOUND"
	ErrToolTimeout  ErrorCode = "TOOL_TIMEOUT"
	ErrToolRemote   ErrorCode = "TOOL_REMOTE_ERROR"
)

// LLM completion error codes.
const (
	ErrLLMTimeout        ErrorCode = "LLM_TIMEOUT"
	ErrLLMRateLimited    ErrorCode = "LLM_RATE_LIMITED"
	ErrLLMInvalidRequest ErrorCode = "LLM_INVALID_REQUEST"
)

// Retrieval error codes. Always absorbed as a degraded (empty) result.
const (
	ErrRetrievalUnavailable ErrorCode = "RETRIEVAL_UNAVAILABLE"
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	NodeID    string    `json:"node_id,omitempty"`
	Retryable bool      `json:"retryable"`
	Cause     error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithNodeID records the node the error originated from.
func (e *Error) WithNodeID(nodeID string) *Error {
	e.NodeID = nodeID
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsToolError reports whether err carries a tool invocation error code.
func IsToolError(err error) bool {
	switch GetErrorCode(err) {
	case ErrToolNotFound, ErrToolTimeout, ErrToolRemote:
		return true
	}
	return false
}

// IsLLMError reports whether err carries an LLM completion error code.
func IsLLMError(err error) bool {
	switch GetErrorCode(err) {
	case ErrLLMTimeout, ErrLLMRateLimited, ErrLLMInvalidRequest:
		return true
	}
	return false
}
