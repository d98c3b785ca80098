package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unified error code across the module.
type ErrorCode string

// Generation error codes
const (
	ErrValidation           ErrorCode = "VALIDATION"
	ErrUpstreamFailure      ErrorCode = "UPSTREAM_FAILURE"
	ErrPollTimeout          ErrorCode = "POLL_TIMEOUT"
	ErrTransport            ErrorCode = "TRANSPORT"
	ErrUnsupportedOperation ErrorCode = "UNSUPPORTED_OPERATION"
	ErrUnexpectedResponse   ErrorCode = "UNEXPECTED_RESPONSE"
)

// HTTP surface error codes
const (
	ErrInvalidRequest     ErrorCode = "INVALID_REQUEST"
	ErrUnauthorized       ErrorCode = "UNAUTHORIZED"
	ErrRateLimited        ErrorCode = "RATE_LIMITED"
	ErrInternalError      ErrorCode = "INTERNAL_ERROR"
	ErrServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code         ErrorCode `json:"code"`
	Message      string    `json:"message"`
	HTTPStatus   int       `json:"http_status,omitempty"`
	Retryable    bool      `json:"retryable"`
	Provider     string    `json:"provider,omitempty"`
	GenerationID string    `json:"generation_id,omitempty"`
	Status       string    `json:"status,omitempty"`
	Reason       string    `json:"reason,omitempty"`
	Cause        error     `json:"-"`
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

// WithHTTPStatus sets the HTTP status code.
func (e *Error) WithHTTPStatus(status int) *Error {
	e.HTTPStatus = status
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// WithProvider sets the provider name.
func (e *Error) WithProvider(provider string) *Error {
	e.Provider = provider
	return e
}

// WithGenerationID records the upstream generation the error belongs to.
func (e *Error) WithGenerationID(id string) *Error {
	e.GenerationID = id
	return e
}

// WithStatus records the raw upstream status string.
func (e *Error) WithStatus(status string) *Error {
	e.Status = status
	return e
}

// WithReason records the upstream failure reason, if one was reported.
func (e *Error) WithReason(reason string) *Error {
	e.Reason = reason
	return e
}

// AsError extracts a *Error from anywhere in the chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if e, ok := AsError(err); ok {
		return e.Retryable
	}
	return false
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	if e, ok := AsError(err); ok {
		return e.Code
	}
	return ""
}

// IsErrorCode reports whether err carries the given code.
func IsErrorCode(err error, code ErrorCode) bool {
	return GetErrorCode(err) == code
}

// NewValidationError creates a VALIDATION error.
func NewValidationError(format string, args ...any) *Error {
	return NewError(ErrValidation, fmt.Sprintf(format, args...)).WithHTTPStatus(400)
}

// NewUpstreamFailure creates an UPSTREAM_FAILURE error for a generation the
// gateway reported as failed.
func NewUpstreamFailure(generationID, status, reason string) *Error {
	msg := fmt.Sprintf("generation failed with status %q", status)
	if reason != "" {
		msg += ": " + reason
	}
	return NewError(ErrUpstreamFailure, msg).
		WithHTTPStatus(502).
		WithGenerationID(generationID).
		WithStatus(status).
		WithReason(reason)
}

// NewPollTimeout creates a POLL_TIMEOUT error.
func NewPollTimeout(generationID string, attempts int) *Error {
	return NewError(ErrPollTimeout, fmt.Sprintf(
		"timed out while waiting for generation to complete (generation_id: %s, attempts: %d)",
		generationID, attempts,
	)).WithHTTPStatus(504).WithGenerationID(generationID)
}

// NewTransportError wraps a failed HTTP exchange.
func NewTransportError(status int, message string) *Error {
	return NewError(ErrTransport, message).
		WithHTTPStatus(status).
		WithRetryable(status == 0 || status == 429 || status >= 500)
}

// NewUnsupportedOperation creates an UNSUPPORTED_OPERATION error.
func NewUnsupportedOperation(operation string) *Error {
	return NewError(ErrUnsupportedOperation, fmt.Sprintf("unsupported operation %q", operation)).
		WithHTTPStatus(400)
}
