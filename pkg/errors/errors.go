package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unique error code
type ErrorCode string

// Error codes for every failure class the login flow can produce
const (
	// Local failures that never reach the network
	ErrCodeValidationFailed   ErrorCode = "VALIDATION_FAILED"
	ErrCodeRateLimitExceeded  ErrorCode = "RATE_LIMIT_EXCEEDED"
	ErrCodeInvalidState       ErrorCode = "INVALID_STATE"
	ErrCodeSubmissionInFlight ErrorCode = "SUBMISSION_IN_FLIGHT"

	// Server rejections, counted as login attempts
	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCode2FAInvalid         ErrorCode = "TWO_FA_INVALID"
	ErrCodeAuthFailed         ErrorCode = "AUTH_FAILED"

	// Transport failures, counted as login attempts
	ErrCodeNetwork ErrorCode = "NETWORK_ERROR"

	// 401/403 on an authenticated call, forces a session clear
	ErrCodeSessionExpired ErrorCode = "SESSION_EXPIRED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// Error represents a structured error with code, message, and optional details
type Error struct {
	Code    ErrorCode              // Unique error code
	Message string                 // Human-readable error message
	Details map[string]interface{} // Optional additional details
	Err     error                  // Wrapped underlying error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error for errors.Is and errors.As
func (e *Error) Unwrap() error {
	return e.Err
}

// WithDetail adds a detail to the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithFieldErrors attaches the server's per-field error map
func (e *Error) WithFieldErrors(fieldErrors map[string]string) *Error {
	if len(fieldErrors) == 0 {
		return e
	}
	return e.WithDetail("field_errors", fieldErrors)
}

// FieldErrors returns the per-field error map carried by the error, if any
func (e *Error) FieldErrors() map[string]string {
	if e.Details == nil {
		return nil
	}
	fieldErrors, _ := e.Details["field_errors"].(map[string]string)
	return fieldErrors
}

// New creates a new Error with the given code and message
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new Error with formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an existing error with code and message
func Wrap(err error, code ErrorCode, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsCode checks if an error has a specific error code
func IsCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error
// Returns ErrCodeInternal if the error is not a structured Error
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCodeInternal
}

// GetFieldErrors extracts the per-field error map from an error
// Returns nil if the error carries none
func GetFieldErrors(err error) map[string]string {
	var e *Error
	if errors.As(err, &e) {
		return e.FieldErrors()
	}
	return nil
}

// GetMessage extracts the human-readable message from an error
func GetMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// MapHTTPStatusToCode maps a rejected response's HTTP status to an error
// code. The reverse direction of what the backend does when rendering errors.
func MapHTTPStatusToCode(status int) ErrorCode {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrCodeInvalidCredentials
	case http.StatusTooManyRequests:
		return ErrCodeRateLimitExceeded
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return ErrCodeValidationFailed
	default:
		return ErrCodeAuthFailed
	}
}
