// internal/core/errors.go
package core

import "fmt"

// Error represents a structured error with code and optional cause.
type Error struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is matching by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WrapError creates a new error with the same code but with a cause.
func WrapError(base *Error, cause error) *Error {
	return &Error{
		Code:    base.Code,
		Message: base.Message,
		Cause:   cause,
	}
}

// Predefined errors
var (
	// Config errors
	ErrConfigInvalid = &Error{Code: "CONFIG_INVALID", Message: "configuration invalid"}
	ErrConfigMissing = &Error{Code: "CONFIG_MISSING", Message: "required configuration missing"}

	// Request errors
	ErrInvalidParam = &Error{Code: "INVALID_PARAM", Message: "invalid request parameter"}

	// LLM errors
	ErrLLMFailed         = &Error{Code: "LLM_FAILED", Message: "LLM request failed"}
	ErrResponseMalformed = &Error{Code: "RESPONSE_MALFORMED", Message: "model reply is not valid JSON"}
	ErrResponseInvalid   = &Error{Code: "RESPONSE_INVALID", Message: "model reply failed validation"}

	// Request cycle errors
	ErrBusy       = &Error{Code: "REQUEST_IN_FLIGHT", Message: "a signal request is already in flight"}
	ErrLockFailed = &Error{Code: "LOCK_FAILED", Message: "in-flight guard unavailable"}

	// Notifier errors
	ErrNotifierFailed = &Error{Code: "NOTIFIER_FAILED", Message: "notifier failed"}
)
