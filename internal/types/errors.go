package types

import (
	"errors"
	"fmt"
)

// ErrorCode is a namespaced code identifying the kind of failure.
type ErrorCode string

// Store error codes
const (
	STORE_UNAVAILABLE    ErrorCode = "STORE_UNAVAILABLE"
	QUERY_REJECTED       ErrorCode = "QUERY_REJECTED"
	DANGLING_REFERENCE   ErrorCode = "DANGLING_REFERENCE"
	RESULT_DECODE_FAILED ErrorCode = "RESULT_DECODE_FAILED"
)

// Request construction error codes
const (
	INVALID_IDENTIFIER ErrorCode = "INVALID_IDENTIFIER"
	INVALID_ARGUMENT   ErrorCode = "INVALID_ARGUMENT"
)

// Configuration error codes
const (
	CONFIG_LOAD_FAILED       ErrorCode = "CONFIG_LOAD_FAILED"
	CONFIG_VALIDATION_FAILED ErrorCode = "CONFIG_VALIDATION_FAILED"
)

// Dataset error codes
const (
	DATASET_LOAD_FAILED ErrorCode = "DATASET_LOAD_FAILED"
	DATASET_INVALID     ErrorCode = "DATASET_INVALID"
)

// Sentinels for errors.Is checks. Matching is by code, so any *Error carrying
// the same code matches regardless of message or cause.
var (
	ErrStoreUnavailable  = NewRetryableError(STORE_UNAVAILABLE, "graph store unavailable")
	ErrQueryRejected     = NewError(QUERY_REJECTED, "query rejected by graph store")
	ErrDanglingReference = NewError(DANGLING_REFERENCE, "relationship endpoint does not exist")
	ErrInvalidIdentifier = NewError(INVALID_IDENTIFIER, "invalid identifier")
	ErrInvalidArgument   = NewError(INVALID_ARGUMENT, "invalid argument")
)

// Error is a structured error with a code, message and optional cause.
type Error struct {
	Code      ErrorCode
	Message   string
	Retryable bool
	Cause     error
}

// Error formats as "[CODE] message" or "[CODE] message: cause".
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

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Code == other.Code
	}
	return false
}

// NewError creates a non-retryable error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// NewRetryableError creates an error that a caller may reasonably retry.
// Nothing in this module retries on its own.
func NewRetryableError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message, Retryable: true}
}

// WrapError creates an error of the given code wrapping cause.
// STORE_UNAVAILABLE errors are always marked retryable.
func WrapError(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:      code,
		Message:   message,
		Retryable: code == STORE_UNAVAILABLE,
		Cause:     cause,
	}
}

// CodeOf returns the code of the first *Error in err's chain, or "" if none.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsRetryable reports whether err carries a retryable *Error.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}
