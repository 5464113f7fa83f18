package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown    ErrorCode = "UNKNOWN"
	ErrInternal   ErrorCode = "INTERNAL"
	ErrUnexpected ErrorCode = "UNEXPECTED"

	// User input errors. Everything a user can fix by correcting
	// their command line carries INVALID_INPUT.
	ErrInvalidInput ErrorCode = "INVALID_INPUT"

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigParse ErrorCode = "CONFIG_PARSE"

	// Key material errors
	ErrKeyConfig ErrorCode = "KEY_CONFIG"
	ErrKeyDerive ErrorCode = "KEY_DERIVE"

	// Engine errors
	ErrEngineFailure ErrorCode = "ENGINE_FAILURE"

	// Metadata errors
	ErrMetadataWrite ErrorCode = "METADATA_WRITE"

	// FileSystem errors
	ErrFileNotFound ErrorCode = "FILE_NOT_FOUND"
	ErrFileAccess   ErrorCode = "FILE_ACCESS"
	ErrFileCreate   ErrorCode = "FILE_CREATE"
	ErrFileWrite    ErrorCode = "FILE_WRITE"
	ErrDirCreate    ErrorCode = "DIR_CREATE"
)

// EnvelopeError represents a structured error with code and details
type EnvelopeError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *EnvelopeError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *EnvelopeError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *EnvelopeError) Is(target error) bool {
	var targetErr *EnvelopeError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new EnvelopeError with the given code and message
func New(code ErrorCode, message string) *EnvelopeError {
	return &EnvelopeError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new EnvelopeError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *EnvelopeError {
	return &EnvelopeError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with an EnvelopeError. A nil err yields
// a nil error, so call sites may wrap unconditionally. The return type
// is error rather than *EnvelopeError to keep the nil result an untyped
// nil interface.
func Wrap(err error, code ErrorCode, message string) error {
	if err == nil {
		return nil
	}
	return &EnvelopeError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message. Nil handling
// matches Wrap.
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &EnvelopeError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *EnvelopeError) WithDetail(key string, value interface{}) *EnvelopeError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var envErr *EnvelopeError
	if errors.As(err, &envErr) {
		return envErr.Code == code
	}
	return false
}

// IsBadUserArgument reports whether the error was caused by user input
// that the user can correct. These errors never leave partial side
// effects behind.
func IsBadUserArgument(err error) bool {
	return IsErrorCode(err, ErrInvalidInput)
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not an EnvelopeError
func GetErrorCode(err error) ErrorCode {
	var envErr *EnvelopeError
	if errors.As(err, &envErr) {
		return envErr.Code
	}
	return ErrUnknown
}
