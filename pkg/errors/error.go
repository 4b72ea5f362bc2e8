// Package errors provides structured error handling with typed error codes.
//
// Error codes are organized into categories:
//   - General errors (1-99): Unknown and general errors
//   - Validation errors (100-199): Invalid parameters, configuration, and series data
//   - Data/Cache errors (200-299): Missing data, fetch failures, cache read/write failures
//   - Strategy errors (300-399): Unknown strategy names and strategy execution failures
//   - Portfolio errors (400-499): Rejected buy/sell orders
//   - Provider errors (500-599): Market data provider construction and transport errors
//
// Usage:
//
//	// Create a new error
//	err := errors.New(errors.ErrCodeNoDataFound, "no data available")
//
//	// Create a formatted error
//	err := errors.Newf(errors.ErrCodeNoDataFound, "no data returned for %s", ticker)
//
//	// Wrap an existing error
//	err := errors.Wrap(errors.ErrCodeCacheReadFailed, "failed to parse cache file", originalErr)
//
//	// Check error code
//	if errors.HasCode(err, errors.ErrCodeNoDataFound) { ... }
package errors

import (
	"errors"
	"fmt"
)

// Error represents a structured error with an error code and message.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   nil,
	}
}

// Newf creates a new Error with the given code and formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   nil,
	}
}

// Wrap wraps an existing error with a new Error containing the given code and message.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Wrapf wraps an existing error with a new Error containing the given code and formatted message.
func Wrapf(code ErrorCode, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}

	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether any error in err's chain matches target.
// This is a convenience wrapper around the standard errors.Is function.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
// This is a convenience wrapper around the standard errors.As function.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// GetCode extracts the ErrorCode from an error if it's an *Error type.
// Returns ErrCodeUnknown if the error is not an *Error type.
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return ErrCodeUnknown
}

// HasCode checks if an error has a specific ErrorCode.
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// IsDataFetchError reports whether err belongs to the data-fetch family
// (no data, transport failure, or unreadable cache). These are recoverable
// by retrying with a different ticker or range.
func IsDataFetchError(err error) bool {
	switch GetCode(err) {
	case ErrCodeNoDataFound, ErrCodeDataFetchFailed, ErrCodeCacheReadFailed, ErrCodeDateOutOfRange:
		return true
	default:
		return false
	}
}
