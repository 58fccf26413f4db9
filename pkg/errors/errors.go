// Package errors provides structured error types for stacknotice.
//
// Every failure that crosses a package boundary carries a [Code] so callers
// can tell the kinds apart without string matching. The aggregator relies on
// this to decide whether a failed full fetch may fall back to limited mode,
// and the CLI uses it to prefix fatal messages.
//
// # Error Codes
//
//   - SCHEMA_INVALID: a host or notice-service response did not have the expected shape
//   - RATE_LIMITED: the host refused the request because of rate limiting
//   - UPSTREAM_TIMEOUT: the request timed out or the host reported the result as too large
//   - PARTIAL_PAGINATION_FAILURE: one manifest's dependency list could not be completed
//   - UNSUPPORTED_ECOSYSTEM: a dependency uses a package manager with no coordinate mapping
//   - MANIFEST_TRUNCATED: limited mode returned fewer records than the host reported
//   - INVALID_*: input validation failures
//
// The last three only ever appear as warnings; see [IsFatal].
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidInput, "too many coordinates: %d", n)
//	if errors.Is(err, errors.ErrCodeUpstreamTimeout) {
//	    // retry in limited mode
//	}
//
//	err := errors.Wrap(errors.ErrCodeNetwork, origErr, "failed to query %s", url)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Upstream response errors
	ErrCodeSchemaInvalid   Code = "SCHEMA_INVALID"
	ErrCodeRateLimited     Code = "RATE_LIMITED"
	ErrCodeUpstreamTimeout Code = "UPSTREAM_TIMEOUT"
	ErrCodeNetwork         Code = "NETWORK_ERROR"
	ErrCodeUnauthorized    Code = "UNAUTHORIZED"
	ErrCodeNotFound        Code = "NOT_FOUND"

	// Degradations, reported as warnings
	ErrCodePartialPagination    Code = "PARTIAL_PAGINATION_FAILURE"
	ErrCodeUnsupportedEcosystem Code = "UNSUPPORTED_ECOSYSTEM"
	ErrCodeManifestTruncated    Code = "MANIFEST_TRUNCATED"

	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidPath   Code = "INVALID_PATH"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// Only the outermost *Error in the chain is consulted, so a wrapper can
// reclassify the error it wraps.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// IsFatal reports whether an error of the given code ends a run.
// Degradation codes are only ever surfaced as warnings.
func IsFatal(code Code) bool {
	switch code {
	case ErrCodePartialPagination, ErrCodeUnsupportedEcosystem, ErrCodeManifestTruncated:
		return false
	}
	return true
}

// RateLimitedError provides additional information for rate-limited responses.
type RateLimitedError struct {
	RetryAfter int // Seconds to wait before retrying
	Message    string
}

// Error implements the error interface.
func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited: retry after %d seconds", e.RetryAfter)
	}
	return "rate limited"
}

// Code returns the error code for this error type.
func (e *RateLimitedError) Code() Code {
	return ErrCodeRateLimited
}
