// Package apperrors defines the coded failures returned by the collaboration
// core. Every failure is recoverable by the caller: retry, re-fetch, or show it
// to the user.
package apperrors

import (
	"errors"
	"fmt"
)

// Code is a machine-readable error code.
type Code string

const (
	CodeUnknown           Code = "UNKNOWN"
	CodeMalformedInput    Code = "MALFORMED_INPUT"
	CodeInvalidChange     Code = "INVALID_CHANGE"
	CodeStaleWrite        Code = "STALE_WRITE"
	CodeIndexOutOfRange   Code = "INDEX_OUT_OF_RANGE"
	CodeInvalidTransition Code = "INVALID_TRANSITION"
	CodeAlreadyMember     Code = "ALREADY_MEMBER"
	CodePermissionDenied  Code = "PERMISSION_DENIED"
	CodeNotFound          Code = "NOT_FOUND"
)

// Sentinels for errors.Is. Any *Error with the same code matches.
var (
	ErrMalformedInput    = New(CodeMalformedInput, "malformed input")
	ErrInvalidChange     = New(CodeInvalidChange, "invalid change")
	ErrStaleWrite        = New(CodeStaleWrite, "stale write")
	ErrIndexOutOfRange   = New(CodeIndexOutOfRange, "index out of range")
	ErrInvalidTransition = New(CodeInvalidTransition, "invalid transition")
	ErrAlreadyMember     = New(CodeAlreadyMember, "already a member")
	ErrPermissionDenied  = New(CodePermissionDenied, "permission denied")
	ErrNotFound          = New(CodeNotFound, "not found")
)

// Error is the domain error type with structured metadata.
type Error struct {
	Code     Code              // Machine-readable error code
	Message  string            // Human-readable message
	Metadata map[string]string // Additional context (field, index, action)
	Cause    error             // Wrapped underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a simple domain error with a code and message.
func New(code Code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Newf creates a domain error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// WithMetadata creates a domain error carrying metadata for callers that render it.
func WithMetadata(code Code, message string, metadata map[string]string) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Metadata: metadata,
	}
}

// Wrap creates a domain error that wraps an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Malformed reports a codec validation failure on the named field.
func Malformed(field, reason string) *Error {
	return WithMetadata(CodeMalformedInput,
		fmt.Sprintf("malformed input: field %q %s", field, reason),
		map[string]string{"field": field})
}

// CodeOf extracts the code of the first *Error in err's chain.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// Field returns the offending field recorded on a MalformedInput error.
func Field(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Metadata != nil {
		return appErr.Metadata["field"]
	}
	return ""
}
