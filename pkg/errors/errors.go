// Package errors provides structured error types for techtree.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the engine, CLI and HTTP API
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Construction failures are fatal and carry one of two codes:
//   - MALFORMED_GRAPH: duplicate or empty node id, dangling prereq reference
//   - CYCLE_DETECTED: a node depends on itself transitively
//
// Runtime lookups of unknown node or session ids report NOT_FOUND. Toggling a
// locked node or asking for a layout on a degenerate viewport is never an error.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeNotFound, "unknown node %q", id)
//	if errors.Is(err, errors.ErrCodeNotFound) {
//	    // Handle missing node
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeMalformedGraph, dag.ErrUnknownPrereq, "node %q requires %q", id, p)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Graph construction errors
	ErrCodeMalformedGraph Code = "MALFORMED_GRAPH"
	ErrCodeCycleDetected  Code = "CYCLE_DETECTED"

	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"

	// Resource not found errors
	ErrCodeNotFound        Code = "NOT_FOUND"
	ErrCodeFileNotFound    Code = "FILE_NOT_FOUND"
	ErrCodeSessionNotFound Code = "SESSION_NOT_FOUND"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
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
// It unwraps the error chain looking for an *Error with a matching code.
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

// IsFatal reports whether err is a graph construction failure that leaves no
// usable engine behind. Callers must resupply corrected input.
func IsFatal(err error) bool {
	switch GetCode(err) {
	case ErrCodeMalformedGraph, ErrCodeCycleDetected:
		return true
	}
	return false
}

// HTTPStatus maps an error code to the status the API responds with.
func HTTPStatus(err error) int {
	switch GetCode(err) {
	case ErrCodeNotFound, ErrCodeSessionNotFound, ErrCodeFileNotFound:
		return 404
	case ErrCodeMalformedGraph, ErrCodeCycleDetected, ErrCodeInvalidInput, ErrCodeInvalidFormat:
		return 400
	case ErrCodeUnsupported:
		return 501
	}
	return 500
}
