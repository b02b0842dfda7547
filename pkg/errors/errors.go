// Package errors provides structured error types for flowlens.
//
// Every failure that crosses a package boundary (store access, metadata
// resolution, drill-down navigation, API input handling) is reported as an
// [*Error] carrying a machine-readable [Code]. The HTTP layer maps codes to
// status codes with [HTTPStatus]; the CLI prints [UserMessage].
//
// # Error Codes
//
//   - TRANSPORT_ERROR: the document store could not be reached or failed mid-query
//   - CATALOG_UNAVAILABLE: a required metadata collection does not exist
//   - MALFORMED_INPUT: request or document shape is invalid
//   - NOT_FOUND: a workflow or session does not exist
//   - DRILLDOWN_CYCLE: drill-down target is already on the navigation trail
//   - INTERNAL_ERROR: anything unexpected
//
// # Usage
//
//	err := errors.New(errors.ErrCodeMalformedInput, "dbName is required")
//	if errors.Is(err, errors.ErrCodeMalformedInput) {
//	    // reject request
//	}
//
//	err := errors.Wrap(errors.ErrCodeTransport, cause, "list %s", collection)
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	ErrCodeTransport          Code = "TRANSPORT_ERROR"
	ErrCodeCatalogUnavailable Code = "CATALOG_UNAVAILABLE"
	ErrCodeMalformedInput     Code = "MALFORMED_INPUT"
	ErrCodeNotFound           Code = "NOT_FOUND"
	ErrCodeDrillDownCycle     Code = "DRILLDOWN_CYCLE"
	ErrCodeRateLimited        Code = "RATE_LIMITED"
	ErrCodeInternal           Code = "INTERNAL_ERROR"
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
		if e.Cause != nil {
			return fmt.Sprintf("%s: %v", e.Message, e.Cause)
		}
		return e.Message
	}
	return err.Error()
}

// HTTPStatus maps an error code to the HTTP status the API answers with.
// Unknown codes map to 500.
func HTTPStatus(code Code) int {
	switch code {
	case ErrCodeMalformedInput:
		return http.StatusBadRequest
	case ErrCodeNotFound, ErrCodeCatalogUnavailable:
		return http.StatusNotFound
	case ErrCodeDrillDownCycle:
		return http.StatusConflict
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// StatusOf is HTTPStatus(GetCode(err)).
func StatusOf(err error) int {
	return HTTPStatus(GetCode(err))
}
