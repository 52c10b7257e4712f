// Package domainerrors defines coded errors shared across the gate's
// services. Handlers translate codes to HTTP statuses; services never
// reference net/http directly.
package domainerrors

import "fmt"

// Code classifies a domain error for transport mapping and logging.
type Code string

const (
	CodeInvalidInput Code = "invalid_input"
	CodeRateLimited  Code = "rate_limited"
	CodeUnauthorized Code = "unauthorized"
	CodeInternal     Code = "internal_error"
)

// Error carries a code alongside the message so callers can branch on the
// class of failure without string matching.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a coded error with no underlying cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// CodeOf extracts the code from err, defaulting to CodeInternal for
// uncoded errors so unexpected failures never leak detail.
func CodeOf(err error) Code {
	if de, ok := err.(*Error); ok {
		return de.Code
	}
	return CodeInternal
}
