// Package apperr carries the structured rejection reasons reported to
// clients for every refused intent.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a machine-readable rejection category.
type Code string

const (
	CodeInvalidIntent      Code = "INVALID_INTENT"
	CodeInsufficientFunds  Code = "INSUFFICIENT_FUNDS"
	CodeNotFound           Code = "NOT_FOUND"
	CodeInvariantViolation Code = "INVARIANT_VIOLATION"
	CodeGameHalted         Code = "GAME_HALTED"
	CodeUnauthorized       Code = "UNAUTHORIZED"
	CodeInternal           Code = "INTERNAL"
)

// Sentinels for errors.Is checks. Matching is by code only.
var (
	ErrInvalidIntent      = &Error{Code: CodeInvalidIntent}
	ErrInsufficientFunds  = &Error{Code: CodeInsufficientFunds}
	ErrNotFound           = &Error{Code: CodeNotFound}
	ErrInvariantViolation = &Error{Code: CodeInvariantViolation}
	ErrGameHalted         = &Error{Code: CodeGameHalted}
	ErrUnauthorized       = &Error{Code: CodeUnauthorized}
)

// Error is a coded error with a human-readable reason.
type Error struct {
	Code   Code
	Reason string
	Cause  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Reason == "" {
		return string(e.Code)
	}
	return string(e.Code) + ": " + e.Reason
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

// New creates an error with a code and reason.
func New(code Code, reason string) *Error {
	return &Error{Code: code, Reason: reason}
}

// Newf creates an error with a formatted reason.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Reason: fmt.Sprintf(format, args...)}
}

// Wrap creates an error that wraps an underlying cause.
func Wrap(code Code, reason string, cause error) *Error {
	return &Error{Code: code, Reason: reason, Cause: cause}
}

// InvalidIntent reports an action that is not legal right now.
func InvalidIntent(format string, args ...any) *Error {
	return Newf(CodeInvalidIntent, format, args...)
}

// InsufficientFunds reports a purchase or bid the player cannot cover.
func InsufficientFunds(format string, args ...any) *Error {
	return Newf(CodeInsufficientFunds, format, args...)
}

// NotFound reports an unknown game, player or tile.
func NotFound(format string, args ...any) *Error {
	return Newf(CodeNotFound, format, args...)
}

// CodeOf extracts the code from err, or CodeInternal when err carries none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// ReasonOf extracts the client-facing reason from err.
func ReasonOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Reason != "" {
			return e.Reason
		}
		return string(e.Code)
	}
	return "internal error"
}

// HTTPStatus maps a code to the status used by the REST transport.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeInvalidIntent:
		return http.StatusConflict
	case CodeInsufficientFunds:
		return http.StatusPaymentRequired
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeGameHalted, CodeInvariantViolation:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
