// Package apperrors carries the error taxonomy of the review workflow.
// Handlers map codes to HTTP statuses; services only deal in codes.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain failure.
type Code string

const (
	CodeNotFound     Code = "not_found"     // referenced report/user/category missing
	CodeForbidden    Code = "forbidden"     // ownership, role, or state violation
	CodeBusinessRule Code = "business_rule" // state-machine precondition failure
	CodeValidation   Code = "validation"    // missing or malformed input
	CodeInternal     Code = "internal"      // persistence / collaborator failure
)

// Error is a code-carrying error. Wrapped causes stay reachable via errors.Is.
type Error struct {
	Code Code
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a bare taxonomy error.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Msg: msg}
}

// Wrap attaches a taxonomy code to an underlying cause.
func Wrap(code Code, msg string, err error) *Error {
	return &Error{Code: code, Msg: msg, Err: err}
}

func NotFoundf(format string, args ...any) *Error {
	return New(CodeNotFound, fmt.Sprintf(format, args...))
}

func Forbiddenf(format string, args ...any) *Error {
	return New(CodeForbidden, fmt.Sprintf(format, args...))
}

func BusinessRulef(format string, args ...any) *Error {
	return New(CodeBusinessRule, fmt.Sprintf(format, args...))
}

func Validationf(format string, args ...any) *Error {
	return New(CodeValidation, fmt.Sprintf(format, args...))
}

// CodeOf extracts the taxonomy code of err, or CodeInternal for plain errors.
func CodeOf(err error) Code {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool { return CodeOf(err) == code }

// HTTPStatus maps a taxonomy code to its transport status.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeForbidden:
		return http.StatusForbidden
	case CodeBusinessRule:
		return http.StatusConflict
	case CodeValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
