package apperr

import (
	"errors"
	"fmt"
)

// AppError is a structured error carrying a stable code that the HTTP and MCP
// surfaces translate into status codes and tool errors.
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

const (
	CodeConfigInvalid   = "CONFIG_INVALID"
	CodeValidationError = "VALIDATION_ERROR"
	CodeLookupError     = "LOOKUP_ERROR"
	CodeNotFound        = "NOT_FOUND"
	CodeNonConvergence  = "NON_CONVERGENCE"
	CodeInvalidInput    = "INVALID_INPUT"
	CodeInternalError   = "INTERNAL_ERROR"
)

func New(code, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

func Newf(code, format string, args ...interface{}) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap adds context to err, keeping the code of an inner AppError.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return &AppError{Code: appErr.Code, Message: message, Cause: err}
	}
	return &AppError{Code: CodeInternalError, Message: message, Cause: err}
}

func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WithCode re-labels err with code.
func WithCode(code string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return &AppError{Code: code, Message: appErr.Message, Cause: appErr.Cause}
	}
	return &AppError{Code: code, Message: err.Error(), Cause: err}
}

// GetCode returns the code of the outermost AppError in the chain, or "UNKNOWN".
func GetCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return "UNKNOWN"
}

// Is reports whether err carries code.
func Is(err error, code string) bool {
	return GetCode(err) == code
}

func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func Validation(format string, args ...interface{}) *AppError {
	return Newf(CodeValidationError, format, args...)
}

func Lookup(format string, args ...interface{}) *AppError {
	return Newf(CodeLookupError, format, args...)
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

func NonConvergence(format string, args ...interface{}) *AppError {
	return Newf(CodeNonConvergence, format, args...)
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}
