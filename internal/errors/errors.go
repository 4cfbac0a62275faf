package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"runtime"
)

// AppError represents an application-specific error
type AppError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   string `json:"details,omitempty"`
	Cause     error  `json:"-"`
	File      string `json:"file,omitempty"`
	Line      int    `json:"line,omitempty"`
	Operation string `json:"operation,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppError creates a new application error
func NewAppError(code, message string, cause error) *AppError {
	return newAppError(code, message, cause, 2)
}

func newAppError(code, message string, cause error, skip int) *AppError {
	_, file, line, _ := runtime.Caller(skip)
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
		File:    file,
		Line:    line,
	}
}

// WithOperation adds operation context to the error
func (e *AppError) WithOperation(operation string) *AppError {
	e.Operation = operation
	return e
}

// WithDetails adds additional details to the error
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// Common error codes
const (
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeInvalidInput  = "INVALID_INPUT"
	ErrCodeUnauthorized  = "UNAUTHORIZED"
	ErrCodeForbidden     = "FORBIDDEN"
	ErrCodeInternalError = "INTERNAL_ERROR"
	ErrCodeUpstreamFetch = "UPSTREAM_FETCH_ERROR"
	ErrCodePersistence   = "PERSISTENCE_ERROR"
	ErrCodeConflict      = "CONFLICT"
)

// Common error constructors
func NotFound(message string, cause error) *AppError {
	return newAppError(ErrCodeNotFound, message, cause, 2)
}

// InvalidInput marks a request the caller must fix before retrying, such as a
// cohort that is too small or carries out-of-range skill ratings.
func InvalidInput(message string, cause error) *AppError {
	return newAppError(ErrCodeInvalidInput, message, cause, 2)
}

func Unauthorized(message string, cause error) *AppError {
	return newAppError(ErrCodeUnauthorized, message, cause, 2)
}

func Forbidden(message string, cause error) *AppError {
	return newAppError(ErrCodeForbidden, message, cause, 2)
}

func InternalError(message string, cause error) *AppError {
	return newAppError(ErrCodeInternalError, message, cause, 2)
}

// UpstreamFetch wraps a failure to load data from the store before any work began.
func UpstreamFetch(message string, cause error) *AppError {
	return newAppError(ErrCodeUpstreamFetch, message, cause, 2)
}

// Persistence wraps a failure to write results after scoring completed.
func Persistence(message string, cause error) *AppError {
	return newAppError(ErrCodePersistence, message, cause, 2)
}

func Conflict(message string, cause error) *AppError {
	return newAppError(ErrCodeConflict, message, cause, 2)
}

// CodeOf returns the code of the outermost AppError in err's chain, or
// ErrCodeInternalError when the chain carries none.
func CodeOf(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternalError
}

// Is reports whether err carries an AppError with the given code.
func Is(err error, code string) bool {
	return err != nil && CodeOf(err) == code
}

// HTTPStatus maps an error to the status code the API responds with.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case ErrCodeInvalidInput:
		return http.StatusBadRequest
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeConflict:
		return http.StatusConflict
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the user-facing message of the outermost AppError, falling back
// to err.Error().
func Message(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
