// Package errors defines the typed application errors that the HTTP layer
// maps onto status codes.
package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeNotFound indicates a resource was not found
	ErrorTypeNotFound ErrorType = "not_found"
	// ErrorTypeValidation indicates invalid input data, including galaxy
	// parameters outside their valid domain
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeConflict indicates the request lost to a newer concurrent one
	ErrorTypeConflict ErrorType = "conflict"
	// ErrorTypeUnauthorized indicates a missing or invalid session
	ErrorTypeUnauthorized ErrorType = "unauthorized"
	// ErrorTypeForbidden indicates a viewer attempting an operator action
	ErrorTypeForbidden ErrorType = "forbidden"
	// ErrorTypeMethodNotAllowed indicates an unsupported HTTP method
	ErrorTypeMethodNotAllowed ErrorType = "method_not_allowed"
	// ErrorTypeRateLimited indicates the client exceeded its request budget
	ErrorTypeRateLimited ErrorType = "rate_limited"
	// ErrorTypeTimeout indicates work that did not finish within its deadline
	ErrorTypeTimeout ErrorType = "timeout"
	// ErrorTypeExternal indicates Postgres or Redis failed
	ErrorTypeExternal ErrorType = "external"
	// ErrorTypeInternal indicates an unexpected failure
	ErrorTypeInternal ErrorType = "internal"
)

// AppError is the base error type for application errors
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Exposed reports whether the wrapped cause may be shown to clients. Causes
// of server side failures stay in the logs.
func (e *AppError) Exposed() bool {
	switch e.Type {
	case ErrorTypeInternal, ErrorTypeExternal, ErrorTypeTimeout:
		return false
	default:
		return true
	}
}

func NotFoundf(format string, args ...any) error {
	return &AppError{Type: ErrorTypeNotFound, Message: fmt.Sprintf(format, args...)}
}

func Validationf(format string, args ...any) error {
	return &AppError{Type: ErrorTypeValidation, Message: fmt.Sprintf(format, args...)}
}

// WrapValidation wraps an error as a validation error
func WrapValidation(message string, err error) error {
	return &AppError{Type: ErrorTypeValidation, Message: message, Err: err}
}

func Conflict(message string) error {
	return &AppError{Type: ErrorTypeConflict, Message: message}
}

func Unauthorized(message string) error {
	return &AppError{Type: ErrorTypeUnauthorized, Message: message}
}

func Forbidden(message string) error {
	return &AppError{Type: ErrorTypeForbidden, Message: message}
}

func MethodNotAllowed(method string) error {
	return &AppError{
		Type:    ErrorTypeMethodNotAllowed,
		Message: fmt.Sprintf("method %s not allowed", method),
	}
}

func RateLimited(message string) error {
	return &AppError{Type: ErrorTypeRateLimited, Message: message}
}

// WrapTimeout wraps a deadline failure
func WrapTimeout(message string, err error) error {
	return &AppError{Type: ErrorTypeTimeout, Message: message, Err: err}
}

func External(message string) error {
	return &AppError{Type: ErrorTypeExternal, Message: message}
}

// WrapExternal wraps a Postgres or Redis failure
func WrapExternal(message string, err error) error {
	return &AppError{Type: ErrorTypeExternal, Message: message, Err: err}
}

// WrapInternal wraps an error as an internal error
func WrapInternal(message string, err error) error {
	return &AppError{Type: ErrorTypeInternal, Message: message, Err: err}
}

// GetType returns the error type of an error. Errors that are not AppErrors
// are internal.
func GetType(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeInternal
}

// ClientMessage returns the text safe to send to clients for err.
func ClientMessage(err error) string {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return "internal server error"
	}
	if appErr.Exposed() {
		return appErr.Error()
	}
	return appErr.Message
}
