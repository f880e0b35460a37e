package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code
type ErrorCode int

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
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

// Common error codes
const (
	ErrNotFound ErrorCode = iota + 1000
	ErrBadRequest
	ErrUnauthorized
	ErrForbidden
	ErrInternal
	ErrInvalidTransition
	ErrCaseClosed
	ErrTenantIsolation
	ErrChannelDelivery
)

func NotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func BadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    ErrBadRequest,
		Message: message,
		Err:     err,
	}
}

func Internal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: "internal server error",
		Err:     err,
	}
}

func Unauthorized(err error) *AppError {
	return &AppError{
		Code:    ErrUnauthorized,
		Message: "unauthorized",
		Err:     err,
	}
}

// InvalidTransition rejects an operation on a record whose status
// does not permit it (e.g. fulfilling an already fulfilled deadline).
func InvalidTransition(message string) *AppError {
	return &AppError{
		Code:    ErrInvalidTransition,
		Message: message,
	}
}

// CaseClosed rejects deadline creation against an archived case.
func CaseClosed(caseID string) *AppError {
	return &AppError{
		Code:    ErrCaseClosed,
		Message: fmt.Sprintf("case %s is archived", caseID),
	}
}

// TenantIsolation is a hard failure for cross-tenant access attempts.
// Callers must log it as a security-relevant event, never swallow it.
func TenantIsolation(resource string) *AppError {
	return &AppError{
		Code:    ErrTenantIsolation,
		Message: fmt.Sprintf("cross-tenant access to %s denied", resource),
	}
}

// ChannelDelivery wraps a transient adapter failure or timeout. The
// dispatch engine retries these up to its attempt budget.
func ChannelDelivery(channel string, err error) *AppError {
	return &AppError{
		Code:    ErrChannelDelivery,
		Message: fmt.Sprintf("delivery via %s failed", channel),
		Err:     err,
	}
}

// Code extracts the ErrorCode from err, or ErrInternal if err is not
// an AppError.
func Code(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrInternal
}

// Is reports whether err carries the given code.
func Is(err error, code ErrorCode) bool {
	return Code(err) == code
}
