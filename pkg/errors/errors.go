package errors

import (
	"fmt"
	"strings"
)

// ErrorType represents different types of errors in the system
type ErrorType string

const (
	// ErrorTypeNotFound indicates a resource was not found
	ErrorTypeNotFound ErrorType = "NOT_FOUND"

	// ErrorTypeValidation indicates a validation error
	ErrorTypeValidation ErrorType = "VALIDATION"

	// ErrorTypeConflict indicates a conflict with existing data
	ErrorTypeConflict ErrorType = "CONFLICT"

	// ErrorTypeUnauthorized indicates unauthorized access
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"

	// ErrorTypeInsufficientCredits indicates an organization has no credits
	// left for the requested billable action
	ErrorTypeInsufficientCredits ErrorType = "INSUFFICIENT_CREDITS"

	// ErrorTypeInvalidState indicates an entity is not in the status the
	// requested operation expects
	ErrorTypeInvalidState ErrorType = "INVALID_STATE"

	// ErrorTypeInternal indicates an internal server error
	ErrorTypeInternal ErrorType = "INTERNAL"

	// ErrorTypeExternal indicates an error from external service
	ErrorTypeExternal ErrorType = "EXTERNAL"
)

// AppError represents an application error
type AppError struct {
	Type    ErrorType
	Message string
	Err     error

	// MissingFields carries the complete list of missing required fields for
	// validation errors, never just the first one encountered.
	MissingFields []string

	// OrderID identifies the order an insufficient-credits error refers to,
	// so a client can retry billing without redoing the work.
	OrderID int64
}

// Error implements the error interface
func (e *AppError) Error() string {
	if len(e.MissingFields) > 0 {
		return fmt.Sprintf("%s: %s: missing fields: %s", e.Type, e.Message, strings.Join(e.MissingFields, ", "))
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements the unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// IsType reports whether err is an *AppError of the given type
func IsType(err error, t ErrorType) bool {
	appErr, ok := err.(*AppError)
	return ok && appErr.Type == t
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Message: message,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: message,
	}
}

// NewMissingFieldsError creates a validation error listing every missing field
func NewMissingFieldsError(message string, fields []string) *AppError {
	return &AppError{
		Type:          ErrorTypeValidation,
		Message:       message,
		MissingFields: fields,
	}
}

// NewConflictError creates a new conflict error
func NewConflictError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeConflict,
		Message: message,
	}
}

// NewUnauthorizedError creates a new unauthorized error
func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeUnauthorized,
		Message: message,
	}
}

// NewInsufficientCreditsError creates a new insufficient credits error
func NewInsufficientCreditsError(message string, orderID int64) *AppError {
	return &AppError{
		Type:    ErrorTypeInsufficientCredits,
		Message: message,
		OrderID: orderID,
	}
}

// NewInvalidStateError creates a new invalid state error
func NewInvalidStateError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeInvalidState,
		Message: message,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Err:     err,
	}
}

// NewExternalError creates a new external service error
func NewExternalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeExternal,
		Message: message,
		Err:     err,
	}
}
