package shared

import (
	"errors"
	"fmt"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	cause   error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause, if any
func (e *DomainError) Unwrap() error {
	return e.cause
}

// Is reports whether target is a DomainError with the same code, so a
// specific error such as "Product not found" still matches ErrNotFound.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound          = NewDomainError("NOT_FOUND", "Resource not found")
	ErrValidation        = NewDomainError("VALIDATION_ERROR", "Invalid input provided")
	ErrInsufficientStock = NewDomainError("INSUFFICIENT_STOCK", "Insufficient stock available")
	ErrInvalidQuantity   = NewDomainError("INVALID_QUANTITY", "Quantity must be greater than zero")
	ErrInvalidStatus     = NewDomainError("INVALID_STATUS", "Unknown order status")
	ErrPersistence       = NewDomainError("PERSISTENCE_ERROR", "Storage operation failed")
	ErrUnauthorized      = NewDomainError("UNAUTHORIZED", "Not authorized to perform this action")
	ErrDuplicateRequest  = NewDomainError("DUPLICATE_REQUEST", "Request with this idempotency key was already processed")
	ErrConcurrentUpdate  = NewDomainError("CONCURRENT_MODIFICATION", "The record has been modified by another request")
)

// NewValidationError creates a validation error with a specific message
func NewValidationError(message string) *DomainError {
	return NewDomainError(ErrValidation.Code, message)
}

// NewNotFoundError creates a not-found error naming the missing resource
func NewNotFoundError(resource string) *DomainError {
	return NewDomainError(ErrNotFound.Code, fmt.Sprintf("%s not found", resource))
}

// WrapPersistence wraps a store failure. Domain errors pass through untouched.
func WrapPersistence(err error) error {
	if err == nil {
		return nil
	}
	var de *DomainError
	if errors.As(err, &de) {
		return err
	}
	return &DomainError{
		Code:    ErrPersistence.Code,
		Message: ErrPersistence.Message,
		cause:   err,
	}
}
