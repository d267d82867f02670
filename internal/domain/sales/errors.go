package sales

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/shared"
)

// LineError describes why one requested line could not be reserved
type LineError struct {
	Line      int       `json:"line"`
	ProductID uuid.UUID `json:"productId"`
	Code      string    `json:"code"`
	Message   string    `json:"message"`
}

func newLineError(line int, productID uuid.UUID, cause *shared.DomainError, message string) LineError {
	return LineError{
		Line:      line,
		ProductID: productID,
		Code:      cause.Code,
		Message:   message,
	}
}

// LineErrors rejects a whole order. It unwraps to the sentinel of every
// failed line, so errors.Is(err, shared.ErrInsufficientStock) works.
type LineErrors struct {
	Errors []LineError
}

// Error implements the error interface
func (e *LineErrors) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("order rejected: %s", e.Errors[0].Message)
	}
	return fmt.Sprintf("order rejected: %d lines failed", len(e.Errors))
}

// Unwrap exposes the line sentinels to errors.Is
func (e *LineErrors) Unwrap() []error {
	errs := make([]error, 0, len(e.Errors))
	for _, le := range e.Errors {
		errs = append(errs, shared.NewDomainError(le.Code, le.Message))
	}
	return errs
}

// Code returns the code of the first failed line
func (e *LineErrors) Code() string {
	if len(e.Errors) == 0 {
		return shared.ErrValidation.Code
	}
	return e.Errors[0].Code
}
