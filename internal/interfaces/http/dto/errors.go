package dto

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/shopfront/backend/internal/domain/sales"
	"github.com/shopfront/backend/internal/domain/shared"
)

// Wire error codes. Format: ERR_<DESCRIPTION>
const (
	ErrCodeInternal          = "ERR_INTERNAL"
	ErrCodeValidation        = "ERR_VALIDATION"
	ErrCodeBadRequest        = "ERR_BAD_REQUEST"
	ErrCodeNotFound          = "ERR_NOT_FOUND"
	ErrCodeInsufficientStock = "ERR_INSUFFICIENT_STOCK"
	ErrCodeInvalidQuantity   = "ERR_INVALID_QUANTITY"
	ErrCodeInvalidStatus     = "ERR_INVALID_STATUS"
	ErrCodePersistence       = "ERR_PERSISTENCE"
	ErrCodeUnauthorized      = "ERR_UNAUTHORIZED"
	ErrCodeTokenExpired      = "ERR_TOKEN_EXPIRED"
	ErrCodeDuplicateRequest  = "ERR_DUPLICATE_REQUEST"
	ErrCodeConcurrentUpdate  = "ERR_CONCURRENT_MODIFICATION"
	ErrCodeStorageDisabled   = "ERR_STORAGE_DISABLED"
	ErrCodeRequestTooLarge   = "ERR_REQUEST_TOO_LARGE"
	ErrCodeRateLimited       = "ERR_RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps wire codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:          http.StatusInternalServerError,
	ErrCodeValidation:        http.StatusBadRequest,
	ErrCodeBadRequest:        http.StatusBadRequest,
	ErrCodeNotFound:          http.StatusNotFound,
	ErrCodeInsufficientStock: http.StatusUnprocessableEntity,
	ErrCodeInvalidQuantity:   http.StatusUnprocessableEntity,
	ErrCodeInvalidStatus:     http.StatusBadRequest,
	ErrCodePersistence:       http.StatusInternalServerError,
	ErrCodeUnauthorized:      http.StatusUnauthorized,
	ErrCodeTokenExpired:      http.StatusUnauthorized,
	ErrCodeDuplicateRequest:  http.StatusConflict,
	ErrCodeConcurrentUpdate:  http.StatusConflict,
	ErrCodeStorageDisabled:   http.StatusServiceUnavailable,
	ErrCodeRequestTooLarge:   http.StatusRequestEntityTooLarge,
	ErrCodeRateLimited:       http.StatusTooManyRequests,
}

// domainCodeMapping maps domain error codes whose wire name differs
var domainCodeMapping = map[string]string{
	"VALIDATION_ERROR":  ErrCodeValidation,
	"PERSISTENCE_ERROR": ErrCodePersistence,
}

// NormalizeErrorCode converts a domain code to its ERR_ wire form.
// Codes already in wire form pass through unchanged.
func NormalizeErrorCode(code string) string {
	if mapped, ok := domainCodeMapping[code]; ok {
		return mapped
	}
	if code == "" {
		return ErrCodeInternal
	}
	if strings.HasPrefix(code, "ERR_") {
		return code
	}
	return "ERR_" + code
}

// GetHTTPStatus returns the HTTP status for a wire code. Unlisted INVALID_
// codes are client errors; anything else unknown is a server error.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	if strings.HasPrefix(code, "ERR_INVALID_") {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// ErrorToResponse converts an error returned by the application layer to an
// HTTP status and failure envelope. Persistence failures caused by a context
// deadline become 503.
func ErrorToResponse(err error) (int, ErrorResponse) {
	var lineErrs *sales.LineErrors
	if errors.As(err, &lineErrs) {
		code := NormalizeErrorCode(lineErrs.Code())
		details := make([]ErrorDetail, 0, len(lineErrs.Errors))
		for _, le := range lineErrs.Errors {
			line := le.Line
			details = append(details, ErrorDetail{
				Line:      &line,
				ProductID: le.ProductID.String(),
				Code:      NormalizeErrorCode(le.Code),
				Message:   le.Message,
			})
		}
		return GetHTTPStatus(code), NewErrorResponse(code, lineErrs.Error(), details...)
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := NormalizeErrorCode(domainErr.Code)
		status := GetHTTPStatus(code)
		if code == ErrCodePersistence && errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusServiceUnavailable
		}
		return status, NewErrorResponse(code, domainErr.Message)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusServiceUnavailable, NewErrorResponse(ErrCodePersistence, "The request timed out")
	}
	return http.StatusInternalServerError, NewErrorResponse(ErrCodeInternal, "An unexpected error occurred")
}
