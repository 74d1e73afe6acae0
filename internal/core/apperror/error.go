// Package apperror provides structured error handling following RFC 7807 Problem Details.
// All business errors must use AppError for consistent API responses.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	// Infrastructure errors (5xx)
	CodeInternal = "INTERNAL_ERROR"

	// Validation errors (400)
	CodeValidation    = "VALIDATION_ERROR"
	CodeInvalidAmount = "INVALID_AMOUNT"

	// Business rule violations (422)
	CodePriceExpired     = "PRICE_EXPIRED"
	CodeSupplierRequired = "SUPPLIER_REQUIRED"
	CodeCustomerRequired = "CUSTOMER_REQUIRED"

	// Authorization errors (401, 403)
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"

	// Conflict (409)
	CodeConflict            = "CONFLICT"
	CodeInvalidTransition   = "INVALID_STATUS_TRANSITION"
	CodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	CodeIdempotencyConflict = "IDEMPOTENCY_IN_PROGRESS"
	CodeIdempotencyMismatch = "IDEMPOTENCY_KEY_REUSED"
)

// AppError is the standard error type for the ledger engine.
// It implements error interface and provides structured details for API responses.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (field errors, amounts, ids)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions ---

// NewValidation creates a validation error (400)
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewInvalidAmount reports a non-positive amount where a positive one is required.
func NewInvalidAmount(field string, value any) *AppError {
	return &AppError{
		Code:       CodeInvalidAmount,
		Message:    fmt.Sprintf("%s must be positive", field),
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"field": field, "value": value},
	}
}

// NewNotFound creates a not found error (404)
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewBusinessRule creates a business rule violation error (422)
func NewBusinessRule(code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// NewPriceExpired is returned when the wholesale price for a customer has expired.
// The shop must be contacted; no fallback price is substituted.
func NewPriceExpired(productID, customerID any) *AppError {
	return NewBusinessRule(CodePriceExpired, "Wholesale price has expired").
		WithDetail("product_id", productID).
		WithDetail("customer_id", customerID)
}

// NewSupplierRequired is returned for a credit purchase without a supplier.
func NewSupplierRequired() *AppError {
	return NewBusinessRule(CodeSupplierRequired, "Supplier is required when the purchase is not fully paid")
}

// NewCustomerRequired is returned for a credit sale without a customer.
func NewCustomerRequired() *AppError {
	return NewBusinessRule(CodeCustomerRequired, "Customer is required when the sale is not fully paid")
}

// NewInvalidTransition creates an order status transition error (409)
func NewInvalidTransition(from, to string) *AppError {
	return &AppError{
		Code:       CodeInvalidTransition,
		Message:    fmt.Sprintf("cannot move order from %s to %s", from, to),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"from": from, "to": to},
	}
}

// NewConcurrencyConflict wraps a lock or serialization failure. Callers should retry.
func NewConcurrencyConflict(err error) *AppError {
	return &AppError{
		Code:       CodeConcurrencyConflict,
		Message:    "The record is being modified concurrently. Please retry.",
		HTTPStatus: http.StatusConflict,
		Err:        err,
	}
}

// NewInternal creates an internal server error (hides details from client)
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewUnauthorized creates an authentication error (401)
func NewUnauthorized(message string) *AppError {
	return &AppError{
		Code:       CodeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewForbidden creates an authorization error (403)
func NewForbidden(message string) *AppError {
	return &AppError{
		Code:       CodeForbidden,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
	}
}

// NewConflict creates a conflict error (409)
func NewConflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// NewIdempotencyConflict reports a key whose first request is still running (409).
func NewIdempotencyConflict(key string) *AppError {
	return &AppError{
		Code:       CodeIdempotencyConflict,
		Message:    "A request with this idempotency key is still being processed",
		Details:    map[string]any{"key": key},
		HTTPStatus: http.StatusConflict,
	}
}

// NewIdempotencyMismatch reports a key reused for a different request (422).
func NewIdempotencyMismatch(key string) *AppError {
	return &AppError{
		Code:       CodeIdempotencyMismatch,
		Message:    "Idempotency key was already used for a different request",
		Details:    map[string]any{"key": key},
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// --- Helper functions ---

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// GetHTTPStatus returns appropriate HTTP status for any error
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// IsNotFound checks if error is CodeNotFound
func IsNotFound(err error) bool {
	return HasCode(err, CodeNotFound)
}

// IsConflict checks if error is CodeConflict
func IsConflict(err error) bool {
	return HasCode(err, CodeConflict)
}

// IsConcurrencyConflict checks if error is CodeConcurrencyConflict
func IsConcurrencyConflict(err error) bool {
	return HasCode(err, CodeConcurrencyConflict)
}
