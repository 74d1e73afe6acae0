// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"shopledger/internal/core/id"
)

// --- List Response ---

// ListResponse wraps a page of results.
type ListResponse[T any] struct {
	Items  []T `json:"items"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// NewListResponse never returns a null items array.
func NewListResponse[T any](items []T, limit, offset int) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Items: items, Limit: limit, Offset: offset}
}

// --- ID Response ---

// IDResponse for create operations.
type IDResponse struct {
	ID string `json:"id"`
}

// NewIDResponse creates ID response.
func NewIDResponse(i id.ID) IDResponse {
	return IDResponse{ID: i.String()}
}

// --- Success Response ---

// SuccessResponse for operations without data.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// --- Error Response ---

// ErrorResponse for error details.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ParseOptionalID parses an optional id field and names the field on failure.
func ParseOptionalID(field string, s *string) (*id.ID, error) {
	if s == nil {
		return nil, nil
	}
	v, err := id.ParseOptional(*s)
	if err != nil {
		return nil, &FieldError{Field: field, Value: *s}
	}
	return v, nil
}

// ParseID parses a required id field.
func ParseID(field, s string) (id.ID, error) {
	v, err := id.Parse(s)
	if err != nil {
		return id.ID{}, &FieldError{Field: field, Value: s}
	}
	return v, nil
}

// FieldError reports a malformed identifier in a request body.
type FieldError struct {
	Field string
	Value string
}

func (e *FieldError) Error() string {
	return "invalid " + e.Field + " format"
}
