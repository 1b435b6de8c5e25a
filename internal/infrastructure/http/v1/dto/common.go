// Package dto provides Data Transfer Objects for API requests and
// responses. Money travels as integer minor units (cents); quantities
// travel as fixed-point decimal values.
package dto

// ListResponse wraps list results.
type ListResponse[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}

// NewListResponse creates a list response.
func NewListResponse[T any](items []T) ListResponse[T] {
	return ListResponse[T]{Items: items, Count: len(items)}
}

// IDResponse is the minimal response for create operations.
type IDResponse struct {
	ID string `json:"id"`
}
