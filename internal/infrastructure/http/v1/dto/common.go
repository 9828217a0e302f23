// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"easyadmin/internal/domain/query"
)

// --- List query ---

// QueryRequest is the body of every POST .../query endpoint: the filter
// channels, sorting and paging of a list screen.
type QueryRequest struct {
	query.Options
}

// NewQueryRequest returns a request pre-filled with the first page of the
// default size, so fields absent from the body keep those values.
func NewQueryRequest() QueryRequest {
	return QueryRequest{Options: query.DefaultOptions()}
}

// --- ID Response ---

// IDResponse for create operations.
type IDResponse struct {
	ID int64 `json:"id"`
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
