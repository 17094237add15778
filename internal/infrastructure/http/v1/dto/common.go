// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"planbook/internal/domain"
)

// --- List query ---

// ListQuery contains common list parameters.
type ListQuery struct {
	Search  string  `form:"search"`
	Status  string  `form:"status"`
	IDs     []int64 `form:"ids"`
	OrderBy string  `form:"orderBy"`
	Limit   int     `form:"limit" binding:"omitempty,min=1,max=200"`
	Offset  int     `form:"offset" binding:"omitempty,min=0"`
}

// ToFilter converts query parameters to a domain filter.
func (q *ListQuery) ToFilter() domain.ListFilter {
	filter := domain.DefaultListFilter()
	filter.Search = q.Search
	filter.Status = q.Status
	filter.IDs = q.IDs
	filter.OrderBy = q.OrderBy
	if q.Limit > 0 {
		filter.Limit = q.Limit
	}
	filter.Offset = q.Offset
	return filter
}

// ListResponse wraps list results with pagination.
type ListResponse struct {
	Items      any   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// NewListResponse creates a list response from a domain result.
func NewListResponse[T any](result domain.ListResult[T]) ListResponse {
	items := result.Items
	if items == nil {
		items = []T{}
	}
	return ListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	}
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
