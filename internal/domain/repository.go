// Package domain provides shared types for the business layer.
package domain

// ListFilter contains common filtering options for list operations.
type ListFilter struct {
	// Search performs a substring match on searchable text fields
	Search string

	// IDs filters by specific record IDs
	IDs []int64

	// Status filters by status value where the entity has one
	Status string

	// OrderBy specifies sorting (e.g. "title", "-created_at")
	OrderBy string

	// Pagination
	Limit  int
	Offset int
}

// DefaultListFilter returns sensible defaults.
func DefaultListFilter() ListFilter {
	return ListFilter{
		Limit: 50,
	}
}

// ListResult contains paginated results.
type ListResult[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}
