// Package dto provides Data Transfer Objects for API requests/responses.
package dto

// --- Pagination ---

// PageQuery binds the page/limit query parameters.
type PageQuery struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}

// Defaults clamps pagination to sane values.
func (q *PageQuery) Defaults() {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = 50
	}
	if q.Limit > 200 {
		q.Limit = 200
	}
}

// Offset calculates the SQL offset.
func (q *PageQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// --- List Response ---

// ListResponse wraps list results with pagination.
type ListResponse struct {
	Items any   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Pages int   `json:"pages"`
}

// NewListResponse builds a list envelope from items and page math.
func NewListResponse(items any, total int64, page, pages int) ListResponse {
	return ListResponse{Items: items, Total: total, Page: page, Pages: pages}
}

// --- Error Response ---

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Detail string         `json:"detail"`
	Code   string         `json:"code"`
	Errors map[string]any `json:"errors,omitempty"`
}

// --- Success Response ---

// SuccessResponse for operations without data.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// SetDeletionMarkRequest toggles the soft-delete mark.
type SetDeletionMarkRequest struct {
	Marked bool `json:"marked"`
}
