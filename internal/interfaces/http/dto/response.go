package dto

import (
	"time"

	"github.com/unimerch/backend/internal/domain/shared"
)

// Response is the envelope every endpoint answers with
type Response struct {
	Success   bool               `json:"success"`
	Message   string             `json:"message,omitempty"`
	Data      any                `json:"data,omitempty"`
	Error     *ErrorInfo         `json:"error,omitempty"`
	Errors    []ValidationDetail `json:"errors,omitempty"`
	Meta      *Meta              `json:"meta,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}

// ErrorInfo represents error details
type ErrorInfo struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ValidationDetail is one rejected request field
type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Meta represents pagination metadata
type Meta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

var now = time.Now

// NewSuccessResponse creates a success response
func NewSuccessResponse(message string, data any) Response {
	return Response{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: now().UTC(),
	}
}

// NewPageResponse puts the items of p in data and its position in meta
func NewPageResponse[T any](message string, p shared.Page[T]) Response {
	items := p.Items
	if items == nil {
		items = []T{}
	}
	r := NewSuccessResponse(message, items)
	r.Meta = NewMeta(p.Total, p.Page, p.PageSize)
	return r
}

// NewMeta computes pagination metadata
func NewMeta(total int64, page, pageSize int) *Meta {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return &Meta{
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

// NewErrorResponse creates an error response
func NewErrorResponse(code, message, requestID string) Response {
	return Response{
		Success: false,
		Message: message,
		Error: &ErrorInfo{
			Code:      code,
			Message:   message,
			RequestID: requestID,
		},
		Timestamp: now().UTC(),
	}
}

// NewValidationErrorResponse creates a 400 body listing the rejected fields
func NewValidationErrorResponse(message, requestID string, details []ValidationDetail) Response {
	r := NewErrorResponse(ErrCodeValidation, message, requestID)
	r.Errors = details
	return r
}

// ListRequest carries the pagination query parameters
type ListRequest struct {
	Page  int `form:"page" binding:"omitempty,min=1"`
	Limit int `form:"limit" binding:"omitempty,min=1"`
}

// Pagination converts the request to a domain pagination with defaults applied
func (r ListRequest) Pagination() shared.Pagination {
	return shared.NewPagination(r.Page, r.Limit)
}
