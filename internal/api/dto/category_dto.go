package dto

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// CreateCategoryRequest payload. Missing SLA hours fall back to the defaults.
type CreateCategoryRequest struct {
	Name               string `json:"name" validate:"required"`
	Description        string `json:"description"`
	Color              string `json:"color"`
	SLAResponseHours   *int   `json:"sla_response_hours"`
	SLAResolutionHours *int   `json:"sla_resolution_hours"`
}

// UpdateCategoryRequest patches a category.
type UpdateCategoryRequest struct {
	Name               *string `json:"name"`
	Description        *string `json:"description"`
	Color              *string `json:"color"`
	SLAResponseHours   *int    `json:"sla_response_hours"`
	SLAResolutionHours *int    `json:"sla_resolution_hours"`
	IsActive           *bool   `json:"is_active"`
}

// CategoryResponse is a category with its ticket counts.
type CategoryResponse struct {
	ID                 string         `json:"id"`
	Name               string         `json:"name"`
	Description        string         `json:"description"`
	Color              string         `json:"color"`
	IsActive           bool           `json:"is_active"`
	SLAResponseHours   int            `json:"sla_response_hours"`
	SLAResolutionHours int            `json:"sla_resolution_hours"`
	CreatedAt          time.Time      `json:"created_at"`
	StatusCounts       map[string]int `json:"status_counts,omitempty"`
	TotalTickets       *int           `json:"total_tickets,omitempty"`
}

// NewCategoryResponse maps a bare category.
func NewCategoryResponse(c *domain.TicketCategory) CategoryResponse {
	return CategoryResponse{
		ID:                 c.ID,
		Name:               c.Name,
		Description:        c.Description,
		Color:              c.Color,
		IsActive:           c.IsActive,
		SLAResponseHours:   c.SLAResponseHours,
		SLAResolutionHours: c.SLAResolutionHours,
		CreatedAt:          c.CreatedAt,
	}
}

// WithCounts attaches per-status ticket counts.
func (r CategoryResponse) WithCounts(counts map[domain.TicketStatus]int, total int) CategoryResponse {
	r.StatusCounts = make(map[string]int, len(counts))
	for status, n := range counts {
		r.StatusCounts[string(status)] = n
	}
	r.TotalTickets = &total
	return r
}
