package dto

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title          string                `json:"title" validate:"required"`
	Description    string                `json:"description" validate:"required"`
	Priority       domain.TicketPriority `json:"priority" validate:"omitempty,oneof=Low Medium High Critical"`
	CategoryID     *string               `json:"category_id"`
	AssignedToID   *string               `json:"assigned_to_id"`
	EstimatedHours *float64              `json:"estimated_hours" validate:"omitempty,gte=0"`
}

// UpdateTicketRequest patches editable fields.
type UpdateTicketRequest struct {
	Title           *string  `json:"title"`
	Description     *string  `json:"description"`
	ResolutionNotes *string  `json:"resolution_notes"`
	EstimatedHours  *float64 `json:"estimated_hours" validate:"omitempty,gte=0"`
	ActualHours     *float64 `json:"actual_hours" validate:"omitempty,gte=0"`
}

// UpdateStatusRequest moves a ticket through its lifecycle.
type UpdateStatusRequest struct {
	Status        domain.TicketStatus `json:"status" validate:"required,oneof=Open 'In Progress' Pending Resolved Closed Cancelled"`
	ConfirmReopen bool                `json:"confirm_reopen"`
}

// UpdatePriorityRequest changes urgency.
type UpdatePriorityRequest struct {
	Priority domain.TicketPriority `json:"priority" validate:"required,oneof=Low Medium High Critical"`
}

// AssignTicketRequest sets or clears the assignee.
type AssignTicketRequest struct {
	AssigneeID *string `json:"assignee_id"`
}

// ChangeCategoryRequest sets or clears the category.
type ChangeCategoryRequest struct {
	CategoryID *string `json:"category_id"`
}

// TicketResponse is the full ticket view.
type TicketResponse struct {
	ID                    string                `json:"id"`
	TicketNumber          string                `json:"ticket_number"`
	Title                 string                `json:"title"`
	Description           string                `json:"description"`
	Status                domain.TicketStatus   `json:"status"`
	Priority              domain.TicketPriority `json:"priority"`
	CategoryID            *string               `json:"category_id"`
	CreatedByID           *string               `json:"created_by_id"`
	AssignedToID          *string               `json:"assigned_to_id"`
	ResolutionNotes       string                `json:"resolution_notes,omitempty"`
	EstimatedHours        *float64              `json:"estimated_hours"`
	ActualHours           *float64              `json:"actual_hours"`
	CreatedAt             time.Time             `json:"created_at"`
	UpdatedAt             time.Time             `json:"updated_at"`
	ResolvedAt            *time.Time            `json:"resolved_at"`
	ClosedAt              *time.Time            `json:"closed_at"`
	FirstResponseAt       *time.Time            `json:"first_response_at"`
	SLAResponseDue        *time.Time            `json:"sla_response_due"`
	SLAResolutionDue      *time.Time            `json:"sla_resolution_due"`
	SLAResponseBreached   bool                  `json:"sla_response_breached"`
	SLAResolutionBreached bool                  `json:"sla_resolution_breached"`
	SLAStatus             domain.SLAStatus      `json:"sla_status"`
}

// TicketListResponse is one page of tickets.
type TicketListResponse struct {
	Items      []TicketResponse `json:"items"`
	Pagination Pagination       `json:"pagination"`
}

// Pagination describes page metadata.
type Pagination struct {
	Page       int  `json:"page"`
	PerPage    int  `json:"per_page"`
	TotalCount int  `json:"total_count"`
	TotalPages int  `json:"total_pages"`
	HasPrev    bool `json:"has_prev"`
	HasNext    bool `json:"has_next"`
}

// AuditLogResponse is one audit entry.
type AuditLogResponse struct {
	ID        string             `json:"id"`
	Action    domain.AuditAction `json:"action"`
	Details   string             `json:"details"`
	UserID    *string            `json:"user_id"`
	TicketID  *string            `json:"ticket_id"`
	IPAddress string             `json:"ip_address"`
	UserAgent string             `json:"user_agent"`
	CreatedAt time.Time          `json:"created_at"`
}

// AttachmentResponse metadata.
type AttachmentResponse struct {
	ID               string    `json:"id"`
	Filename         string    `json:"filename"`
	OriginalFilename string    `json:"original_filename"`
	MimeType         string    `json:"mime_type"`
	FileSize         int64     `json:"file_size"`
	UploadedByID     string    `json:"uploaded_by_id"`
	UploadedAt       time.Time `json:"uploaded_at"`
}

// NewTicketResponse maps a ticket together with its evaluated SLA status.
func NewTicketResponse(t *domain.Ticket, sla domain.SLAStatus) TicketResponse {
	return TicketResponse{
		ID:                    t.ID,
		TicketNumber:          t.TicketNumber,
		Title:                 t.Title,
		Description:           t.Description,
		Status:                t.Status,
		Priority:              t.Priority,
		CategoryID:            t.CategoryID,
		CreatedByID:           t.CreatedByID,
		AssignedToID:          t.AssignedToID,
		ResolutionNotes:       t.ResolutionNotes,
		EstimatedHours:        t.EstimatedHours,
		ActualHours:           t.ActualHours,
		CreatedAt:             t.CreatedAt,
		UpdatedAt:             t.UpdatedAt,
		ResolvedAt:            t.ResolvedAt,
		ClosedAt:              t.ClosedAt,
		FirstResponseAt:       t.FirstResponseAt,
		SLAResponseDue:        t.SLAResponseDue,
		SLAResolutionDue:      t.SLAResolutionDue,
		SLAResponseBreached:   t.SLAResponseBreached,
		SLAResolutionBreached: t.SLAResolutionBreached,
		SLAStatus:             sla,
	}
}

// NewAuditLogResponse maps an audit entry.
func NewAuditLogResponse(a domain.AuditLog) AuditLogResponse {
	return AuditLogResponse{
		ID:        a.ID,
		Action:    a.Action,
		Details:   a.Details,
		UserID:    a.UserID,
		TicketID:  a.TicketID,
		IPAddress: a.IPAddress,
		UserAgent: a.UserAgent,
		CreatedAt: a.CreatedAt,
	}
}

// NewAttachmentResponse maps attachment metadata.
func NewAttachmentResponse(a domain.TicketAttachment) AttachmentResponse {
	return AttachmentResponse{
		ID:               a.ID,
		Filename:         a.Filename,
		OriginalFilename: a.OriginalFilename,
		MimeType:         a.MimeType,
		FileSize:         a.FileSize,
		UploadedByID:     a.UploadedByID,
		UploadedAt:       a.UploadedAt,
	}
}
