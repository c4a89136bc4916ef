package dto

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// ClientSubmitRequest is the public submission form.
type ClientSubmitRequest struct {
	Name        string   `json:"name" validate:"required"`
	Surname     string   `json:"surname" validate:"required"`
	Email       string   `json:"email" validate:"required,email"`
	Phone       string   `json:"phone" validate:"required"`
	Company     string   `json:"company"`
	Description string   `json:"description" validate:"required"`
	FileRefs    []string `json:"file_refs" validate:"omitempty,max=10"`
}

// ClientSubmitResponse returns the reference a client tracks.
type ClientSubmitResponse struct {
	ReferenceNumber string `json:"reference_number"`
	TicketNumber    string `json:"ticket_number"`
	Message         string `json:"message"`
}

// ClientTicketStatusResponse is the anonymous status view.
type ClientTicketStatusResponse struct {
	ReferenceNumber string              `json:"reference_number"`
	Status          domain.TicketStatus `json:"status"`
	SubmittedAt     time.Time           `json:"submitted_at"`
	Description     string              `json:"description"`
}
