package events

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated         EventType = "ticket_created"
	EventTicketStatusChanged   EventType = "ticket_status_changed"
	EventTicketPriorityChanged EventType = "ticket_priority_changed"
	EventTicketAssigned        EventType = "ticket_assigned"
	EventCommentAdded          EventType = "comment_added"
	EventSLABreached           EventType = "sla_breached"
	EventClientTicketSubmitted EventType = "client_ticket_submitted"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	UserID  *string `json:"user_id,omitempty"`
	IsAdmin bool    `json:"is_admin,omitempty"`
	System  bool    `json:"system,omitempty"`
}

// Event represents a domain event emitted by services after commit.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	TicketID  string    `json:"ticket_id"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	TicketNumber string                `json:"ticket_number"`
	Title        string                `json:"title"`
	Priority     domain.TicketPriority `json:"priority"`
	CategoryID   *string               `json:"category_id,omitempty"`
	AssignedToID *string               `json:"assigned_to_id,omitempty"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	TicketNumber string              `json:"ticket_number"`
	OldStatus    domain.TicketStatus `json:"old_status"`
	NewStatus    domain.TicketStatus `json:"new_status"`
	Reopened     bool                `json:"reopened,omitempty"`
}

// TicketPriorityChangedPayload payload.
type TicketPriorityChangedPayload struct {
	OldPriority domain.TicketPriority `json:"old_priority"`
	NewPriority domain.TicketPriority `json:"new_priority"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	PreviousAssigneeID *string `json:"previous_assignee_id,omitempty"`
	AssigneeID         *string `json:"assignee_id,omitempty"`
}

// CommentAddedPayload payload.
type CommentAddedPayload struct {
	CommentID   string `json:"comment_id"`
	AuthorID    string `json:"author_id"`
	IsInternal  bool   `json:"is_internal"`
	BodyPreview string `json:"body_preview"`
}

// SLABreachedPayload payload.
type SLABreachedPayload struct {
	Kind  string    `json:"kind"`
	DueAt time.Time `json:"due_at"`
}

// ClientTicketSubmittedPayload payload.
type ClientTicketSubmittedPayload struct {
	ReferenceNumber string `json:"reference_number"`
	Email           string `json:"email"`
	Name            string `json:"name"`
}
