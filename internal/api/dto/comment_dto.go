package dto

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// AddCommentRequest payload.
type AddCommentRequest struct {
	Content    string `json:"content" validate:"required"`
	IsInternal bool   `json:"is_internal"`
}

// EditCommentRequest payload. A nil is_internal keeps the current flag.
type EditCommentRequest struct {
	Content    string `json:"content" validate:"required"`
	IsInternal *bool  `json:"is_internal"`
}

// CommentResponse is a visible comment.
type CommentResponse struct {
	ID         string     `json:"id"`
	TicketID   string     `json:"ticket_id"`
	AuthorID   string     `json:"author_id"`
	Content    string     `json:"content"`
	IsInternal bool       `json:"is_internal"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at"`
}

// NewCommentResponse maps a comment.
func NewCommentResponse(c domain.TicketComment) CommentResponse {
	return CommentResponse{
		ID:         c.ID,
		TicketID:   c.TicketID,
		AuthorID:   c.AuthorID,
		Content:    c.Content,
		IsInternal: c.IsInternal,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}
