package domain

import (
	"time"

	"github.com/google/uuid"
)

// Comment content bounds.
const (
	CommentMinLen = 1
	CommentMaxLen = 5000
)

// TicketComment is a threaded message on a ticket. Internal comments are staff-only.
type TicketComment struct {
	ID         string
	TicketID   string
	AuthorID   string
	Content    string
	IsInternal bool
	IsDeleted  bool
	CreatedAt  time.Time
	UpdatedAt  *time.Time
}

// CanSeeInternalComments reports whether user may read internal comments on ticket.
func CanSeeInternalComments(user *User, ticket *Ticket) bool {
	return ticket.IsStaffFor(user)
}

// NewCommentID returns a time-ordered id. Ids of comments created in the same instant still sort
// in creation order.
func NewCommentID() string {
	return uuid.Must(uuid.NewV7()).String()
}
