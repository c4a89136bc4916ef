package domain

import "time"

// AuditAction enumerates the kinds of audited mutations.
type AuditAction string

const (
	AuditActionCreated         AuditAction = "Created"
	AuditActionUpdated         AuditAction = "Updated"
	AuditActionDeleted         AuditAction = "Deleted"
	AuditActionAssigned        AuditAction = "Assigned"
	AuditActionCommented       AuditAction = "Commented"
	AuditActionStatusChanged   AuditAction = "Status Changed"
	AuditActionPriorityChanged AuditAction = "Priority Changed"
)

// AuditLog is an immutable record of one mutating action.
type AuditLog struct {
	ID        string
	Action    AuditAction
	Details   string
	UserID    *string
	TicketID  *string
	IPAddress string
	UserAgent string
	CreatedAt time.Time
}
