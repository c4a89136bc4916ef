package service

import (
	"context"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
)

// AuditRecorder appends audit rows. It always writes through the repository handed in by the
// caller so the row commits or rolls back with the mutation it documents.
type AuditRecorder struct {
	clock Clock
}

// NewAuditRecorder creates the recorder.
func NewAuditRecorder(clock Clock) *AuditRecorder {
	return &AuditRecorder{clock: defaultClock(clock)}
}

// Record writes one entry. An error here must abort the surrounding transaction.
func (r *AuditRecorder) Record(ctx context.Context, repo repository.AuditLogRepository, action domain.AuditAction, details string, actorID, ticketID *string, ip, userAgent string) error {
	entry := &domain.AuditLog{
		Action:    action,
		Details:   details,
		UserID:    actorID,
		TicketID:  ticketID,
		IPAddress: ip,
		UserAgent: userAgent,
		CreatedAt: r.clock(),
	}
	return repo.Create(ctx, entry)
}

// RecordFor is Record with the actor's identity and request origin filled in.
func (r *AuditRecorder) RecordFor(ctx context.Context, repo repository.AuditLogRepository, actor Actor, action domain.AuditAction, details string, ticketID *string) error {
	return r.Record(ctx, repo, action, details, actor.UserID(), ticketID, actor.IP, actor.UserAgent)
}
