package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// AuditLogRepository stores append-only audit entries. There is deliberately no update or delete.
type AuditLogRepository interface {
	Create(ctx context.Context, entry *domain.AuditLog) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.AuditLog, error)
	ListBetween(ctx context.Context, from, to time.Time) ([]domain.AuditLog, error)
}

type auditLogRepository struct {
	db DBTX
}

// NewAuditLogRepository builds repository.
func NewAuditLogRepository(db DBTX) AuditLogRepository {
	return &auditLogRepository{db: db}
}

func (r *auditLogRepository) Create(ctx context.Context, entry *domain.AuditLog) error {
	const query = `
        INSERT INTO audit_logs (action, details, user_id, ticket_id, ip_address, user_agent, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id`
	return r.db.QueryRow(ctx, query,
		entry.Action,
		entry.Details,
		entry.UserID,
		entry.TicketID,
		entry.IPAddress,
		entry.UserAgent,
		entry.CreatedAt,
	).Scan(&entry.ID)
}

func (r *auditLogRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.AuditLog, error) {
	const query = `
        SELECT id, action, details, user_id, ticket_id, ip_address, user_agent, created_at
        FROM audit_logs WHERE ticket_id=$1 ORDER BY created_at ASC, seq ASC`
	rows, err := r.db.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAuditLogs(rows)
}

func (r *auditLogRepository) ListBetween(ctx context.Context, from, to time.Time) ([]domain.AuditLog, error) {
	const query = `
        SELECT id, action, details, user_id, ticket_id, ip_address, user_agent, created_at
        FROM audit_logs WHERE created_at >= $1 AND created_at <= $2 ORDER BY created_at DESC, seq DESC`
	rows, err := r.db.Query(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAuditLogs(rows)
}

func scanAuditLogs(rows pgx.Rows) ([]domain.AuditLog, error) {
	result := []domain.AuditLog{}
	for rows.Next() {
		var entry domain.AuditLog
		if err := rows.Scan(
			&entry.ID,
			&entry.Action,
			&entry.Details,
			&entry.UserID,
			&entry.TicketID,
			&entry.IPAddress,
			&entry.UserAgent,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
