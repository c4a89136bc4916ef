package repository

import (
	"context"
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// TicketStats aggregates live tickets for the dashboard. ByCategory is keyed by category id with
// uncategorized tickets under "".
type TicketStats struct {
	Total        int
	ByStatus     map[domain.TicketStatus]int
	ByPriority   map[domain.TicketPriority]int
	ByCategory   map[string]int
	Breached     int
	Approaching  int
	CreatedSince int
}

// UserStats counts active accounts and those seen recently.
type UserStats struct {
	Active    int
	SeenSince int
}

// ReportRepository runs read-only aggregate queries.
type ReportRepository interface {
	TicketStats(ctx context.Context, since, approachingBy time.Time) (*TicketStats, error)
	UserStats(ctx context.Context, since time.Time) (*UserStats, error)
	CountCommentsSince(ctx context.Context, since time.Time) (int, error)
}

type reportRepository struct {
	db DBTX
}

// NewReportRepository constructs repository.
func NewReportRepository(db DBTX) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) TicketStats(ctx context.Context, since, approachingBy time.Time) (*TicketStats, error) {
	stats := &TicketStats{
		ByStatus:   map[domain.TicketStatus]int{},
		ByPriority: map[domain.TicketPriority]int{},
		ByCategory: map[string]int{},
	}

	const totals = `
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE sla_response_breached OR sla_resolution_breached),
               COUNT(*) FILTER (WHERE status IN ($2,$3,$4) AND sla_resolution_breached=FALSE
                                  AND sla_resolution_due IS NOT NULL AND sla_resolution_due <= $1),
               COUNT(*) FILTER (WHERE created_at >= $5)
        FROM tickets WHERE is_deleted=FALSE`
	err := r.db.QueryRow(ctx, totals, approachingBy,
		domain.TicketStatusOpen, domain.TicketStatusInProgress, domain.TicketStatusPending, since,
	).Scan(&stats.Total, &stats.Breached, &stats.Approaching, &stats.CreatedSince)
	if err != nil {
		return nil, err
	}

	const grouped = `
        SELECT status, priority, COALESCE(category_id::text, ''), COUNT(*)
        FROM tickets WHERE is_deleted=FALSE
        GROUP BY status, priority, category_id`
	rows, err := r.db.Query(ctx, grouped)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			status     domain.TicketStatus
			priority   domain.TicketPriority
			categoryID string
			count      int
		)
		if err := rows.Scan(&status, &priority, &categoryID, &count); err != nil {
			return nil, err
		}
		stats.ByStatus[status] += count
		stats.ByPriority[priority] += count
		stats.ByCategory[categoryID] += count
	}
	return stats, rows.Err()
}

func (r *reportRepository) UserStats(ctx context.Context, since time.Time) (*UserStats, error) {
	const query = `
        SELECT COUNT(*), COUNT(*) FILTER (WHERE last_seen >= $1)
        FROM users WHERE is_active=TRUE`
	stats := &UserStats{}
	if err := r.db.QueryRow(ctx, query, since).Scan(&stats.Active, &stats.SeenSince); err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *reportRepository) CountCommentsSince(ctx context.Context, since time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM ticket_comments WHERE is_deleted=FALSE AND created_at >= $1`
	var count int
	err := r.db.QueryRow(ctx, query, since).Scan(&count)
	return count, err
}
