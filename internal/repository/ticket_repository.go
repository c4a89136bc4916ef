package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// TicketFilter captures listing parameters. VisibleTo, when set, restricts results to tickets the
// user created or is assigned to and is ANDed with every other clause.
type TicketFilter struct {
	Status       *domain.TicketStatus
	Priority     *domain.TicketPriority
	CategoryID   *string
	AssignedToID *string
	Search       string
	VisibleTo    *string
	Limit        int
	Offset       int
}

// TicketRepository encapsulates ticket persistence. Soft-deleted tickets are invisible to every
// read except ExistsByNumber.
type TicketRepository interface {
	// Create returns ErrDuplicateTicketNumber when another row already holds ticket.TicketNumber.
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	ExistsByNumber(ctx context.Context, number string) (bool, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, int, error)
	ListCreatedBetween(ctx context.Context, from, to time.Time) ([]domain.Ticket, error)
	ListOverdue(ctx context.Context, now time.Time) ([]domain.Ticket, error)
	CountActiveByCategory(ctx context.Context, categoryID string) (int, error)
	CountByStatusForCategory(ctx context.Context, categoryID string) (map[domain.TicketStatus]int, error)
	CountActiveByAssignee(ctx context.Context, assigneeIDs []string) (map[string]int, error)
}

const ticketColumns = `id, ticket_number, title, description, status, priority, category_id, created_by_id,
               assigned_to_id, is_deleted, resolution_notes, estimated_hours, actual_hours, created_at,
               updated_at, resolved_at, closed_at, sla_response_due, sla_resolution_due,
               sla_response_breached, sla_resolution_breached, first_response_at`

type ticketRepository struct {
	db DBTX
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(db DBTX) TicketRepository {
	return &ticketRepository{db: db}
}

// Create skips the insert instead of raising a unique violation, so a concurrent writer that took
// the same number leaves the transaction usable for another attempt.
func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (ticket_number, title, description, status, priority, category_id, created_by_id,
            assigned_to_id, resolution_notes, estimated_hours, actual_hours, created_at, updated_at,
            sla_response_due, sla_resolution_due)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
        ON CONFLICT (ticket_number) DO NOTHING
        RETURNING id`
	err := r.db.QueryRow(ctx, query,
		ticket.TicketNumber,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.CategoryID,
		ticket.CreatedByID,
		ticket.AssignedToID,
		ticket.ResolutionNotes,
		ticket.EstimatedHours,
		ticket.ActualHours,
		ticket.CreatedAt,
		ticket.UpdatedAt,
		ticket.SLAResponseDue,
		ticket.SLAResolutionDue,
	).Scan(&ticket.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrDuplicateTicketNumber
	}
	return err
}

// Update writes the whole row. Concurrent writers race with last-write-wins semantics.
func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET title=$1, description=$2, status=$3, priority=$4, category_id=$5,
            assigned_to_id=$6, is_deleted=$7, resolution_notes=$8, estimated_hours=$9, actual_hours=$10,
            updated_at=$11, resolved_at=$12, closed_at=$13, sla_response_due=$14, sla_resolution_due=$15,
            sla_response_breached=$16, sla_resolution_breached=$17, first_response_at=$18
        WHERE id=$19`
	cmd, err := r.db.Exec(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.CategoryID,
		ticket.AssignedToID,
		ticket.IsDeleted,
		ticket.ResolutionNotes,
		ticket.EstimatedHours,
		ticket.ActualHours,
		ticket.UpdatedAt,
		ticket.ResolvedAt,
		ticket.ClosedAt,
		ticket.SLAResponseDue,
		ticket.SLAResolutionDue,
		ticket.SLAResponseBreached,
		ticket.SLAResolutionBreached,
		ticket.FirstResponseAt,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1 AND is_deleted=FALSE`
	ticket, err := scanTicket(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

func (r *ticketRepository) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM tickets WHERE ticket_number=$1)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, number).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, int, error) {
	where, args := buildTicketWhere(filter)

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM tickets WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Ticket{}, 0, nil
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY created_at DESC, id DESC LIMIT %d OFFSET %d`,
		ticketColumns, where, limit, offset)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	tickets, err := scanTickets(rows)
	if err != nil {
		return nil, 0, err
	}
	return tickets, total, nil
}

// buildTicketWhere renders the listing predicate. Soft-deleted rows are always excluded.
func buildTicketWhere(filter TicketFilter) (string, []any) {
	clauses := []string{"is_deleted=FALSE"}
	args := []any{}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.Priority != nil {
		args = append(args, *filter.Priority)
		clauses = append(clauses, fmt.Sprintf("priority=$%d", len(args)))
	}
	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		clauses = append(clauses, fmt.Sprintf("category_id=$%d", len(args)))
	}
	if filter.AssignedToID != nil {
		args = append(args, *filter.AssignedToID)
		clauses = append(clauses, fmt.Sprintf("assigned_to_id=$%d", len(args)))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+escapeLike(strings.ToLower(search))+"%")
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf(
			"(LOWER(title) LIKE %[1]s OR LOWER(description) LIKE %[1]s OR LOWER(ticket_number) LIKE %[1]s)", placeholder))
	}
	if filter.VisibleTo != nil {
		args = append(args, *filter.VisibleTo)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(created_by_id=%[1]s OR assigned_to_id=%[1]s)", placeholder))
	}

	return strings.Join(clauses, " AND "), args
}

func escapeLike(term string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
}

func (r *ticketRepository) ListCreatedBetween(ctx context.Context, from, to time.Time) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + `
        FROM tickets WHERE is_deleted=FALSE AND created_at >= $1 AND created_at <= $2
        ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ListOverdue(ctx context.Context, now time.Time) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + `
        FROM tickets
        WHERE is_deleted=FALSE AND sla_resolution_breached=FALSE AND sla_resolution_due < $1
          AND status IN ($2,$3,$4)
        ORDER BY sla_resolution_due ASC`
	rows, err := r.db.Query(ctx, query, now,
		domain.TicketStatusOpen, domain.TicketStatusInProgress, domain.TicketStatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) CountActiveByCategory(ctx context.Context, categoryID string) (int, error) {
	const query = `
        SELECT COUNT(*) FROM tickets
        WHERE category_id=$1 AND is_deleted=FALSE AND status IN ($2,$3,$4)`
	var count int
	err := r.db.QueryRow(ctx, query, categoryID,
		domain.TicketStatusOpen, domain.TicketStatusInProgress, domain.TicketStatusPending,
	).Scan(&count)
	return count, err
}

func (r *ticketRepository) CountByStatusForCategory(ctx context.Context, categoryID string) (map[domain.TicketStatus]int, error) {
	const query = `
        SELECT status, COUNT(*) FROM tickets
        WHERE category_id=$1 AND is_deleted=FALSE
        GROUP BY status`
	rows, err := r.db.Query(ctx, query, categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.TicketStatus]int)
	for rows.Next() {
		var status domain.TicketStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func (r *ticketRepository) CountActiveByAssignee(ctx context.Context, assigneeIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(assigneeIDs))
	if len(assigneeIDs) == 0 {
		return counts, nil
	}
	const query = `
        SELECT assigned_to_id, COUNT(*) FROM tickets
        WHERE assigned_to_id = ANY($1) AND is_deleted=FALSE AND status IN ($2,$3,$4)
        GROUP BY assigned_to_id`
	rows, err := r.db.Query(ctx, query, assigneeIDs,
		domain.TicketStatusOpen, domain.TicketStatusInProgress, domain.TicketStatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var count int
		if err := rows.Scan(&id, &count); err != nil {
			return nil, err
		}
		counts[id] = count
	}
	return counts, rows.Err()
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.TicketNumber,
		&ticket.Title,
		&ticket.Description,
		&ticket.Status,
		&ticket.Priority,
		&ticket.CategoryID,
		&ticket.CreatedByID,
		&ticket.AssignedToID,
		&ticket.IsDeleted,
		&ticket.ResolutionNotes,
		&ticket.EstimatedHours,
		&ticket.ActualHours,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.ResolvedAt,
		&ticket.ClosedAt,
		&ticket.SLAResponseDue,
		&ticket.SLAResolutionDue,
		&ticket.SLAResponseBreached,
		&ticket.SLAResolutionBreached,
		&ticket.FirstResponseAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	result := []domain.Ticket{}
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}
