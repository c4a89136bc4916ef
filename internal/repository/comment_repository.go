package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// CommentRepository manages ticket comments.
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.TicketComment) error
	Update(ctx context.Context, comment *domain.TicketComment) error
	GetByID(ctx context.Context, id string) (*domain.TicketComment, error)
	// ListByTicket returns live comments oldest first, including internal ones when includeInternal is set.
	ListByTicket(ctx context.Context, ticketID string, includeInternal bool) ([]domain.TicketComment, error)
	ListCreatedBetween(ctx context.Context, from, to time.Time) ([]domain.TicketComment, error)
}

type commentRepository struct {
	db DBTX
}

// NewCommentRepository builds repository.
func NewCommentRepository(db DBTX) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *domain.TicketComment) error {
	const query = `
        INSERT INTO ticket_comments (id, ticket_id, author_id, content, is_internal, created_at)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id`
	return r.db.QueryRow(ctx, query,
		domain.NewCommentID(),
		comment.TicketID,
		comment.AuthorID,
		comment.Content,
		comment.IsInternal,
		comment.CreatedAt,
	).Scan(&comment.ID)
}

func (r *commentRepository) Update(ctx context.Context, comment *domain.TicketComment) error {
	const query = `
        UPDATE ticket_comments SET content=$1, is_internal=$2, is_deleted=$3, updated_at=$4
        WHERE id=$5`
	cmd, err := r.db.Exec(ctx, query,
		comment.Content,
		comment.IsInternal,
		comment.IsDeleted,
		comment.UpdatedAt,
		comment.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// GetByID returns the comment even when soft-deleted so it can be restored.
func (r *commentRepository) GetByID(ctx context.Context, id string) (*domain.TicketComment, error) {
	const query = `
        SELECT id, ticket_id, author_id, content, is_internal, is_deleted, created_at, updated_at
        FROM ticket_comments WHERE id=$1`
	return scanComment(r.db.QueryRow(ctx, query, id))
}

func (r *commentRepository) ListByTicket(ctx context.Context, ticketID string, includeInternal bool) ([]domain.TicketComment, error) {
	const query = `
        SELECT id, ticket_id, author_id, content, is_internal, is_deleted, created_at, updated_at
        FROM ticket_comments
        WHERE ticket_id=$1 AND is_deleted=FALSE AND ($2 OR is_internal=FALSE)
        ORDER BY created_at ASC, id ASC`
	rows, err := r.db.Query(ctx, query, ticketID, includeInternal)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanComments(rows)
}

func (r *commentRepository) ListCreatedBetween(ctx context.Context, from, to time.Time) ([]domain.TicketComment, error) {
	const query = `
        SELECT id, ticket_id, author_id, content, is_internal, is_deleted, created_at, updated_at
        FROM ticket_comments
        WHERE is_deleted=FALSE AND created_at >= $1 AND created_at <= $2
        ORDER BY created_at DESC, id DESC`
	rows, err := r.db.Query(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanComments(rows)
}

func scanComment(row pgx.Row) (*domain.TicketComment, error) {
	var comment domain.TicketComment
	if err := row.Scan(
		&comment.ID,
		&comment.TicketID,
		&comment.AuthorID,
		&comment.Content,
		&comment.IsInternal,
		&comment.IsDeleted,
		&comment.CreatedAt,
		&comment.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &comment, nil
}

func scanComments(rows pgx.Rows) ([]domain.TicketComment, error) {
	result := []domain.TicketComment{}
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *comment)
	}
	return result, rows.Err()
}
