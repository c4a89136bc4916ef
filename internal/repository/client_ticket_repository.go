package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// ClientTicketRepository stores public submissions.
type ClientTicketRepository interface {
	// NextSequence reserves the next reference sequence value.
	NextSequence(ctx context.Context) (int64, error)
	Create(ctx context.Context, client *domain.ClientTicket) error
	GetBySequence(ctx context.Context, seq int64) (*domain.ClientTicket, error)
	GetByTicketID(ctx context.Context, ticketID string) (*domain.ClientTicket, error)
}

type clientTicketRepository struct {
	db DBTX
}

// NewClientTicketRepository builds repository.
func NewClientTicketRepository(db DBTX) ClientTicketRepository {
	return &clientTicketRepository{db: db}
}

func (r *clientTicketRepository) NextSequence(ctx context.Context) (int64, error) {
	var seq int64
	err := r.db.QueryRow(ctx, `SELECT nextval('client_ticket_reference_seq')`).Scan(&seq)
	return seq, err
}

func (r *clientTicketRepository) Create(ctx context.Context, client *domain.ClientTicket) error {
	const query = `
        INSERT INTO client_tickets (sequence, reference_number, ticket_id, name, surname, phone, email, company,
            description, file_refs, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING id`
	fileRefs := client.FileRefs
	if fileRefs == nil {
		fileRefs = []string{}
	}
	return r.db.QueryRow(ctx, query,
		client.Sequence,
		client.ReferenceNumber,
		client.TicketID,
		client.Name,
		client.Surname,
		client.Phone,
		client.Email,
		client.Company,
		client.Description,
		fileRefs,
		client.CreatedAt,
	).Scan(&client.ID)
}

func (r *clientTicketRepository) GetBySequence(ctx context.Context, seq int64) (*domain.ClientTicket, error) {
	const query = `
        SELECT id, sequence, reference_number, ticket_id, name, surname, phone, email, company,
               description, file_refs, created_at
        FROM client_tickets WHERE sequence=$1`
	return scanClientTicket(r.db.QueryRow(ctx, query, seq))
}

func (r *clientTicketRepository) GetByTicketID(ctx context.Context, ticketID string) (*domain.ClientTicket, error) {
	const query = `
        SELECT id, sequence, reference_number, ticket_id, name, surname, phone, email, company,
               description, file_refs, created_at
        FROM client_tickets WHERE ticket_id=$1`
	return scanClientTicket(r.db.QueryRow(ctx, query, ticketID))
}

func scanClientTicket(row pgx.Row) (*domain.ClientTicket, error) {
	var client domain.ClientTicket
	if err := row.Scan(
		&client.ID,
		&client.Sequence,
		&client.ReferenceNumber,
		&client.TicketID,
		&client.Name,
		&client.Surname,
		&client.Phone,
		&client.Email,
		&client.Company,
		&client.Description,
		&client.FileRefs,
		&client.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &client, nil
}
