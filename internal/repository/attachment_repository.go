package repository

import (
	"context"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// AttachmentRepository persists attachment metadata. File bytes live outside the record store.
type AttachmentRepository interface {
	Create(ctx context.Context, attachment *domain.TicketAttachment) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketAttachment, error)
}

type attachmentRepository struct {
	db DBTX
}

// NewAttachmentRepository constructs repository.
func NewAttachmentRepository(db DBTX) AttachmentRepository {
	return &attachmentRepository{db: db}
}

func (r *attachmentRepository) Create(ctx context.Context, attachment *domain.TicketAttachment) error {
	const query = `
        INSERT INTO ticket_attachments (ticket_id, filename, original_filename, file_size, mime_type, file_path,
            uploaded_by_id, uploaded_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id`
	return r.db.QueryRow(ctx, query,
		attachment.TicketID,
		attachment.Filename,
		attachment.OriginalFilename,
		attachment.FileSize,
		attachment.MimeType,
		attachment.FilePath,
		attachment.UploadedByID,
		attachment.UploadedAt,
	).Scan(&attachment.ID)
}

func (r *attachmentRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketAttachment, error) {
	const query = `
        SELECT id, ticket_id, filename, original_filename, file_size, mime_type, file_path, uploaded_by_id, uploaded_at
        FROM ticket_attachments WHERE ticket_id=$1 ORDER BY uploaded_at ASC`
	rows, err := r.db.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.TicketAttachment{}
	for rows.Next() {
		var attachment domain.TicketAttachment
		if err := rows.Scan(
			&attachment.ID,
			&attachment.TicketID,
			&attachment.Filename,
			&attachment.OriginalFilename,
			&attachment.FileSize,
			&attachment.MimeType,
			&attachment.FilePath,
			&attachment.UploadedByID,
			&attachment.UploadedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, attachment)
	}
	return result, rows.Err()
}
