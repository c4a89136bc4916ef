package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// CategoryRepository persists ticket categories.
type CategoryRepository interface {
	Create(ctx context.Context, category *domain.TicketCategory) error
	Update(ctx context.Context, category *domain.TicketCategory) error
	GetByID(ctx context.Context, id string) (*domain.TicketCategory, error)
	GetByName(ctx context.Context, name string) (*domain.TicketCategory, error)
	ListActive(ctx context.Context) ([]domain.TicketCategory, error)
}

type categoryRepository struct {
	db DBTX
}

// NewCategoryRepository builds repository.
func NewCategoryRepository(db DBTX) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) Create(ctx context.Context, category *domain.TicketCategory) error {
	const query = `
        INSERT INTO ticket_categories (name, description, color, is_active, sla_response_hours, sla_resolution_hours, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id`
	return r.db.QueryRow(ctx, query,
		category.Name,
		category.Description,
		category.Color,
		category.IsActive,
		category.SLAResponseHours,
		category.SLAResolutionHours,
		category.CreatedAt,
	).Scan(&category.ID)
}

func (r *categoryRepository) Update(ctx context.Context, category *domain.TicketCategory) error {
	const query = `
        UPDATE ticket_categories SET name=$1, description=$2, color=$3, is_active=$4,
            sla_response_hours=$5, sla_resolution_hours=$6
        WHERE id=$7`
	cmd, err := r.db.Exec(ctx, query,
		category.Name,
		category.Description,
		category.Color,
		category.IsActive,
		category.SLAResponseHours,
		category.SLAResolutionHours,
		category.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *categoryRepository) GetByID(ctx context.Context, id string) (*domain.TicketCategory, error) {
	const query = `
        SELECT id, name, description, color, is_active, sla_response_hours, sla_resolution_hours, created_at
        FROM ticket_categories WHERE id=$1`
	return scanCategory(r.db.QueryRow(ctx, query, id))
}

// GetByName matches case-insensitively so names stay unique regardless of casing.
func (r *categoryRepository) GetByName(ctx context.Context, name string) (*domain.TicketCategory, error) {
	const query = `
        SELECT id, name, description, color, is_active, sla_response_hours, sla_resolution_hours, created_at
        FROM ticket_categories WHERE LOWER(name)=LOWER($1)`
	return scanCategory(r.db.QueryRow(ctx, query, name))
}

func (r *categoryRepository) ListActive(ctx context.Context) ([]domain.TicketCategory, error) {
	const query = `
        SELECT id, name, description, color, is_active, sla_response_hours, sla_resolution_hours, created_at
        FROM ticket_categories WHERE is_active=TRUE ORDER BY name ASC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.TicketCategory{}
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *category)
	}
	return result, rows.Err()
}

func scanCategory(row pgx.Row) (*domain.TicketCategory, error) {
	var category domain.TicketCategory
	if err := row.Scan(
		&category.ID,
		&category.Name,
		&category.Description,
		&category.Color,
		&category.IsActive,
		&category.SLAResponseHours,
		&category.SLAResolutionHours,
		&category.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &category, nil
}
