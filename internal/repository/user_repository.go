package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// UserFilter narrows user listings.
type UserFilter struct {
	IsAdmin  *bool
	IsActive *bool
	Search   string
	Limit    int
	Offset   int
}

// UserRepository defines persistence access for accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	List(ctx context.Context, filter UserFilter) ([]domain.User, int, error)
	ListActiveAdmins(ctx context.Context) ([]domain.User, error)
	TouchLastSeen(ctx context.Context, id string, at time.Time) error
}

type userRepository struct {
	db DBTX
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(db DBTX) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, username, email, password_hash, is_admin, is_active, created_at, last_seen`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (username, email, password_hash, is_admin, is_active, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id`

	return r.db.QueryRow(ctx, query,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.IsAdmin,
		user.IsActive,
		user.CreatedAt,
	).Scan(&user.ID)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(email)=LOWER($1)`, email))
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username=$1`, username))
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users SET username=$1, email=$2, password_hash=$3, is_admin=$4, is_active=$5
        WHERE id=$6`
	cmd, err := r.db.Exec(ctx, query,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.IsAdmin,
		user.IsActive,
		user.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) List(ctx context.Context, filter UserFilter) ([]domain.User, int, error) {
	clauses := []string{"TRUE"}
	args := []any{}
	idx := 1
	if filter.IsAdmin != nil {
		clauses = append(clauses, fmt.Sprintf("is_admin=$%d", idx))
		args = append(args, *filter.IsAdmin)
		idx++
	}
	if filter.IsActive != nil {
		clauses = append(clauses, fmt.Sprintf("is_active=$%d", idx))
		args = append(args, *filter.IsActive)
		idx++
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		clauses = append(clauses, fmt.Sprintf("(LOWER(username) LIKE $%d OR LOWER(email) LIKE $%d)", idx, idx))
		args = append(args, "%"+escapeLike(strings.ToLower(term))+"%")
		idx++
	}
	where := strings.Join(clauses, " AND ")

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM users WHERE %s ORDER BY username ASC LIMIT $%d OFFSET $%d`,
		userColumns, where, idx, idx+1)
	rows, err := r.db.Query(ctx, query, append(args, filter.Limit, filter.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	result := []domain.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *user)
	}
	return result, total, rows.Err()
}

func (r *userRepository) ListActiveAdmins(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE is_admin=TRUE AND is_active=TRUE ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *user)
	}
	return result, rows.Err()
}

func (r *userRepository) TouchLastSeen(ctx context.Context, id string, at time.Time) error {
	cmd, err := r.db.Exec(ctx, `UPDATE users SET last_seen=$1 WHERE id=$2`, at, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.IsAdmin,
		&user.IsActive,
		&user.CreatedAt,
		&user.LastSeen,
	); err != nil {
		return nil, err
	}
	return &user, nil
}
