package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned by every repository when the requested row does not exist.
var ErrNotFound = pgx.ErrNoRows

// ErrDuplicateTicketNumber is returned by TicketRepository.Create when the number is already taken.
// The surrounding transaction stays usable.
var ErrDuplicateTicketNumber = errors.New("ticket number already taken")

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx so repositories can run inside or outside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repositories groups the stores a service needs for one unit of work.
type Repositories struct {
	Tickets       TicketRepository
	Categories    CategoryRepository
	Comments      CommentRepository
	ClientTickets ClientTicketRepository
	Audit         AuditLogRepository
	Users         UserRepository
	Attachments   AttachmentRepository
	Reports       ReportRepository
}

// NewRepositories binds every Postgres repository to db.
func NewRepositories(db DBTX) Repositories {
	return Repositories{
		Tickets:       NewTicketRepository(db),
		Categories:    NewCategoryRepository(db),
		Comments:      NewCommentRepository(db),
		ClientTickets: NewClientTicketRepository(db),
		Audit:         NewAuditLogRepository(db),
		Users:         NewUserRepository(db),
		Attachments:   NewAttachmentRepository(db),
		Reports:       NewReportRepository(db),
	}
}

// UnitOfWork runs a mutation and its audit record atomically.
type UnitOfWork interface {
	// Repos returns repositories bound to the shared connection pool for read paths.
	Repos() Repositories
	// WithinTx commits when fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

type pgUnitOfWork struct {
	pool  *pgxpool.Pool
	repos Repositories
}

// NewUnitOfWork returns a pgx backed unit of work.
func NewUnitOfWork(pool *pgxpool.Pool) UnitOfWork {
	return &pgUnitOfWork{pool: pool, repos: NewRepositories(pool)}
}

func (u *pgUnitOfWork) Repos() Repositories {
	return u.repos
}

func (u *pgUnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error {
	return pgx.BeginFunc(ctx, u.pool, func(tx pgx.Tx) error {
		return fn(ctx, NewRepositories(tx))
	})
}
