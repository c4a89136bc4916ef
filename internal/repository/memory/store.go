// Package memory is an in-process implementation of the repository interfaces. Transactions take
// the store lock for their whole duration and restore a snapshot when the callback fails.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
)

// Store holds every table in memory.
type Store struct {
	mu        sync.Mutex
	data      *state
	clientSeq int64
	failures  map[string]error
}

type state struct {
	users       map[string]domain.User
	categories  map[string]domain.TicketCategory
	tickets     map[string]domain.Ticket
	comments    map[string]domain.TicketComment
	clients     map[string]domain.ClientTicket
	audit       []domain.AuditLog
	attachments []domain.TicketAttachment
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		data: &state{
			users:      map[string]domain.User{},
			categories: map[string]domain.TicketCategory{},
			tickets:    map[string]domain.Ticket{},
			comments:   map[string]domain.TicketComment{},
			clients:    map[string]domain.ClientTicket{},
		},
		failures: map[string]error{},
	}
}

// FailNext makes the next call of op return err. Ops are named "<table>.<method>", e.g. "audit.create".
func (s *Store) FailNext(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = err
}

// Repos returns repositories that lock per call.
func (s *Store) Repos() repository.Repositories {
	return s.repositories(false)
}

// WithinTx runs fn with exclusive access. Any error restores the state captured before fn ran.
// Sequences are not rolled back, matching Postgres.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	if err := fn(ctx, s.repositories(true)); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

func (s *Store) repositories(inTx bool) repository.Repositories {
	v := view{store: s, inTx: inTx}
	return repository.Repositories{
		Tickets:       ticketRepo{v},
		Categories:    categoryRepo{v},
		Comments:      commentRepo{v},
		ClientTickets: clientTicketRepo{v},
		Audit:         auditRepo{v},
		Users:         userRepo{v},
		Attachments:   attachmentRepo{v},
		Reports:       reportRepo{v},
	}
}

type view struct {
	store *Store
	inTx  bool
}

// acquire locks the store unless the caller already runs inside WithinTx.
func (v view) acquire() func() {
	if v.inTx {
		return func() {}
	}
	v.store.mu.Lock()
	return v.store.mu.Unlock
}

// fail must be called with the lock held.
func (v view) fail(op string) error {
	err, ok := v.store.failures[op]
	if !ok {
		return nil
	}
	delete(v.store.failures, op)
	return err
}

func newID() string {
	return uuid.NewString()
}

func (s *state) clone() *state {
	next := &state{
		users:       make(map[string]domain.User, len(s.users)),
		categories:  make(map[string]domain.TicketCategory, len(s.categories)),
		tickets:     make(map[string]domain.Ticket, len(s.tickets)),
		comments:    make(map[string]domain.TicketComment, len(s.comments)),
		clients:     make(map[string]domain.ClientTicket, len(s.clients)),
		audit:       append([]domain.AuditLog(nil), s.audit...),
		attachments: append([]domain.TicketAttachment(nil), s.attachments...),
	}
	for k, v := range s.users {
		next.users[k] = v
	}
	for k, v := range s.categories {
		next.categories[k] = v
	}
	for k, v := range s.tickets {
		next.tickets[k] = v
	}
	for k, v := range s.comments {
		next.comments[k] = v
	}
	for k, v := range s.clients {
		v.FileRefs = append([]string(nil), v.FileRefs...)
		next.clients[k] = v
	}
	return next
}
