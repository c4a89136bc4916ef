package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
)

type ticketRepo struct{ view }

func (r ticketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	defer r.acquire()()
	if err := r.fail("tickets.create"); err != nil {
		return err
	}
	for _, existing := range r.store.data.tickets {
		if existing.TicketNumber == ticket.TicketNumber {
			return repository.ErrDuplicateTicketNumber
		}
	}
	ticket.ID = newID()
	r.store.data.tickets[ticket.ID] = copyTicket(*ticket)
	return nil
}

func (r ticketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	defer r.acquire()()
	if err := r.fail("tickets.update"); err != nil {
		return err
	}
	existing, ok := r.store.data.tickets[ticket.ID]
	if !ok {
		return repository.ErrNotFound
	}
	next := copyTicket(*ticket)
	next.TicketNumber = existing.TicketNumber
	next.CreatedByID = existing.CreatedByID
	next.CreatedAt = existing.CreatedAt
	r.store.data.tickets[ticket.ID] = next
	return nil
}

func (r ticketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	defer r.acquire()()
	if err := r.fail("tickets.get"); err != nil {
		return nil, err
	}
	ticket, ok := r.store.data.tickets[id]
	if !ok || ticket.IsDeleted {
		return nil, repository.ErrNotFound
	}
	out := copyTicket(ticket)
	return &out, nil
}

func (r ticketRepo) ExistsByNumber(_ context.Context, number string) (bool, error) {
	defer r.acquire()()
	if err := r.fail("tickets.exists"); err != nil {
		return false, err
	}
	for _, ticket := range r.store.data.tickets {
		if ticket.TicketNumber == number {
			return true, nil
		}
	}
	return false, nil
}

func (r ticketRepo) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, int, error) {
	defer r.acquire()()
	if err := r.fail("tickets.list"); err != nil {
		return nil, 0, err
	}

	matched := r.collect(func(t domain.Ticket) bool { return matchesFilter(t, filter) })
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	total := len(matched)
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return []domain.Ticket{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func matchesFilter(t domain.Ticket, filter repository.TicketFilter) bool {
	if t.IsDeleted {
		return false
	}
	if filter.Status != nil && t.Status != *filter.Status {
		return false
	}
	if filter.Priority != nil && t.Priority != *filter.Priority {
		return false
	}
	if filter.CategoryID != nil && !equalPtr(t.CategoryID, *filter.CategoryID) {
		return false
	}
	if filter.AssignedToID != nil && !equalPtr(t.AssignedToID, *filter.AssignedToID) {
		return false
	}
	if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
		if !strings.Contains(strings.ToLower(t.Title), search) &&
			!strings.Contains(strings.ToLower(t.Description), search) &&
			!strings.Contains(strings.ToLower(t.TicketNumber), search) {
			return false
		}
	}
	if filter.VisibleTo != nil && !t.IsCreator(*filter.VisibleTo) && !t.IsAssignee(*filter.VisibleTo) {
		return false
	}
	return true
}

func (r ticketRepo) ListCreatedBetween(_ context.Context, from, to time.Time) ([]domain.Ticket, error) {
	defer r.acquire()()
	result := r.collect(func(t domain.Ticket) bool {
		return !t.IsDeleted && !t.CreatedAt.Before(from) && !t.CreatedAt.After(to)
	})
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (r ticketRepo) ListOverdue(_ context.Context, now time.Time) ([]domain.Ticket, error) {
	defer r.acquire()()
	if err := r.fail("tickets.overdue"); err != nil {
		return nil, err
	}
	result := r.collect(func(t domain.Ticket) bool {
		return !t.IsDeleted && !t.SLAResolutionBreached && t.Status.IsActive() &&
			t.SLAResolutionDue != nil && t.SLAResolutionDue.Before(now)
	})
	sort.Slice(result, func(i, j int) bool { return result[i].SLAResolutionDue.Before(*result[j].SLAResolutionDue) })
	return result, nil
}

func (r ticketRepo) CountActiveByCategory(_ context.Context, categoryID string) (int, error) {
	defer r.acquire()()
	count := 0
	for _, t := range r.store.data.tickets {
		if !t.IsDeleted && t.Status.IsActive() && equalPtr(t.CategoryID, categoryID) {
			count++
		}
	}
	return count, nil
}

func (r ticketRepo) CountByStatusForCategory(_ context.Context, categoryID string) (map[domain.TicketStatus]int, error) {
	defer r.acquire()()
	counts := map[domain.TicketStatus]int{}
	for _, t := range r.store.data.tickets {
		if !t.IsDeleted && equalPtr(t.CategoryID, categoryID) {
			counts[t.Status]++
		}
	}
	return counts, nil
}

func (r ticketRepo) CountActiveByAssignee(_ context.Context, assigneeIDs []string) (map[string]int, error) {
	defer r.acquire()()
	counts := make(map[string]int, len(assigneeIDs))
	wanted := make(map[string]struct{}, len(assigneeIDs))
	for _, id := range assigneeIDs {
		wanted[id] = struct{}{}
	}
	for _, t := range r.store.data.tickets {
		if t.IsDeleted || !t.Status.IsActive() || t.AssignedToID == nil {
			continue
		}
		if _, ok := wanted[*t.AssignedToID]; ok {
			counts[*t.AssignedToID]++
		}
	}
	return counts, nil
}

// collect must be called with the lock held.
func (r ticketRepo) collect(keep func(domain.Ticket) bool) []domain.Ticket {
	result := []domain.Ticket{}
	for _, t := range r.store.data.tickets {
		if keep(t) {
			result = append(result, copyTicket(t))
		}
	}
	return result
}

func copyTicket(t domain.Ticket) domain.Ticket {
	t.CategoryID = clonePtr(t.CategoryID)
	t.CreatedByID = clonePtr(t.CreatedByID)
	t.AssignedToID = clonePtr(t.AssignedToID)
	t.EstimatedHours = clonePtr(t.EstimatedHours)
	t.ActualHours = clonePtr(t.ActualHours)
	t.ResolvedAt = clonePtr(t.ResolvedAt)
	t.ClosedAt = clonePtr(t.ClosedAt)
	t.SLAResponseDue = clonePtr(t.SLAResponseDue)
	t.SLAResolutionDue = clonePtr(t.SLAResolutionDue)
	t.FirstResponseAt = clonePtr(t.FirstResponseAt)
	return t
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func equalPtr(p *string, want string) bool {
	return p != nil && *p == want
}
