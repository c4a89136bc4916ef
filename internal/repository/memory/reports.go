package memory

import (
	"context"
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
)

type reportRepo struct{ view }

func (r reportRepo) TicketStats(_ context.Context, since, approachingBy time.Time) (*repository.TicketStats, error) {
	defer r.acquire()()
	stats := &repository.TicketStats{
		ByStatus:   map[domain.TicketStatus]int{},
		ByPriority: map[domain.TicketPriority]int{},
		ByCategory: map[string]int{},
	}
	for _, t := range r.store.data.tickets {
		if t.IsDeleted {
			continue
		}
		stats.Total++
		stats.ByStatus[t.Status]++
		stats.ByPriority[t.Priority]++
		category := ""
		if t.CategoryID != nil {
			category = *t.CategoryID
		}
		stats.ByCategory[category]++
		if t.SLAResponseBreached || t.SLAResolutionBreached {
			stats.Breached++
		}
		if t.Status.IsActive() && !t.SLAResolutionBreached && t.SLAResolutionDue != nil && !t.SLAResolutionDue.After(approachingBy) {
			stats.Approaching++
		}
		if !t.CreatedAt.Before(since) {
			stats.CreatedSince++
		}
	}
	return stats, nil
}

func (r reportRepo) UserStats(_ context.Context, since time.Time) (*repository.UserStats, error) {
	defer r.acquire()()
	stats := &repository.UserStats{}
	for _, u := range r.store.data.users {
		if !u.IsActive {
			continue
		}
		stats.Active++
		if u.LastSeen != nil && !u.LastSeen.Before(since) {
			stats.SeenSince++
		}
	}
	return stats, nil
}

func (r reportRepo) CountCommentsSince(_ context.Context, since time.Time) (int, error) {
	defer r.acquire()()
	count := 0
	for _, c := range r.store.data.comments {
		if !c.IsDeleted && !c.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}
