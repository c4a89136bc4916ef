package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"

	"github.com/spec-kit/helpdesk/internal/repository"
)

// Assignment policy names accepted by NewAssignmentPolicy.
const (
	PolicyRoundRobin  = "round_robin"
	PolicyLeastLoaded = "least_loaded"
	PolicyRandom      = "random"
)

// StaffLoad is an assignment candidate with its count of active tickets.
type StaffLoad struct {
	UserID      string
	OpenTickets int
}

// AssignmentPolicy distributes unassigned incoming tickets across active staff.
type AssignmentPolicy interface {
	Name() string
	// Choose returns the selected user id, or false when there are no candidates.
	Choose(ctx context.Context, candidates []StaffLoad) (string, bool)
}

// NewAssignmentPolicy resolves a policy by name.
func NewAssignmentPolicy(name string) (AssignmentPolicy, error) {
	switch name {
	case "", PolicyRoundRobin:
		return &RoundRobinPolicy{}, nil
	case PolicyLeastLoaded:
		return LeastLoadedPolicy{}, nil
	case PolicyRandom:
		return NewRandomPolicy(nil), nil
	default:
		return nil, fmt.Errorf("unknown assignment policy %q", name)
	}
}

// RoundRobinPolicy cycles through candidates in id order.
type RoundRobinPolicy struct {
	mu     sync.Mutex
	cursor int
}

func (p *RoundRobinPolicy) Name() string { return PolicyRoundRobin }

func (p *RoundRobinPolicy) Choose(_ context.Context, candidates []StaffLoad) (string, bool) {
	if len(candidates) == 0 {
		return "", false
	}
	ordered := sortedByID(candidates)
	p.mu.Lock()
	defer p.mu.Unlock()
	choice := ordered[p.cursor%len(ordered)]
	p.cursor = (p.cursor + 1) % len(ordered)
	return choice.UserID, true
}

// LeastLoadedPolicy picks the candidate with the fewest active tickets, ties broken by id.
type LeastLoadedPolicy struct{}

func (LeastLoadedPolicy) Name() string { return PolicyLeastLoaded }

func (LeastLoadedPolicy) Choose(_ context.Context, candidates []StaffLoad) (string, bool) {
	if len(candidates) == 0 {
		return "", false
	}
	ordered := sortedByID(candidates)
	best := ordered[0]
	for _, candidate := range ordered[1:] {
		if candidate.OpenTickets < best.OpenTickets {
			best = candidate
		}
	}
	return best.UserID, true
}

// RandomPolicy picks uniformly. The source is injectable for deterministic tests.
type RandomPolicy struct {
	intN func(n int) int
}

// NewRandomPolicy builds a random policy; a nil intN uses math/rand/v2.
func NewRandomPolicy(intN func(n int) int) *RandomPolicy {
	if intN == nil {
		intN = rand.IntN
	}
	return &RandomPolicy{intN: intN}
}

func (p *RandomPolicy) Name() string { return PolicyRandom }

func (p *RandomPolicy) Choose(_ context.Context, candidates []StaffLoad) (string, bool) {
	if len(candidates) == 0 {
		return "", false
	}
	ordered := sortedByID(candidates)
	return ordered[p.intN(len(ordered))].UserID, true
}

func sortedByID(candidates []StaffLoad) []StaffLoad {
	ordered := append([]StaffLoad(nil), candidates...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].UserID < ordered[j].UserID })
	return ordered
}

// AssignmentService selects assignees for tickets that arrive without one.
type AssignmentService struct {
	policy AssignmentPolicy
}

// NewAssignmentService creates the service.
func NewAssignmentService(policy AssignmentPolicy) *AssignmentService {
	if policy == nil {
		policy = &RoundRobinPolicy{}
	}
	return &AssignmentService{policy: policy}
}

// PickAssignee chooses among active administrators using repos, which may be bound to a
// transaction. It returns nil when no staff is available.
func (s *AssignmentService) PickAssignee(ctx context.Context, repos repository.Repositories) (*string, error) {
	admins, err := repos.Users.ListActiveAdmins(ctx)
	if err != nil {
		return nil, err
	}
	if len(admins) == 0 {
		return nil, nil
	}
	ids := make([]string, len(admins))
	for i, admin := range admins {
		ids[i] = admin.ID
	}
	loads, err := repos.Tickets.CountActiveByAssignee(ctx, ids)
	if err != nil {
		return nil, err
	}
	candidates := make([]StaffLoad, len(ids))
	for i, id := range ids {
		candidates[i] = StaffLoad{UserID: id, OpenTickets: loads[id]}
	}
	chosen, ok := s.policy.Choose(ctx, candidates)
	if !ok {
		return nil, nil
	}
	return &chosen, nil
}
