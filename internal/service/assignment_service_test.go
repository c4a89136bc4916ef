package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignmentPolicies(t *testing.T) {
	ctx := context.Background()
	candidates := []StaffLoad{
		{UserID: "c", OpenTickets: 1},
		{UserID: "a", OpenTickets: 3},
		{UserID: "b", OpenTickets: 1},
	}

	t.Run("round robin cycles in id order", func(t *testing.T) {
		policy := &RoundRobinPolicy{}
		var picks []string
		for i := 0; i < 4; i++ {
			id, ok := policy.Choose(ctx, candidates)
			require.True(t, ok)
			picks = append(picks, id)
		}
		assert.Equal(t, []string{"a", "b", "c", "a"}, picks)
	})

	t.Run("least loaded breaks ties by id", func(t *testing.T) {
		id, ok := LeastLoadedPolicy{}.Choose(ctx, candidates)
		require.True(t, ok)
		assert.Equal(t, "b", id)
	})

	t.Run("random uses injected source", func(t *testing.T) {
		policy := NewRandomPolicy(func(n int) int { return n - 1 })
		id, ok := policy.Choose(ctx, candidates)
		require.True(t, ok)
		assert.Equal(t, "c", id)
	})

	t.Run("no candidates", func(t *testing.T) {
		for _, policy := range []AssignmentPolicy{&RoundRobinPolicy{}, LeastLoadedPolicy{}, NewRandomPolicy(nil)} {
			_, ok := policy.Choose(ctx, nil)
			assert.False(t, ok, policy.Name())
		}
	})
}

func TestNewAssignmentPolicy(t *testing.T) {
	for _, name := range []string{"", PolicyRoundRobin, PolicyLeastLoaded, PolicyRandom} {
		policy, err := NewAssignmentPolicy(name)
		require.NoError(t, err)
		assert.NotNil(t, policy)
	}
	_, err := NewAssignmentPolicy("by_mood")
	assert.Error(t, err)
}

func TestPickAssigneeUsesActiveAdminLoad(t *testing.T) {
	f := newFixture(t)
	second := f.addUser(t, "admin2", true)
	f.newTicket(t, f.alice, func(in *TicketCreateInput) { in.AssignedToID = &f.admin.ID })

	assignment := NewAssignmentService(LeastLoadedPolicy{})
	picked, err := assignment.PickAssignee(f.ctx, f.store.Repos())
	require.NoError(t, err)
	require.NotNil(t, picked)
	assert.Equal(t, second.ID, *picked)
}
