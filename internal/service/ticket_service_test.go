package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/repository/memory"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

func TestCreateTicketDefaultsAndAudit(t *testing.T) {
	f := newFixture(t)

	ticket := f.newTicket(t, f.alice, nil)

	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
	assert.Equal(t, domain.TicketPriorityMedium, ticket.Priority)
	assert.Regexp(t, `^TKT-20240304-[0-9A-F]{6}$`, ticket.TicketNumber)
	require.NotNil(t, ticket.CreatedByID)
	assert.Equal(t, f.alice.ID, *ticket.CreatedByID)
	assert.Nil(t, ticket.SLAResponseDue)
	assert.Nil(t, ticket.SLAResolutionDue)

	logs := f.audit(t, ticket.ID)
	require.Len(t, logs, 1)
	assert.Equal(t, domain.AuditActionCreated, logs[0].Action)
	assert.Contains(t, logs[0].Details, ticket.TicketNumber)
	assert.Equal(t, "10.0.0.7", logs[0].IPAddress)
	assert.Equal(t, "go-test", logs[0].UserAgent)
	require.NotNil(t, logs[0].UserID)
	assert.Equal(t, f.alice.ID, *logs[0].UserID)

	assert.Len(t, f.dispatcher.ofType(events.EventTicketCreated), 1)
}

func TestCreateTicketTitleBoundaries(t *testing.T) {
	f := newFixture(t)
	cases := []struct {
		name  string
		title string
		ok    bool
	}{
		{"four chars", "abcd", false},
		{"five chars", "abcde", true},
		{"max length", strings.Repeat("x", domain.TicketTitleMaxLen), true},
		{"over max", strings.Repeat("x", domain.TicketTitleMaxLen+1), false},
		{"padded short", "   abc   ", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.tickets.CreateTicket(f.ctx, f.as(f.alice), TicketCreateInput{
				Title:       tc.title,
				Description: "long enough description",
			})
			if tc.ok {
				require.NoError(t, err)
				return
			}
			requireCode(t, err, apperrors.CodeValidation)
		})
	}
}

func TestCreateTicketRejectsBadInput(t *testing.T) {
	f := newFixture(t)

	_, err := f.tickets.CreateTicket(f.ctx, f.as(f.alice), TicketCreateInput{
		Title:          "Valid title",
		Description:    "short",
		Priority:       "Urgent",
		EstimatedHours: ptr(-1.0),
	})
	requireCode(t, err, apperrors.CodeValidation)
	var domainErr *apperrors.DomainError
	require.True(t, errors.As(err, &domainErr))
	fields := domainErr.Details["fields"].(map[string]any)
	assert.Contains(t, fields, "description")
	assert.Contains(t, fields, "priority")
	assert.Contains(t, fields, "estimated_hours")

	_, err = f.tickets.CreateTicket(f.ctx, Actor{}, TicketCreateInput{Title: "Valid title", Description: "long enough description"})
	requireCode(t, err, apperrors.CodeUnauthorized)

	_, err = f.tickets.CreateTicket(f.ctx, f.as(f.alice), TicketCreateInput{
		Title:       "Valid title",
		Description: "long enough description",
		CategoryID:  ptr("missing"),
	})
	requireCode(t, err, apperrors.CodeNotFound)
}

func TestCreateTicketComputesSLADeadlines(t *testing.T) {
	f := newFixture(t)
	category := f.addCategory(t, "Network", 4, 24)

	ticket := f.newTicket(t, f.alice, func(in *TicketCreateInput) { in.CategoryID = &category.ID })

	require.NotNil(t, ticket.SLAResponseDue)
	require.NotNil(t, ticket.SLAResolutionDue)
	assert.Equal(t, baseTime.Add(4*time.Hour), *ticket.SLAResponseDue)
	assert.Equal(t, baseTime.Add(24*time.Hour), *ticket.SLAResolutionDue)
}

func TestCreateTicketRejectsInactiveCategory(t *testing.T) {
	f := newFixture(t)
	category := f.addCategory(t, "Legacy", 4, 24)
	category.IsActive = false
	require.NoError(t, f.store.Repos().Categories.Update(f.ctx, category))

	_, err := f.tickets.CreateTicket(f.ctx, f.as(f.alice), TicketCreateInput{
		Title:       "Valid title",
		Description: "long enough description",
		CategoryID:  &category.ID,
	})
	requireCode(t, err, apperrors.CodeValidation)
}

func TestTicketNumberCollisionExhaustsAttempts(t *testing.T) {
	f := newFixture(t)
	calls := 0
	f.tickets = NewTicketService(TicketDependencies{
		UnitOfWork:        f.store,
		Clock:             f.clock.Now,
		MaxNumberAttempts: 3,
		NumberGenerator: func(time.Time) string {
			calls++
			return "TKT-20240304-AAAAAA"
		},
	})

	first := f.newTicket(t, f.alice, nil)
	assert.Equal(t, "TKT-20240304-AAAAAA", first.TicketNumber)
	calls = 0

	_, err := f.tickets.CreateTicket(f.ctx, f.as(f.alice), TicketCreateInput{
		Title:       "Second ticket",
		Description: "long enough description",
	})
	requireCode(t, err, apperrors.CodeGeneration)
	assert.Equal(t, 3, calls)

	page, err := f.tickets.ListTickets(f.ctx, f.as(f.admin), TicketListQuery{Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, page.TotalCount)
}

// staleNumberCheck reports every number as free, like a check that ran before a concurrent
// writer committed the same number.
type staleNumberCheck struct {
	repository.TicketRepository
}

func (staleNumberCheck) ExistsByNumber(context.Context, string) (bool, error) {
	return false, nil
}

type staleCheckStore struct {
	*memory.Store
}

func (s staleCheckStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	return s.Store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		repos.Tickets = staleNumberCheck{repos.Tickets}
		return fn(ctx, repos)
	})
}

func TestTicketNumberTakenAfterCheckIsRetried(t *testing.T) {
	f := newFixture(t)
	candidates := []string{"TKT-20240304-AAAAAA", "TKT-20240304-AAAAAA", "TKT-20240304-BBBBBB"}
	calls := 0
	f.tickets = NewTicketService(TicketDependencies{
		UnitOfWork:        staleCheckStore{f.store},
		Clock:             f.clock.Now,
		MaxNumberAttempts: 3,
		NumberGenerator: func(time.Time) string {
			candidate := candidates[calls]
			calls++
			return candidate
		},
	})

	first := f.newTicket(t, f.alice, nil)
	assert.Equal(t, "TKT-20240304-AAAAAA", first.TicketNumber)

	second := f.newTicket(t, f.alice, nil)
	assert.Equal(t, "TKT-20240304-BBBBBB", second.TicketNumber)
	assert.Equal(t, 3, calls)
	assert.Len(t, f.audit(t, second.ID), 1)

	page, err := f.tickets.ListTickets(f.ctx, f.as(f.admin), TicketListQuery{Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, page.TotalCount)
}

func TestTicketNumbersAreUnique(t *testing.T) {
	f := newFixture(t)
	seen := map[string]bool{}
	for i := 0; i < 25; i++ {
		ticket := f.newTicket(t, f.alice, nil)
		assert.False(t, seen[ticket.TicketNumber], "duplicate %s", ticket.TicketNumber)
		seen[ticket.TicketNumber] = true
	}
}

func TestAuditFailureAbortsMutation(t *testing.T) {
	f := newFixture(t)
	f.store.FailNext("audit.create", errors.New("audit table locked"))

	_, err := f.tickets.CreateTicket(f.ctx, f.as(f.alice), TicketCreateInput{
		Title:       "Never stored",
		Description: "long enough description",
	})
	requireCode(t, err, apperrors.CodeInternal)
	var domainErr *apperrors.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "internal server error", domainErr.Message)

	page, err := f.tickets.ListTickets(f.ctx, f.as(f.admin), TicketListQuery{Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.Zero(t, page.TotalCount)
	assert.Empty(t, f.dispatcher.ofType(events.EventTicketCreated))

	ticket := f.newTicket(t, f.alice, nil)
	f.store.FailNext("audit.create", errors.New("audit table locked"))
	_, err = f.tickets.UpdateStatus(f.ctx, f.as(f.admin), ticket.ID, domain.TicketStatusInProgress, false)
	requireCode(t, err, apperrors.CodeInternal)
	assert.Equal(t, domain.TicketStatusOpen, f.reload(t, ticket.ID).Status)
	assert.Len(t, f.audit(t, ticket.ID), 1)
}

func TestUpdateStatusStampsResolutionOnce(t *testing.T) {
	f := newFixture(t)
	category := f.addCategory(t, "Hardware", 4, 24)
	ticket := f.newTicket(t, f.alice, func(in *TicketCreateInput) { in.CategoryID = &category.ID })
	admin := f.as(f.admin)

	f.clock.Advance(25 * time.Hour)
	resolved, err := f.tickets.UpdateStatus(f.ctx, admin, ticket.ID, domain.TicketStatusResolved, false)
	require.NoError(t, err)
	require.NotNil(t, resolved.ResolvedAt)
	firstStamp := *resolved.ResolvedAt
	assert.Equal(t, baseTime.Add(25*time.Hour), firstStamp)
	assert.True(t, resolved.SLAResolutionBreached)

	f.clock.Advance(time.Hour)
	again, err := f.tickets.UpdateStatus(f.ctx, admin, ticket.ID, domain.TicketStatusResolved, false)
	require.NoError(t, err)
	assert.Equal(t, firstStamp, *again.ResolvedAt)
	assert.Len(t, f.audit(t, ticket.ID), 2, "same-status update must not audit")

	_, err = f.tickets.UpdateStatus(f.ctx, admin, ticket.ID, domain.TicketStatusInProgress, false)
	require.NoError(t, err)
	f.clock.Advance(time.Hour)
	back, err := f.tickets.UpdateStatus(f.ctx, admin, ticket.ID, domain.TicketStatusResolved, false)
	require.NoError(t, err)
	assert.Equal(t, firstStamp, *back.ResolvedAt)

	closed, err := f.tickets.UpdateStatus(f.ctx, admin, ticket.ID, domain.TicketStatusClosed, false)
	require.NoError(t, err)
	require.NotNil(t, closed.ClosedAt)

	logs := f.audit(t, ticket.ID)
	require.Len(t, logs, 5)
	assert.Equal(t, domain.AuditActionStatusChanged, logs[1].Action)
	assert.Equal(t, "Status changed from Open to Resolved", logs[1].Details)
	for i := 1; i < len(logs); i++ {
		assert.False(t, logs[i].CreatedAt.Before(logs[i-1].CreatedAt))
	}
}

func TestResolvingBeforeDeadlineIsNotBreached(t *testing.T) {
	f := newFixture(t)
	category := f.addCategory(t, "Hardware", 4, 24)
	ticket := f.newTicket(t, f.alice, func(in *TicketCreateInput) { in.CategoryID = &category.ID })

	f.clock.Advance(2 * time.Hour)
	resolved, err := f.tickets.UpdateStatus(f.ctx, f.as(f.admin), ticket.ID, domain.TicketStatusResolved, false)
	require.NoError(t, err)
	assert.False(t, resolved.SLAResolutionBreached)
	assert.Equal(t, domain.SLAStatusWithin, f.tickets.SLAStatus(resolved))
}

func TestUpdateStatusPermissions(t *testing.T) {
	f := newFixture(t)
	ticket := f.newTicket(t, f.alice, func(in *TicketCreateInput) { in.AssignedToID = &f.bob.ID })

	_, err := f.tickets.UpdateStatus(f.ctx, f.as(f.alice), ticket.ID, domain.TicketStatusInProgress, false)
	requireCode(t, err, apperrors.CodeForbidden)

	updated, err := f.tickets.UpdateStatus(f.ctx, f.as(f.bob), ticket.ID, domain.TicketStatusInProgress, false)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, updated.Status)

	_, err = f.tickets.UpdateStatus(f.ctx, f.as(f.bob), ticket.ID, "Done", false)
	requireCode(t, err, apperrors.CodeValidation)

	_, err = f.tickets.UpdateStatus(f.ctx, f.as(f.admin), "missing", domain.TicketStatusOpen, false)
	requireCode(t, err, apperrors.CodeNotFound)
}

func TestReopenRequiresAdminAndConfirmation(t *testing.T) {
	f := newFixture(t)
	ticket := f.newTicket(t, f.alice, func(in *TicketCreateInput) { in.AssignedToID = &f.bob.ID })

	_, err := f.tickets.UpdateStatus(f.ctx, f.as(f.bob), ticket.ID, domain.TicketStatusCancelled, false)
	require.NoError(t, err)

	_, err = f.tickets.UpdateStatus(f.ctx, f.as(f.bob), ticket.ID, domain.TicketStatusOpen, true)
	requireCode(t, err, apperrors.CodeForbidden)

	_, err = f.tickets.UpdateStatus(f.ctx, f.as(f.admin), ticket.ID, domain.TicketStatusOpen, false)
	requireCode(t, err, apperrors.CodeConflict)

	reopened, err := f.tickets.UpdateStatus(f.ctx, f.as(f.admin), ticket.ID, domain.TicketStatusOpen, true)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusOpen, reopened.Status)

	logs := f.audit(t, ticket.ID)
	require.Len(t, logs, 3)
	assert.Contains(t, logs[2].Details, "(reopened)")

	changes := f.dispatcher.ofType(events.EventTicketStatusChanged)
	require.Len(t, changes, 2)
	assert.True(t, changes[1].Payload.(events.TicketStatusChangedPayload).Reopened)
}

func TestSLAStatusWindows(t *testing.T) {
	f := newFixture(t)
	category := f.addCategory(t, "Access", 4, 24)
	ticket := f.newTicket(t, f.alice, func(in *TicketCreateInput) { in.CategoryID = &category.ID })

	f.clock.Advance(10 * time.Hour)
	assert.Equal(t, domain.SLAStatusWithin, f.tickets.SLAStatus(ticket))

	f.clock.Advance(10 * time.Hour)
	assert.Equal(t, domain.SLAStatusApproaching, f.tickets.SLAStatus(ticket))

	f.clock.Advance(5 * time.Hour)
	assert.Equal(t, domain.SLAStatusBreached, f.tickets.SLAStatus(ticket))

	plain := f.newTicket(t, f.alice, nil)
	assert.Equal(t, domain.SLAStatusWithin, f.tickets.SLAStatus(plain))
}

func TestChangeCategoryRecomputesFromCreation(t *testing.T) {
	f := newFixture(t)
	fast := f.addCategory(t, "Fast", 1, 8)
	slow := f.addCategory(t, "Slow", 48, 240)
	ticket := f.newTicket(t, f.alice, func(in *TicketCreateInput) { in.CategoryID = &fast.ID })

	f.clock.Advance(3 * time.Hour)
	moved, err := f.tickets.ChangeCategory(f.ctx, f.as(f.admin), ticket.ID, &slow.ID)
	require.NoError(t, err)
	assert.Equal(t, baseTime.Add(48*time.Hour), *moved.SLAResponseDue)
	assert.Equal(t, baseTime.Add(240*time.Hour), *moved.SLAResolutionDue)

	cleared, err := f.tickets.ChangeCategory(f.ctx, f.as(f.admin), ticket.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, cleared.CategoryID)
	assert.Nil(t, cleared.SLAResponseDue)
	assert.Nil(t, cleared.SLAResolutionDue)

	logs := f.audit(t, ticket.ID)
	require.Len(t, logs, 3)
	assert.Equal(t, "Category changed from Fast to Slow", logs[1].Details)
	assert.Equal(t, "Category changed from Slow to none", logs[2].Details)
}

func TestReassign(t *testing.T) {
	f := newFixture(t)
	ticket := f.newTicket(t, f.alice, nil)

	_, err := f.tickets.Reassign(f.ctx, f.as(f.alice), ticket.ID, &f.bob.ID)
	requireCode(t, err, apperrors.CodeForbidden)

	assigned, err := f.tickets.Reassign(f.ctx, f.as(f.admin), ticket.ID, &f.bob.ID)
	require.NoError(t, err)
	assert.Equal(t, f.bob.ID, *assigned.AssignedToID)

	_, err = f.tickets.Reassign(f.ctx, f.as(f.admin), ticket.ID, &f.bob.ID)
	require.NoError(t, err)

	_, err = f.tickets.Reassign(f.ctx, f.as(f.admin), ticket.ID, ptr("ghost"))
	requireCode(t, err, apperrors.CodeNotFound)

	unassigned, err := f.tickets.Reassign(f.ctx, f.as(f.bob), ticket.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, unassigned.AssignedToID)

	logs := f.audit(t, ticket.ID)
	require.Len(t, logs, 3)
	assert.Equal(t, "Assigned ticket to bob", logs[1].Details)
	assert.Equal(t, "Unassigned ticket", logs[2].Details)
	assert.Len(t, f.dispatcher.ofType(events.EventTicketAssigned), 2)
}

func TestUpdatePriorityAndFields(t *testing.T) {
	f := newFixture(t)
	ticket := f.newTicket(t, f.alice, nil)

	updated, err := f.tickets.UpdatePriority(f.ctx, f.as(f.admin), ticket.ID, domain.TicketPriorityCritical)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketPriorityCritical, updated.Priority)

	_, err = f.tickets.UpdateTicket(f.ctx, f.as(f.alice), ticket.ID, TicketPatch{ActualHours: ptr(2.0)})
	requireCode(t, err, apperrors.CodeForbidden)

	edited, err := f.tickets.UpdateTicket(f.ctx, f.as(f.alice), ticket.ID, TicketPatch{
		Title:       ptr("VPN drops every two hours"),
		Description: ptr(ticket.Description),
	})
	require.NoError(t, err)
	assert.Equal(t, "VPN drops every two hours", edited.Title)

	_, err = f.tickets.UpdateTicket(f.ctx, f.as(f.admin), ticket.ID, TicketPatch{Title: ptr("no")})
	requireCode(t, err, apperrors.CodeValidation)

	logs := f.audit(t, ticket.ID)
	require.Len(t, logs, 3)
	assert.Equal(t, domain.AuditActionPriorityChanged, logs[1].Action)
	assert.Equal(t, "Updated ticket fields: title", logs[2].Details)
}

func TestSoftDeleteHidesTicket(t *testing.T) {
	f := newFixture(t)
	ticket := f.newTicket(t, f.alice, nil)

	requireCode(t, f.tickets.SoftDeleteTicket(f.ctx, f.as(f.alice), ticket.ID), apperrors.CodeForbidden)
	require.NoError(t, f.tickets.SoftDeleteTicket(f.ctx, f.as(f.admin), ticket.ID))

	_, err := f.tickets.GetTicket(f.ctx, f.as(f.admin), ticket.ID)
	requireCode(t, err, apperrors.CodeNotFound)

	page, err := f.tickets.ListTickets(f.ctx, f.as(f.admin), TicketListQuery{Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.Zero(t, page.TotalCount)
}

func TestListTicketsScopesNonAdmins(t *testing.T) {
	f := newFixture(t)
	f.newTicket(t, f.alice, nil)
	f.clock.Advance(time.Minute)
	f.newTicket(t, f.alice, nil)
	f.clock.Advance(time.Minute)
	assignedToAlice := f.newTicket(t, f.bob, func(in *TicketCreateInput) { in.AssignedToID = &f.alice.ID })
	f.clock.Advance(time.Minute)
	f.newTicket(t, f.bob, nil)

	alicePage, err := f.tickets.ListTickets(f.ctx, f.as(f.alice), TicketListQuery{Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.Equal(t, 3, alicePage.TotalCount)
	assert.Equal(t, assignedToAlice.ID, alicePage.Items[0].ID, "newest first")

	bobPage, err := f.tickets.ListTickets(f.ctx, f.as(f.bob), TicketListQuery{AssignedToID: &f.alice.ID, Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, bobPage.TotalCount)

	adminPage, err := f.tickets.ListTickets(f.ctx, f.as(f.admin), TicketListQuery{Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.Equal(t, 4, adminPage.TotalCount)

	_, err = f.tickets.GetTicket(f.ctx, f.as(f.bob), alicePage.Items[2].ID)
	requireCode(t, err, apperrors.CodeForbidden)
}

func TestListTicketsPagination(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 5; i++ {
		f.newTicket(t, f.alice, nil)
		f.clock.Advance(time.Second)
	}

	page, err := f.tickets.ListTickets(f.ctx, f.as(f.admin), TicketListQuery{Page: 3, PerPage: 2})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, 3, page.TotalPages)
	assert.True(t, page.HasPrev)
	assert.False(t, page.HasNext)

	page, err = f.tickets.ListTickets(f.ctx, f.as(f.admin), TicketListQuery{Page: 0, PerPage: 0})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 1, page.PerPage)
	assert.Equal(t, 5, page.TotalPages)

	page, err = f.tickets.ListTickets(f.ctx, f.as(f.admin), TicketListQuery{Page: 1, PerPage: 500})
	require.NoError(t, err)
	assert.Equal(t, 100, page.PerPage)
	assert.Len(t, page.Items, 5)

	page, err = f.tickets.ListTickets(f.ctx, f.as(f.admin), TicketListQuery{Page: 9, PerPage: 2})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestListTicketsFilters(t *testing.T) {
	f := newFixture(t)
	category := f.addCategory(t, "Email", 4, 24)
	high := f.newTicket(t, f.alice, func(in *TicketCreateInput) {
		in.Priority = domain.TicketPriorityHigh
		in.CategoryID = &category.ID
		in.Title = "Mailbox quota exceeded"
	})
	f.newTicket(t, f.alice, nil)

	status := domain.TicketStatusOpen
	priority := domain.TicketPriorityHigh
	page, err := f.tickets.ListTickets(f.ctx, f.as(f.admin), TicketListQuery{
		Status: &status, Priority: &priority, CategoryID: &category.ID, Page: 1, PerPage: 10,
	})
	require.NoError(t, err)
	require.Equal(t, 1, page.TotalCount)
	assert.Equal(t, high.ID, page.Items[0].ID)

	page, err = f.tickets.ListTickets(f.ctx, f.as(f.admin), TicketListQuery{Search: "QUOTA", Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, page.TotalCount)
}

func TestListTicketAuditIsStaffOnly(t *testing.T) {
	f := newFixture(t)
	ticket := f.newTicket(t, f.alice, nil)

	_, err := f.tickets.ListTicketAudit(f.ctx, f.as(f.alice), ticket.ID)
	requireCode(t, err, apperrors.CodeForbidden)

	logs, err := f.tickets.ListTicketAudit(f.ctx, f.as(f.admin), ticket.ID)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestSweepOverdueFlagsOnce(t *testing.T) {
	f := newFixture(t)
	category := f.addCategory(t, "Ops", 1, 2)
	overdue := f.newTicket(t, f.alice, func(in *TicketCreateInput) { in.CategoryID = &category.ID })
	done := f.newTicket(t, f.alice, func(in *TicketCreateInput) { in.CategoryID = &category.ID })
	_, err := f.tickets.UpdateStatus(f.ctx, f.as(f.admin), done.ID, domain.TicketStatusResolved, false)
	require.NoError(t, err)

	f.clock.Advance(3 * time.Hour)
	flagged, err := f.tickets.SweepOverdue(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, flagged)
	assert.True(t, f.reload(t, overdue.ID).SLAResolutionBreached)

	logs := f.audit(t, overdue.ID)
	require.Len(t, logs, 2)
	assert.Nil(t, logs[1].UserID)
	assert.Equal(t, "system", logs[1].UserAgent)

	flagged, err = f.tickets.SweepOverdue(f.ctx)
	require.NoError(t, err)
	assert.Zero(t, flagged)
	assert.Len(t, f.dispatcher.ofType(events.EventSLABreached), 1)
}
