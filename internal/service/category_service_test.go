package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/domain"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

func TestCreateCategoryDefaults(t *testing.T) {
	f := newFixture(t)

	category, err := f.categories.CreateCategory(f.ctx, f.as(f.admin), CategoryInput{
		Name:        "  Billing  ",
		Description: "<b>Invoices</b> and refunds<script>x</script>",
		Color:       "blue",
	})
	require.NoError(t, err)
	assert.Equal(t, "Billing", category.Name)
	assert.Equal(t, "Invoices and refunds", category.Description)
	assert.Equal(t, domain.DefaultCategoryColor, category.Color)
	assert.Equal(t, domain.DefaultSLAResponseHours, category.SLAResponseHours)
	assert.Equal(t, domain.DefaultSLAResolutionHours, category.SLAResolutionHours)
	assert.True(t, category.IsActive)

	category, err = f.categories.CreateCategory(f.ctx, f.as(f.admin), CategoryInput{
		Name:        "Sales",
		Description: `Q&A for "enterprise" plans, can't miss`,
	})
	require.NoError(t, err)
	assert.Equal(t, `Q&A for "enterprise" plans, can't miss`, category.Description)
}

func TestCreateCategoryValidation(t *testing.T) {
	f := newFixture(t)
	admin := f.as(f.admin)

	_, err := f.categories.CreateCategory(f.ctx, f.as(f.alice), CategoryInput{Name: "Billing"})
	requireCode(t, err, apperrors.CodeForbidden)

	_, err = f.categories.CreateCategory(f.ctx, admin, CategoryInput{Name: "B"})
	requireCode(t, err, apperrors.CodeValidation)

	_, err = f.categories.CreateCategory(f.ctx, admin, CategoryInput{Name: "Billing", SLAResponseHours: ptr(0)})
	requireCode(t, err, apperrors.CodeValidation)

	_, err = f.categories.CreateCategory(f.ctx, admin, CategoryInput{Name: "Billing", SLAResolutionHours: ptr(domain.MaxSLAHours + 1)})
	requireCode(t, err, apperrors.CodeValidation)

	_, err = f.categories.CreateCategory(f.ctx, admin, CategoryInput{Name: "Billing", Color: "#00ff00"})
	require.NoError(t, err)
	_, err = f.categories.CreateCategory(f.ctx, admin, CategoryInput{Name: "Billing"})
	requireCode(t, err, apperrors.CodeValidation)
}

func TestUpdateCategoryKeepsExistingDeadlines(t *testing.T) {
	f := newFixture(t)
	category := f.addCategory(t, "Network", 4, 24)
	ticket := f.newTicket(t, f.alice, func(in *TicketCreateInput) { in.CategoryID = &category.ID })

	updated, err := f.categories.UpdateCategory(f.ctx, f.as(f.admin), category.ID, CategoryPatch{
		SLAResolutionHours: ptr(48),
		Color:              ptr("not-a-color"),
	})
	require.NoError(t, err)
	assert.Equal(t, 48, updated.SLAResolutionHours)
	assert.Equal(t, domain.DefaultCategoryColor, updated.Color)
	assert.Equal(t, baseTime.Add(24*time.Hour), *f.reload(t, ticket.ID).SLAResolutionDue)

	_, err = f.categories.UpdateCategory(f.ctx, f.as(f.admin), category.ID, CategoryPatch{IsActive: ptr(false)})
	requireCode(t, err, apperrors.CodeConflict)
}

func TestDeactivateCategoryBlockedByActiveTickets(t *testing.T) {
	f := newFixture(t)
	category := f.addCategory(t, "Hardware", 4, 24)
	ticket := f.newTicket(t, f.alice, func(in *TicketCreateInput) { in.CategoryID = &category.ID })

	err := f.categories.DeactivateCategory(f.ctx, f.as(f.admin), category.ID)
	requireCode(t, err, apperrors.CodeConflict)
	var domainErr *apperrors.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, 1, domainErr.Details["active_tickets"])

	_, err = f.tickets.UpdateStatus(f.ctx, f.as(f.admin), ticket.ID, domain.TicketStatusResolved, false)
	require.NoError(t, err)
	require.NoError(t, f.categories.DeactivateCategory(f.ctx, f.as(f.admin), category.ID))

	listed, err := f.categories.ListCategories(f.ctx, f.as(f.alice))
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestCategorySummaryCounts(t *testing.T) {
	f := newFixture(t)
	category := f.addCategory(t, "Software", 4, 24)
	first := f.newTicket(t, f.alice, func(in *TicketCreateInput) { in.CategoryID = &category.ID })
	f.newTicket(t, f.alice, func(in *TicketCreateInput) { in.CategoryID = &category.ID })
	_, err := f.tickets.UpdateStatus(f.ctx, f.as(f.admin), first.ID, domain.TicketStatusPending, false)
	require.NoError(t, err)

	summary, err := f.categories.GetCategory(f.ctx, f.as(f.bob), category.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalTickets)
	assert.Equal(t, 1, summary.StatusCounts[domain.TicketStatusOpen])
	assert.Equal(t, 1, summary.StatusCounts[domain.TicketStatusPending])

	_, err = f.categories.GetCategory(f.ctx, f.as(f.bob), "missing")
	requireCode(t, err, apperrors.CodeNotFound)
}
