package service

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

func newClientService(f *fixture, policy AssignmentPolicy) *ClientService {
	return NewClientService(ClientDependencies{
		UnitOfWork: f.store,
		Tickets:    f.tickets,
		Assignment: NewAssignmentService(policy),
		Dispatcher: f.dispatcher,
		Clock:      f.clock.Now,
	})
}

func validSubmission() ClientSubmission {
	return ClientSubmission{
		Name:        "Maria",
		Surname:     "Lopez",
		Email:       " Maria.Lopez@Example.com ",
		Phone:       "+1 (555) 010-2030",
		Company:     "Acme",
		Description: "Our storefront returns a blank page since this morning.",
		FileRefs:    []string{"screenshot.png"},
	}
}

func TestSubmitClientTicket(t *testing.T) {
	f := newFixture(t)
	clients := newClientService(f, LeastLoadedPolicy{})
	anonymous := Actor{IP: "203.0.113.9", UserAgent: "browser"}

	first, err := clients.SubmitClientTicket(f.ctx, anonymous, validSubmission())
	require.NoError(t, err)
	assert.Equal(t, "CT000001", first.ReferenceNumber)

	second, err := clients.SubmitClientTicket(f.ctx, anonymous, validSubmission())
	require.NoError(t, err)
	assert.Equal(t, "CT000002", second.ReferenceNumber)
	assert.NotEqual(t, first.TicketNumber, second.TicketNumber)

	ticket := f.reload(t, first.TicketID)
	assert.Equal(t, "Client Ticket from Maria Lopez", ticket.Title)
	assert.Equal(t, domain.TicketPriorityMedium, ticket.Priority)
	assert.Nil(t, ticket.CreatedByID)
	require.NotNil(t, ticket.AssignedToID)
	assert.Equal(t, f.admin.ID, *ticket.AssignedToID, "the only active administrator")
	assert.Contains(t, ticket.Description, "Email: maria.lopez@example.com")
	assert.Contains(t, ticket.Description, "Company: Acme")

	logs := f.audit(t, first.TicketID)
	require.Len(t, logs, 1)
	assert.Equal(t, domain.AuditActionCreated, logs[0].Action)
	assert.Nil(t, logs[0].UserID)
	assert.Equal(t, "203.0.113.9", logs[0].IPAddress)
	assert.Contains(t, logs[0].Details, "CT000001")

	assert.Len(t, f.dispatcher.ofType(events.EventClientTicketSubmitted), 2)
}

func TestSubmitClientTicketWithoutStaffStaysUnassigned(t *testing.T) {
	f := newFixture(t)
	f.admin.IsActive = false
	require.NoError(t, f.store.Repos().Users.Update(f.ctx, f.admin))
	clients := newClientService(f, &RoundRobinPolicy{})

	result, err := clients.SubmitClientTicket(f.ctx, Actor{}, validSubmission())
	require.NoError(t, err)
	assert.Nil(t, f.reload(t, result.TicketID).AssignedToID)
}

func TestSubmitClientTicketValidation(t *testing.T) {
	f := newFixture(t)
	clients := newClientService(f, nil)

	cases := map[string]func(*ClientSubmission){
		"name":        func(s *ClientSubmission) { s.Name = "M" },
		"surname":     func(s *ClientSubmission) { s.Surname = strings.Repeat("x", 65) },
		"email":       func(s *ClientSubmission) { s.Email = "not-an-email" },
		"phone":       func(s *ClientSubmission) { s.Phone = "12345" },
		"description": func(s *ClientSubmission) { s.Description = "<b>short</b>" },
		"company":     func(s *ClientSubmission) { s.Company = strings.Repeat("c", 129) },
		"file_refs":   func(s *ClientSubmission) { s.FileRefs = []string{"payload.exe"} },
	}
	for field, mutate := range cases {
		t.Run(field, func(t *testing.T) {
			input := validSubmission()
			mutate(&input)
			_, err := clients.SubmitClientTicket(f.ctx, Actor{}, input)
			requireCode(t, err, apperrors.CodeValidation)
			var domainErr *apperrors.DomainError
			require.True(t, errors.As(err, &domainErr))
			assert.Contains(t, domainErr.Details["fields"], field)
		})
	}

	input := validSubmission()
	input.Phone = "555-010-2030 ext"
	_, err := clients.SubmitClientTicket(f.ctx, Actor{}, input)
	requireCode(t, err, apperrors.CodeValidation)
}

func TestSubmitClientTicketRollsBackOnAuditFailure(t *testing.T) {
	f := newFixture(t)
	clients := newClientService(f, nil)
	f.store.FailNext("audit.create", errors.New("audit down"))

	_, err := clients.SubmitClientTicket(f.ctx, Actor{}, validSubmission())
	requireCode(t, err, apperrors.CodeInternal)

	page, err := f.tickets.ListTickets(f.ctx, f.as(f.admin), TicketListQuery{Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.Zero(t, page.TotalCount)

	_, err = clients.GetClientTicketStatus(f.ctx, "CT000001")
	requireCode(t, err, apperrors.CodeNotFound)
}

func TestGetClientTicketStatus(t *testing.T) {
	f := newFixture(t)
	clients := newClientService(f, nil)
	input := validSubmission()
	input.Description = strings.Repeat("d", 150)

	result, err := clients.SubmitClientTicket(f.ctx, Actor{}, input)
	require.NoError(t, err)
	_, err = f.tickets.UpdateStatus(f.ctx, f.as(f.admin), result.TicketID, domain.TicketStatusInProgress, false)
	require.NoError(t, err)

	status, err := clients.GetClientTicketStatus(f.ctx, result.ReferenceNumber)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, status.Status)
	assert.Equal(t, baseTime, status.SubmittedAt)
	assert.Equal(t, strings.Repeat("d", 100)+"...", status.Description)

	for _, bad := range []string{"", "CT12", "XX000001", "CT00000A", "CT000000"} {
		_, err := clients.GetClientTicketStatus(f.ctx, bad)
		requireCode(t, err, apperrors.CodeValidation)
	}

	_, err = clients.GetClientTicketStatus(f.ctx, "CT000999")
	requireCode(t, err, apperrors.CodeNotFound)
}

func TestSubmitClientTicketKeepsPunctuation(t *testing.T) {
	f := newFixture(t)
	clients := newClientService(f, nil)
	input := validSubmission()
	input.Description = `I can't log in & the "reset" link fails`

	result, err := clients.SubmitClientTicket(f.ctx, Actor{}, input)
	require.NoError(t, err)

	status, err := clients.GetClientTicketStatus(f.ctx, result.ReferenceNumber)
	require.NoError(t, err)
	assert.Equal(t, `I can't log in & the "reset" link fails`, status.Description)
	assert.Contains(t, f.reload(t, result.TicketID).Description, `I can't log in & the "reset" link fails`)

	input.Description = strings.Repeat("'", 2000)
	_, err = clients.SubmitClientTicket(f.ctx, Actor{}, input)
	require.NoError(t, err, "length counts typed characters, not entities")
}
