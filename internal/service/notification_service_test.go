package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
)

type fakeQueue struct {
	jobs []NotificationJob
}

func (q *fakeQueue) Enqueue(_ context.Context, job NotificationJob) error {
	q.jobs = append(q.jobs, job)
	return nil
}

func newNotifyingFixture(t *testing.T, from string) (*fixture, *fakeQueue) {
	t.Helper()
	f := newFixture(t)
	dispatcher := events.NewInMemoryDispatcher(nil)
	queue := &fakeQueue{}
	NewNotificationService(dispatcher, queue, f.store, nil, config.NotificationConfig{EmailFrom: from}).RegisterHandlers()
	f.tickets = NewTicketService(TicketDependencies{UnitOfWork: f.store, Dispatcher: dispatcher, Clock: f.clock.Now})
	f.comments = NewCommentService(CommentDependencies{UnitOfWork: f.store, Dispatcher: dispatcher, Clock: f.clock.Now})
	return f, queue
}

func TestNotificationsFollowTicketEvents(t *testing.T) {
	f, queue := newNotifyingFixture(t, "helpdesk@example.com")

	ticket := f.newTicket(t, f.alice, func(in *TicketCreateInput) { in.AssignedToID = &f.bob.ID })
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, events.EventTicketCreated, queue.jobs[0].EventType)
	assert.Equal(t, []string{"bob@example.com"}, queue.jobs[0].To)
	assert.Equal(t, "helpdesk@example.com", queue.jobs[0].From)
	assert.Contains(t, queue.jobs[0].Subject, ticket.TicketNumber)

	_, err := f.tickets.UpdateStatus(f.ctx, f.as(f.admin), ticket.ID, domain.TicketStatusInProgress, false)
	require.NoError(t, err)
	require.Len(t, queue.jobs, 2)
	assert.ElementsMatch(t, []string{"alice@example.com", "bob@example.com"}, queue.jobs[1].To)

	_, err = f.comments.AddComment(f.ctx, f.as(f.admin), ticket.ID, "Customer is on the legacy client.", true)
	require.NoError(t, err)
	require.Len(t, queue.jobs, 3)
	assert.Equal(t, []string{"bob@example.com"}, queue.jobs[2].To, "internal notes skip the creator")

	_, err = f.comments.AddComment(f.ctx, f.as(f.alice), ticket.ID, "Still happening after a reboot.", false)
	require.NoError(t, err)
	require.Len(t, queue.jobs, 4)
	assert.Equal(t, []string{"bob@example.com"}, queue.jobs[3].To)
}

func TestNotificationsDroppedWithoutSender(t *testing.T) {
	f, queue := newNotifyingFixture(t, "")

	f.newTicket(t, f.alice, func(in *TicketCreateInput) { in.AssignedToID = &f.bob.ID })
	assert.Empty(t, queue.jobs)
}
