package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository/memory"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

var baseTime = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) ofType(eventType events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []events.Event
	for _, e := range d.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

type fixture struct {
	ctx        context.Context
	store      *memory.Store
	clock      *testClock
	dispatcher *recordingDispatcher
	tickets    *TicketService
	comments   *CommentService
	categories *CategoryService

	admin *domain.User
	alice *domain.User
	bob   *domain.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		ctx:        context.Background(),
		store:      memory.NewStore(),
		clock:      &testClock{now: baseTime},
		dispatcher: &recordingDispatcher{},
	}
	f.tickets = NewTicketService(TicketDependencies{
		UnitOfWork: f.store,
		Dispatcher: f.dispatcher,
		Clock:      f.clock.Now,
	})
	f.comments = NewCommentService(CommentDependencies{
		UnitOfWork: f.store,
		Dispatcher: f.dispatcher,
		Clock:      f.clock.Now,
	})
	f.categories = NewCategoryService(CategoryDependencies{
		UnitOfWork: f.store,
		Clock:      f.clock.Now,
	})
	f.admin = f.addUser(t, "admin", true)
	f.alice = f.addUser(t, "alice", false)
	f.bob = f.addUser(t, "bob", false)
	return f
}

func (f *fixture) addUser(t *testing.T, username string, admin bool) *domain.User {
	t.Helper()
	user := &domain.User{
		Username:  username,
		Email:     username + "@example.com",
		IsAdmin:   admin,
		IsActive:  true,
		CreatedAt: f.clock.Now(),
	}
	require.NoError(t, f.store.Repos().Users.Create(f.ctx, user))
	return user
}

func (f *fixture) addCategory(t *testing.T, name string, responseHours, resolutionHours int) *domain.TicketCategory {
	t.Helper()
	category := &domain.TicketCategory{
		Name:               name,
		Color:              domain.DefaultCategoryColor,
		IsActive:           true,
		SLAResponseHours:   responseHours,
		SLAResolutionHours: resolutionHours,
		CreatedAt:          f.clock.Now(),
	}
	require.NoError(t, f.store.Repos().Categories.Create(f.ctx, category))
	return category
}

func (f *fixture) as(user *domain.User) Actor {
	return Actor{User: user, IP: "10.0.0.7", UserAgent: "go-test"}
}

func (f *fixture) newTicket(t *testing.T, by *domain.User, mutate func(*TicketCreateInput)) *domain.Ticket {
	t.Helper()
	input := TicketCreateInput{
		Title:       "VPN drops every hour",
		Description: "The VPN client disconnects roughly every sixty minutes.",
	}
	if mutate != nil {
		mutate(&input)
	}
	ticket, err := f.tickets.CreateTicket(f.ctx, f.as(by), input)
	require.NoError(t, err)
	return ticket
}

func (f *fixture) audit(t *testing.T, ticketID string) []domain.AuditLog {
	t.Helper()
	logs, err := f.store.Repos().Audit.ListByTicket(f.ctx, ticketID)
	require.NoError(t, err)
	return logs
}

func (f *fixture) reload(t *testing.T, ticketID string) *domain.Ticket {
	t.Helper()
	ticket, err := f.store.Repos().Tickets.GetByID(f.ctx, ticketID)
	require.NoError(t, err)
	return ticket
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	require.Truef(t, apperrors.IsCode(err, code), "want %s, got %v", code, err)
}

func ptr[T any](v T) *T {
	return &v
}
