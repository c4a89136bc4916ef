package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
)

// NotificationJob is one outbound message waiting for delivery.
type NotificationJob struct {
	ID        string           `json:"id"`
	EventType events.EventType `json:"event_type"`
	TicketID  string           `json:"ticket_id"`
	From      string           `json:"from"`
	To        []string         `json:"to"`
	Subject   string           `json:"subject"`
	Body      string           `json:"body"`
	CreatedAt time.Time        `json:"created_at"`
}

// NotificationQueue accepts jobs for asynchronous delivery.
type NotificationQueue interface {
	Enqueue(ctx context.Context, job NotificationJob) error
}

// NotificationService turns committed domain events into notification jobs.
type NotificationService struct {
	dispatcher events.Dispatcher
	queue      NotificationQueue
	uow        repository.UnitOfWork
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, queue NotificationQueue, uow repository.UnitOfWork, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		queue:      queue,
		uow:        uow,
		logger:     defaultLogger(logger),
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleTicketStatusChanged)
	n.dispatcher.Subscribe(events.EventTicketAssigned, n.handleTicketAssigned)
	n.dispatcher.Subscribe(events.EventCommentAdded, n.handleCommentAdded)
	n.dispatcher.Subscribe(events.EventSLABreached, n.handleSLABreached)
	n.dispatcher.Subscribe(events.EventClientTicketSubmitted, n.handleClientTicketSubmitted)
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok || payload.AssignedToID == nil {
		return nil
	}
	to, err := n.emails(ctx, event.Actor.UserID, payload.AssignedToID)
	if err != nil {
		return err
	}
	return n.enqueue(ctx, event, to,
		fmt.Sprintf("[%s] New ticket assigned: %s", payload.TicketNumber, payload.Title),
		fmt.Sprintf("Ticket %s (%s priority) was created and assigned to you.", payload.TicketNumber, payload.Priority))
}

func (n *NotificationService) handleTicketStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketStatusChangedPayload)
	if !ok {
		return nil
	}
	ticket, err := n.ticket(ctx, event.TicketID)
	if err != nil || ticket == nil {
		return err
	}
	to, err := n.emails(ctx, event.Actor.UserID, ticket.CreatedByID, ticket.AssignedToID)
	if err != nil {
		return err
	}
	verb := "changed"
	if payload.Reopened {
		verb = "reopened"
	}
	return n.enqueue(ctx, event, to,
		fmt.Sprintf("[%s] Status %s to %s", payload.TicketNumber, verb, payload.NewStatus),
		fmt.Sprintf("Ticket %s moved from %s to %s.", payload.TicketNumber, payload.OldStatus, payload.NewStatus))
}

func (n *NotificationService) handleTicketAssigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketAssignedPayload)
	if !ok || payload.AssigneeID == nil {
		return nil
	}
	ticket, err := n.ticket(ctx, event.TicketID)
	if err != nil || ticket == nil {
		return err
	}
	to, err := n.emails(ctx, event.Actor.UserID, payload.AssigneeID)
	if err != nil {
		return err
	}
	return n.enqueue(ctx, event, to,
		fmt.Sprintf("[%s] Ticket assigned to you", ticket.TicketNumber),
		fmt.Sprintf("You are now responsible for %s: %s", ticket.TicketNumber, ticket.Title))
}

func (n *NotificationService) handleCommentAdded(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.CommentAddedPayload)
	if !ok {
		return nil
	}
	ticket, err := n.ticket(ctx, event.TicketID)
	if err != nil || ticket == nil {
		return err
	}
	recipients := []*string{ticket.AssignedToID}
	if !payload.IsInternal {
		recipients = append(recipients, ticket.CreatedByID)
	}
	to, err := n.emails(ctx, &payload.AuthorID, recipients...)
	if err != nil {
		return err
	}
	return n.enqueue(ctx, event, to,
		fmt.Sprintf("[%s] New comment", ticket.TicketNumber),
		payload.BodyPreview)
}

func (n *NotificationService) handleSLABreached(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.SLABreachedPayload)
	if !ok {
		return nil
	}
	ticket, err := n.ticket(ctx, event.TicketID)
	if err != nil || ticket == nil {
		return err
	}
	recipients := []*string{ticket.AssignedToID}
	if ticket.AssignedToID == nil {
		admins, err := n.uow.Repos().Users.ListActiveAdmins(ctx)
		if err != nil {
			return err
		}
		for i := range admins {
			recipients = append(recipients, &admins[i].ID)
		}
	}
	to, err := n.emails(ctx, nil, recipients...)
	if err != nil {
		return err
	}
	return n.enqueue(ctx, event, to,
		fmt.Sprintf("[%s] SLA %s deadline breached", ticket.TicketNumber, payload.Kind),
		fmt.Sprintf("The %s deadline for %s passed at %s.", payload.Kind, ticket.TicketNumber, payload.DueAt.UTC().Format(time.RFC3339)))
}

func (n *NotificationService) handleClientTicketSubmitted(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ClientTicketSubmittedPayload)
	if !ok || payload.Email == "" {
		return nil
	}
	return n.enqueue(ctx, event, []string{payload.Email},
		fmt.Sprintf("We received your request (%s)", payload.ReferenceNumber),
		fmt.Sprintf("Hello %s, your reference number is %s. Use it to check the status of your request.", payload.Name, payload.ReferenceNumber))
}

func (n *NotificationService) enqueue(ctx context.Context, event events.Event, to []string, subject, body string) error {
	if len(to) == 0 {
		return nil
	}
	if n.queue == nil || strings.TrimSpace(n.cfg.EmailFrom) == "" {
		n.logger.Debug("notification dropped", zap.String("event_type", string(event.Type)), zap.String("ticket_id", event.TicketID))
		return nil
	}
	job := NotificationJob{
		ID:        event.ID,
		EventType: event.Type,
		TicketID:  event.TicketID,
		From:      n.cfg.EmailFrom,
		To:        to,
		Subject:   subject,
		Body:      body,
		CreatedAt: event.Timestamp,
	}
	if err := n.queue.Enqueue(ctx, job); err != nil {
		return fmt.Errorf("enqueue notification: %w", err)
	}
	n.logger.Debug("notification queued", zap.String("event_type", string(event.Type)), zap.Int("recipients", len(to)))
	return nil
}

func (n *NotificationService) ticket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := n.uow.Repos().Tickets.GetByID(ctx, ticketID)
	if isNotFound(err) {
		return nil, nil
	}
	return ticket, err
}

// emails resolves user ids to unique active addresses, skipping exclude.
func (n *NotificationService) emails(ctx context.Context, exclude *string, ids ...*string) ([]string, error) {
	seen := map[string]struct{}{}
	result := []string{}
	for _, id := range ids {
		if id == nil || (exclude != nil && *id == *exclude) {
			continue
		}
		if _, dup := seen[*id]; dup {
			continue
		}
		seen[*id] = struct{}{}
		user, err := n.uow.Repos().Users.GetByID(ctx, *id)
		if isNotFound(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if user.IsActive && user.Email != "" {
			result = append(result, user.Email)
		}
	}
	return result, nil
}
