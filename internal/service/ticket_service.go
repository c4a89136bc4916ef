package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// TicketService coordinates ticket workflows. Every mutation runs in one transaction together
// with its audit row; events are published only after commit.
type TicketService struct {
	uow         repository.UnitOfWork
	audit       *AuditRecorder
	dispatcher  events.Dispatcher
	logger      *zap.Logger
	metrics     Metrics
	numbers     domain.TicketNumberGenerator
	maxAttempts int
	window      time.Duration
	maxPerPage  int
	clock       Clock
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	UnitOfWork        repository.UnitOfWork
	Audit             *AuditRecorder
	Dispatcher        events.Dispatcher
	Logger            *zap.Logger
	Metrics           Metrics
	NumberGenerator   domain.TicketNumberGenerator
	MaxNumberAttempts int
	ApproachingWindow time.Duration
	MaxPerPage        int
	Clock             Clock
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title          string
	Description    string
	Priority       domain.TicketPriority
	CategoryID     *string
	AssignedToID   *string
	EstimatedHours *float64
}

// TicketPatch lists editable ticket fields. Nil fields are left unchanged.
type TicketPatch struct {
	Title           *string
	Description     *string
	ResolutionNotes *string
	EstimatedHours  *float64
	ActualHours     *float64
}

// TicketListQuery describes listing filters and the requested page.
type TicketListQuery struct {
	Status       *domain.TicketStatus
	Priority     *domain.TicketPriority
	CategoryID   *string
	AssignedToID *string
	Search       string
	Page         int
	PerPage      int
}

// TicketPage is one page of a ticket listing.
type TicketPage struct {
	Items      []domain.Ticket
	TotalCount int
	Page       int
	PerPage    int
	TotalPages int
	HasPrev    bool
	HasNext    bool
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	audit := deps.Audit
	if audit == nil {
		audit = NewAuditRecorder(deps.Clock)
	}
	numbers := deps.NumberGenerator
	if numbers == nil {
		numbers = domain.NewTicketNumberGenerator("TKT")
	}
	attempts := deps.MaxNumberAttempts
	if attempts <= 0 {
		attempts = 5
	}
	window := deps.ApproachingWindow
	if window <= 0 {
		window = domain.DefaultApproachingWindow
	}
	maxPerPage := deps.MaxPerPage
	if maxPerPage <= 0 {
		maxPerPage = 100
	}
	return &TicketService{
		uow:         deps.UnitOfWork,
		audit:       audit,
		dispatcher:  deps.Dispatcher,
		logger:      defaultLogger(deps.Logger),
		metrics:     defaultMetrics(deps.Metrics),
		numbers:     numbers,
		maxAttempts: attempts,
		window:      window,
		maxPerPage:  maxPerPage,
		clock:       defaultClock(deps.Clock),
	}
}

// CreateTicket validates input, allocates a unique ticket number and stores an Open ticket.
func (s *TicketService) CreateTicket(ctx context.Context, actor Actor, input TicketCreateInput) (*domain.Ticket, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	priority := input.Priority
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}
	errs := apperrors.FieldErrors{}
	checkLength(errs, "title", title, domain.TicketTitleMinLen, domain.TicketTitleMaxLen)
	checkLength(errs, "description", description, domain.TicketDescriptionMinLen, domain.TicketDescriptionMaxLen)
	if !priority.Valid() {
		errs.Add("priority", "must be one of Low, Medium, High, Critical")
	}
	checkHours(errs, "estimated_hours", input.EstimatedHours)
	if err := errs.Err(); err != nil {
		return nil, err
	}

	now := s.clock()
	ticket := &domain.Ticket{
		Title:          title,
		Description:    description,
		Status:         domain.TicketStatusOpen,
		Priority:       priority,
		CreatedByID:    actor.UserID(),
		EstimatedHours: input.EstimatedHours,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err := s.uow.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if input.CategoryID != nil {
			category, err := activeCategory(ctx, repos, *input.CategoryID)
			if err != nil {
				return err
			}
			ticket.ApplyCategory(category)
		}
		if input.AssignedToID != nil {
			if _, err := activeUser(ctx, repos, *input.AssignedToID, "assigned_to_id"); err != nil {
				return err
			}
			ticket.AssignedToID = input.AssignedToID
		}
		if err := s.insertTicket(ctx, repos, ticket); err != nil {
			return err
		}
		details := fmt.Sprintf("Created ticket %s: %s", ticket.TicketNumber, ticket.Title)
		return s.audit.RecordFor(ctx, repos.Audit, actor, domain.AuditActionCreated, details, &ticket.ID)
	})
	if err != nil {
		return nil, persistErr(s.logger, "ticket.create", err)
	}

	s.logger.Info("ticket created", zap.String("ticket_id", ticket.ID), zap.String("ticket_number", ticket.TicketNumber))
	s.metrics.TicketCreated("portal")
	s.publishCreated(ctx, actor, ticket)
	return ticket, nil
}

// insertTicket stores ticket under a freshly generated number, retrying on collisions. A number
// taken by a concurrent writer between the check and the insert counts as a collision too.
func (s *TicketService) insertTicket(ctx context.Context, repos repository.Repositories, ticket *domain.Ticket) error {
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		candidate := s.numbers(ticket.CreatedAt)
		exists, err := repos.Tickets.ExistsByNumber(ctx, candidate)
		if err != nil {
			return err
		}
		if !exists {
			ticket.TicketNumber = candidate
			err = repos.Tickets.Create(ctx, ticket)
			if !errors.Is(err, repository.ErrDuplicateTicketNumber) {
				return err
			}
		}
		s.logger.Warn("ticket number collision", zap.String("candidate", candidate), zap.Int("attempt", attempt))
	}
	ticket.TicketNumber = ""
	return apperrors.NewGenerationError("ticket number", s.maxAttempts)
}

// GetTicket returns a ticket visible to the actor.
func (s *TicketService) GetTicket(ctx context.Context, actor Actor, ticketID string) (*domain.Ticket, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	ticket, err := loadTicket(ctx, s.uow.Repos(), ticketID)
	if err != nil {
		return nil, err
	}
	if !ticket.CanBeViewedBy(actor.User) {
		return nil, apperrors.NewForbidden("access denied")
	}
	return ticket, nil
}

// SLAStatus evaluates the ticket's resolution SLA against the service clock.
func (s *TicketService) SLAStatus(ticket *domain.Ticket) domain.SLAStatus {
	return ticket.SLAStatusAt(s.clock(), s.window)
}

// UpdateStatus moves a ticket to next. Leaving Closed or Cancelled needs an administrator and an
// explicit confirmation. Setting the current status again is a no-op without an audit row.
func (s *TicketService) UpdateStatus(ctx context.Context, actor Actor, ticketID string, next domain.TicketStatus, confirmReopen bool) (*domain.Ticket, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	if !next.Valid() {
		errs := apperrors.FieldErrors{}
		errs.Add("status", "must be one of Open, In Progress, Pending, Resolved, Closed, Cancelled")
		return nil, errs.Err()
	}

	var (
		ticket   *domain.Ticket
		previous domain.TicketStatus
		changed  bool
		reopened bool
		breached bool
	)
	err := s.uow.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		ticket, err = loadTicket(ctx, repos, ticketID)
		if err != nil {
			return err
		}
		if !ticket.IsStaffFor(actor.User) {
			return apperrors.NewForbidden("only administrators or the assignee can change status")
		}
		if ticket.Status == next {
			return nil
		}
		if ticket.Status.IsTerminal() {
			if !actor.IsAdmin() {
				return apperrors.NewForbidden("only administrators can reopen a " + string(ticket.Status) + " ticket")
			}
			if !confirmReopen {
				return apperrors.NewConflict("ticket is "+string(ticket.Status)+"; set confirm_reopen to move it",
					map[string]any{"status": ticket.Status})
			}
			reopened = true
		}

		now := s.clock()
		previous = ticket.Status
		wasBreached := ticket.SLAResolutionBreached
		changed = ticket.TransitionTo(next, now)
		breached = !wasBreached && ticket.SLAResolutionBreached
		ticket.UpdatedAt = now
		if err := repos.Tickets.Update(ctx, ticket); err != nil {
			return err
		}
		details := fmt.Sprintf("Status changed from %s to %s", previous, next)
		if reopened {
			details += " (reopened)"
		}
		return s.audit.RecordFor(ctx, repos.Audit, actor, domain.AuditActionStatusChanged, details, &ticket.ID)
	})
	if err != nil {
		return nil, persistErr(s.logger, "ticket.update_status", err)
	}
	if !changed {
		return ticket, nil
	}

	s.metrics.StatusChanged(previous, next)
	publish(ctx, s.dispatcher, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		Actor:    eventActor(actor),
		Payload: events.TicketStatusChangedPayload{
			TicketNumber: ticket.TicketNumber,
			OldStatus:    previous,
			NewStatus:    next,
			Reopened:     reopened,
		},
	})
	if breached {
		s.publishBreach(ctx, actor, ticket, "resolution", ticket.SLAResolutionDue)
	}
	return ticket, nil
}

// UpdatePriority changes ticket priority.
func (s *TicketService) UpdatePriority(ctx context.Context, actor Actor, ticketID string, priority domain.TicketPriority) (*domain.Ticket, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	if !priority.Valid() {
		errs := apperrors.FieldErrors{}
		errs.Add("priority", "must be one of Low, Medium, High, Critical")
		return nil, errs.Err()
	}

	var (
		ticket   *domain.Ticket
		previous domain.TicketPriority
	)
	err := s.uow.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		ticket, err = loadTicket(ctx, repos, ticketID)
		if err != nil {
			return err
		}
		if !ticket.IsStaffFor(actor.User) {
			return apperrors.NewForbidden("only administrators or the assignee can change priority")
		}
		previous = ticket.Priority
		if previous == priority {
			return nil
		}
		ticket.Priority = priority
		ticket.UpdatedAt = s.clock()
		if err := repos.Tickets.Update(ctx, ticket); err != nil {
			return err
		}
		details := fmt.Sprintf("Priority changed from %s to %s", previous, priority)
		return s.audit.RecordFor(ctx, repos.Audit, actor, domain.AuditActionPriorityChanged, details, &ticket.ID)
	})
	if err != nil {
		return nil, persistErr(s.logger, "ticket.update_priority", err)
	}
	if previous != priority {
		publish(ctx, s.dispatcher, events.Event{
			Type:     events.EventTicketPriorityChanged,
			TicketID: ticket.ID,
			Actor:    eventActor(actor),
			Payload:  events.TicketPriorityChangedPayload{OldPriority: previous, NewPriority: priority},
		})
	}
	return ticket, nil
}

// Reassign points the ticket at assigneeID, or clears the assignment when it is nil.
func (s *TicketService) Reassign(ctx context.Context, actor Actor, ticketID string, assigneeID *string) (*domain.Ticket, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}

	var (
		ticket   *domain.Ticket
		previous *string
		changed  bool
	)
	err := s.uow.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		ticket, err = loadTicket(ctx, repos, ticketID)
		if err != nil {
			return err
		}
		if !ticket.IsStaffFor(actor.User) {
			return apperrors.NewForbidden("only administrators or the assignee can reassign")
		}

		details := "Unassigned ticket"
		if assigneeID != nil {
			assignee, err := activeUser(ctx, repos, *assigneeID, "assignee_id")
			if err != nil {
				return err
			}
			details = "Assigned ticket to " + assignee.Username
		}
		if samePtr(ticket.AssignedToID, assigneeID) {
			return nil
		}

		previous = ticket.AssignedToID
		ticket.AssignedToID = assigneeID
		ticket.UpdatedAt = s.clock()
		changed = true
		if err := repos.Tickets.Update(ctx, ticket); err != nil {
			return err
		}
		return s.audit.RecordFor(ctx, repos.Audit, actor, domain.AuditActionAssigned, details, &ticket.ID)
	})
	if err != nil {
		return nil, persistErr(s.logger, "ticket.reassign", err)
	}
	if changed {
		publish(ctx, s.dispatcher, events.Event{
			Type:     events.EventTicketAssigned,
			TicketID: ticket.ID,
			Actor:    eventActor(actor),
			Payload:  events.TicketAssignedPayload{PreviousAssigneeID: previous, AssigneeID: ticket.AssignedToID},
		})
	}
	return ticket, nil
}

// ChangeCategory moves the ticket to another category and recomputes SLA deadlines from its
// creation time. A nil category clears the deadlines.
func (s *TicketService) ChangeCategory(ctx context.Context, actor Actor, ticketID string, categoryID *string) (*domain.Ticket, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}

	var ticket *domain.Ticket
	err := s.uow.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		ticket, err = loadTicket(ctx, repos, ticketID)
		if err != nil {
			return err
		}
		if !ticket.IsStaffFor(actor.User) {
			return apperrors.NewForbidden("only administrators or the assignee can change the category")
		}
		if samePtr(ticket.CategoryID, categoryID) {
			return nil
		}

		var category *domain.TicketCategory
		newName := "none"
		if categoryID != nil {
			category, err = activeCategory(ctx, repos, *categoryID)
			if err != nil {
				return err
			}
			newName = category.Name
		}
		oldName := "none"
		if ticket.CategoryID != nil {
			if old, err := repos.Categories.GetByID(ctx, *ticket.CategoryID); err == nil {
				oldName = old.Name
			}
		}

		ticket.ApplyCategory(category)
		ticket.UpdatedAt = s.clock()
		if err := repos.Tickets.Update(ctx, ticket); err != nil {
			return err
		}
		details := fmt.Sprintf("Category changed from %s to %s", oldName, newName)
		return s.audit.RecordFor(ctx, repos.Audit, actor, domain.AuditActionUpdated, details, &ticket.ID)
	})
	if err != nil {
		return nil, persistErr(s.logger, "ticket.change_category", err)
	}
	return ticket, nil
}

// UpdateTicket applies a field patch. Creators may edit title and description; effort and
// resolution notes are staff only. One audit row covers all changed fields.
func (s *TicketService) UpdateTicket(ctx context.Context, actor Actor, ticketID string, patch TicketPatch) (*domain.Ticket, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}

	errs := apperrors.FieldErrors{}
	if patch.Title != nil {
		trimmed := strings.TrimSpace(*patch.Title)
		patch.Title = &trimmed
		checkLength(errs, "title", trimmed, domain.TicketTitleMinLen, domain.TicketTitleMaxLen)
	}
	if patch.Description != nil {
		trimmed := strings.TrimSpace(*patch.Description)
		patch.Description = &trimmed
		checkLength(errs, "description", trimmed, domain.TicketDescriptionMinLen, domain.TicketDescriptionMaxLen)
	}
	if patch.ResolutionNotes != nil {
		trimmed := strings.TrimSpace(*patch.ResolutionNotes)
		patch.ResolutionNotes = &trimmed
		checkLength(errs, "resolution_notes", trimmed, 0, domain.TicketDescriptionMaxLen)
	}
	checkHours(errs, "estimated_hours", patch.EstimatedHours)
	checkHours(errs, "actual_hours", patch.ActualHours)
	if err := errs.Err(); err != nil {
		return nil, err
	}

	var ticket *domain.Ticket
	err := s.uow.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		ticket, err = loadTicket(ctx, repos, ticketID)
		if err != nil {
			return err
		}
		if !ticket.CanBeViewedBy(actor.User) {
			return apperrors.NewForbidden("access denied")
		}
		staffOnly := patch.ResolutionNotes != nil || patch.EstimatedHours != nil || patch.ActualHours != nil
		if staffOnly && !ticket.IsStaffFor(actor.User) {
			return apperrors.NewForbidden("only administrators or the assignee can edit effort and resolution notes")
		}

		var changed []string
		if patch.Title != nil && *patch.Title != ticket.Title {
			ticket.Title = *patch.Title
			changed = append(changed, "title")
		}
		if patch.Description != nil && *patch.Description != ticket.Description {
			ticket.Description = *patch.Description
			changed = append(changed, "description")
		}
		if patch.ResolutionNotes != nil && *patch.ResolutionNotes != ticket.ResolutionNotes {
			ticket.ResolutionNotes = *patch.ResolutionNotes
			changed = append(changed, "resolution_notes")
		}
		if patch.EstimatedHours != nil && !sameFloat(ticket.EstimatedHours, *patch.EstimatedHours) {
			ticket.EstimatedHours = patch.EstimatedHours
			changed = append(changed, "estimated_hours")
		}
		if patch.ActualHours != nil && !sameFloat(ticket.ActualHours, *patch.ActualHours) {
			ticket.ActualHours = patch.ActualHours
			changed = append(changed, "actual_hours")
		}
		if len(changed) == 0 {
			return nil
		}

		ticket.UpdatedAt = s.clock()
		if err := repos.Tickets.Update(ctx, ticket); err != nil {
			return err
		}
		details := "Updated ticket fields: " + strings.Join(changed, ", ")
		return s.audit.RecordFor(ctx, repos.Audit, actor, domain.AuditActionUpdated, details, &ticket.ID)
	})
	if err != nil {
		return nil, persistErr(s.logger, "ticket.update", err)
	}
	return ticket, nil
}

// SoftDeleteTicket hides a ticket from listings and lookups. Its number stays reserved.
func (s *TicketService) SoftDeleteTicket(ctx context.Context, actor Actor, ticketID string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	err := s.uow.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		ticket, err := loadTicket(ctx, repos, ticketID)
		if err != nil {
			return err
		}
		ticket.IsDeleted = true
		ticket.UpdatedAt = s.clock()
		if err := repos.Tickets.Update(ctx, ticket); err != nil {
			return err
		}
		details := "Deleted ticket " + ticket.TicketNumber
		return s.audit.RecordFor(ctx, repos.Audit, actor, domain.AuditActionDeleted, details, &ticket.ID)
	})
	if err != nil {
		return persistErr(s.logger, "ticket.delete", err)
	}
	return nil
}

// ListTickets returns one page of tickets. Non-administrators only ever see tickets they
// created or are assigned to, whatever filters they pass.
func (s *TicketService) ListTickets(ctx context.Context, actor Actor, query TicketListQuery) (*TicketPage, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}

	page, perPage := clampPage(query.Page, query.PerPage, s.maxPerPage)

	filter := repository.TicketFilter{
		Status:       query.Status,
		Priority:     query.Priority,
		CategoryID:   query.CategoryID,
		AssignedToID: query.AssignedToID,
		Search:       truncateSearch(query.Search),
		Limit:        perPage,
		Offset:       (page - 1) * perPage,
	}
	if !actor.IsAdmin() {
		filter.VisibleTo = actor.UserID()
	}

	items, total, err := s.uow.Repos().Tickets.List(ctx, filter)
	if err != nil {
		return nil, persistErr(s.logger, "ticket.list", err)
	}

	pages := totalPages(total, perPage)
	return &TicketPage{
		Items:      items,
		TotalCount: total,
		Page:       page,
		PerPage:    perPage,
		TotalPages: pages,
		HasPrev:    page > 1,
		HasNext:    page < pages,
	}, nil
}

// ListTicketAudit returns the ticket's audit trail oldest first. Staff only.
func (s *TicketService) ListTicketAudit(ctx context.Context, actor Actor, ticketID string) ([]domain.AuditLog, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	repos := s.uow.Repos()
	ticket, err := loadTicket(ctx, repos, ticketID)
	if err != nil {
		return nil, err
	}
	if !ticket.IsStaffFor(actor.User) {
		return nil, apperrors.NewForbidden("only administrators or the assignee can read the audit trail")
	}
	logs, err := repos.Audit.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, persistErr(s.logger, "ticket.audit", err)
	}
	return logs, nil
}

// SweepOverdue flags the resolution breach on active tickets past their deadline. Each ticket is
// handled in its own transaction so one failure does not block the rest.
func (s *TicketService) SweepOverdue(ctx context.Context) (int, error) {
	now := s.clock()
	overdue, err := s.uow.Repos().Tickets.ListOverdue(ctx, now)
	if err != nil {
		return 0, persistErr(s.logger, "ticket.sweep", err)
	}

	actor := SystemActor()
	flagged := 0
	for _, candidate := range overdue {
		var ticket *domain.Ticket
		marked := false
		err := s.uow.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
			var err error
			ticket, err = loadTicket(ctx, repos, candidate.ID)
			if err != nil {
				return err
			}
			if !ticket.MarkResolutionBreachIfOverdue(now) {
				return nil
			}
			marked = true
			ticket.UpdatedAt = now
			if err := repos.Tickets.Update(ctx, ticket); err != nil {
				return err
			}
			return s.audit.RecordFor(ctx, repos.Audit, actor, domain.AuditActionUpdated,
				"SLA resolution deadline breached", &ticket.ID)
		})
		if err != nil {
			s.logger.Error("sla sweep failed for ticket", zap.String("ticket_id", candidate.ID), zap.Error(err))
			continue
		}
		if marked {
			flagged++
			s.publishBreach(ctx, actor, ticket, "resolution", ticket.SLAResolutionDue)
		}
	}
	return flagged, nil
}

func (s *TicketService) publishCreated(ctx context.Context, actor Actor, ticket *domain.Ticket) {
	publish(ctx, s.dispatcher, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    eventActor(actor),
		Payload: events.TicketCreatedPayload{
			TicketNumber: ticket.TicketNumber,
			Title:        ticket.Title,
			Priority:     ticket.Priority,
			CategoryID:   ticket.CategoryID,
			AssignedToID: ticket.AssignedToID,
		},
	})
}

func (s *TicketService) publishBreach(ctx context.Context, actor Actor, ticket *domain.Ticket, kind string, due *time.Time) {
	s.metrics.SLABreached(kind)
	payload := events.SLABreachedPayload{Kind: kind}
	if due != nil {
		payload.DueAt = *due
	}
	publish(ctx, s.dispatcher, events.Event{
		Type:     events.EventSLABreached,
		TicketID: ticket.ID,
		Actor:    eventActor(actor),
		Payload:  payload,
	})
}

func loadTicket(ctx context.Context, repos repository.Repositories, ticketID string) (*domain.Ticket, error) {
	ticket, err := repos.Tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, lookupErr(err, "ticket", map[string]any{"ticket_id": ticketID})
	}
	return ticket, nil
}

func activeCategory(ctx context.Context, repos repository.Repositories, categoryID string) (*domain.TicketCategory, error) {
	category, err := repos.Categories.GetByID(ctx, categoryID)
	if err != nil {
		return nil, lookupErr(err, "category", map[string]any{"category_id": categoryID})
	}
	if !category.IsActive {
		errs := apperrors.FieldErrors{}
		errs.Add("category_id", "category is inactive")
		return nil, errs.Err()
	}
	return category, nil
}

func activeUser(ctx context.Context, repos repository.Repositories, userID, field string) (*domain.User, error) {
	user, err := repos.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, lookupErr(err, "user", map[string]any{field: userID})
	}
	if !user.IsActive {
		errs := apperrors.FieldErrors{}
		errs.Add(field, "user is inactive")
		return nil, errs.Err()
	}
	return user, nil
}

func checkHours(errs apperrors.FieldErrors, field string, hours *float64) {
	if hours != nil && *hours < 0 {
		errs.Add(field, "must not be negative")
	}
}

func samePtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func sameFloat(current *float64, next float64) bool {
	return current != nil && *current == next
}
