package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/sanitize"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// Client submission bounds.
const (
	clientNameMinLen        = 2
	clientNameMaxLen        = 64
	clientCompanyMaxLen     = 128
	clientDescriptionMinLen = 10
	clientDescriptionMaxLen = 2000
	clientPhoneMinDigits    = 10
	clientPhoneMaxDigits    = 15
	clientPreviewLen        = 100
)

// ClientService accepts public, unauthenticated ticket submissions.
type ClientService struct {
	uow        repository.UnitOfWork
	tickets    *TicketService
	assignment *AssignmentService
	audit      *AuditRecorder
	sanitizer  *sanitize.Sanitizer
	validate   *validator.Validate
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    Metrics
	clock      Clock
}

// ClientDependencies bundles collaborators for the client service.
type ClientDependencies struct {
	UnitOfWork repository.UnitOfWork
	Tickets    *TicketService
	Assignment *AssignmentService
	Audit      *AuditRecorder
	Sanitizer  *sanitize.Sanitizer
	Validator  *validator.Validate
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Metrics    Metrics
	Clock      Clock
}

// ClientSubmission is the public submission form.
type ClientSubmission struct {
	Name        string
	Surname     string
	Email       string
	Phone       string
	Company     string
	Description string
	FileRefs    []string
}

// ClientSubmissionResult identifies the stored submission.
type ClientSubmissionResult struct {
	TicketID        string
	TicketNumber    string
	ReferenceNumber string
}

// ClientTicketStatus is what an anonymous client may learn about a submission.
type ClientTicketStatus struct {
	ReferenceNumber string
	Status          domain.TicketStatus
	SubmittedAt     time.Time
	Description     string
}

// NewClientService constructs the service.
func NewClientService(deps ClientDependencies) *ClientService {
	audit := deps.Audit
	if audit == nil {
		audit = NewAuditRecorder(deps.Clock)
	}
	sanitizer := deps.Sanitizer
	if sanitizer == nil {
		sanitizer = sanitize.New()
	}
	validate := deps.Validator
	if validate == nil {
		validate = validator.New()
	}
	return &ClientService{
		uow:        deps.UnitOfWork,
		tickets:    deps.Tickets,
		assignment: deps.Assignment,
		audit:      audit,
		sanitizer:  sanitizer,
		validate:   validate,
		dispatcher: deps.Dispatcher,
		logger:     defaultLogger(deps.Logger),
		metrics:    defaultMetrics(deps.Metrics),
		clock:      defaultClock(deps.Clock),
	}
}

// SubmitClientTicket stores the submission and its internal ticket in one transaction. The
// ticket has no creator and is handed to the assignment policy when staff exist.
func (s *ClientService) SubmitClientTicket(ctx context.Context, actor Actor, input ClientSubmission) (*ClientSubmissionResult, error) {
	submission, err := s.normalize(input)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	ticket := &domain.Ticket{
		Title:       fmt.Sprintf("Client Ticket from %s %s", submission.Name, submission.Surname),
		Description: clientTicketBody(submission),
		Status:      domain.TicketStatusOpen,
		Priority:    domain.TicketPriorityMedium,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	client := &domain.ClientTicket{
		Name:        submission.Name,
		Surname:     submission.Surname,
		Phone:       submission.Phone,
		Email:       submission.Email,
		Company:     submission.Company,
		Description: submission.Description,
		FileRefs:    submission.FileRefs,
		CreatedAt:   now,
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if s.assignment != nil {
			assignee, err := s.assignment.PickAssignee(ctx, repos)
			if err != nil {
				return err
			}
			ticket.AssignedToID = assignee
		}
		if err := s.tickets.insertTicket(ctx, repos, ticket); err != nil {
			return err
		}
		seq, err := repos.ClientTickets.NextSequence(ctx)
		if err != nil {
			return err
		}
		client.Sequence = seq
		client.ReferenceNumber = domain.FormatReferenceNumber(seq)
		client.TicketID = ticket.ID
		if err := repos.ClientTickets.Create(ctx, client); err != nil {
			return err
		}
		details := fmt.Sprintf("Created ticket %s: %s (client reference %s)", ticket.TicketNumber, ticket.Title, client.ReferenceNumber)
		return s.audit.RecordFor(ctx, repos.Audit, actor, domain.AuditActionCreated, details, &ticket.ID)
	})
	if err != nil {
		return nil, persistErr(s.logger, "client.submit", err)
	}

	s.logger.Info("client ticket submitted",
		zap.String("ticket_id", ticket.ID),
		zap.String("reference_number", client.ReferenceNumber),
		zap.Bool("auto_assigned", ticket.AssignedToID != nil),
	)
	s.metrics.TicketCreated("client")
	s.tickets.publishCreated(ctx, actor, ticket)
	publish(ctx, s.dispatcher, events.Event{
		Type:     events.EventClientTicketSubmitted,
		TicketID: ticket.ID,
		Actor:    eventActor(actor),
		Payload: events.ClientTicketSubmittedPayload{
			ReferenceNumber: client.ReferenceNumber,
			Email:           client.Email,
			Name:            client.Name + " " + client.Surname,
		},
	})

	return &ClientSubmissionResult{
		TicketID:        ticket.ID,
		TicketNumber:    ticket.TicketNumber,
		ReferenceNumber: client.ReferenceNumber,
	}, nil
}

// GetClientTicketStatus looks a submission up by its public reference number.
func (s *ClientService) GetClientTicketStatus(ctx context.Context, reference string) (*ClientTicketStatus, error) {
	seq, err := domain.ParseReferenceNumber(reference)
	if err != nil {
		errs := apperrors.FieldErrors{}
		errs.Add("reference_number", "must look like CT000001")
		return nil, errs.Err()
	}

	repos := s.uow.Repos()
	client, err := repos.ClientTickets.GetBySequence(ctx, seq)
	if err != nil {
		return nil, lookupErr(err, "client ticket", map[string]any{"reference_number": reference})
	}

	status := domain.TicketStatusOpen
	ticket, err := repos.Tickets.GetByID(ctx, client.TicketID)
	switch {
	case err == nil:
		status = ticket.Status
	case !isNotFound(err):
		return nil, persistErr(s.logger, "client.status", err)
	}

	return &ClientTicketStatus{
		ReferenceNumber: client.ReferenceNumber,
		Status:          status,
		SubmittedAt:     client.CreatedAt,
		Description:     preview(client.Description, clientPreviewLen),
	}, nil
}

func (s *ClientService) normalize(input ClientSubmission) (ClientSubmission, error) {
	out := ClientSubmission{
		Name:        strings.TrimSpace(input.Name),
		Surname:     strings.TrimSpace(input.Surname),
		Email:       strings.ToLower(strings.TrimSpace(input.Email)),
		Phone:       strings.TrimSpace(input.Phone),
		Company:     strings.TrimSpace(input.Company),
		Description: strings.TrimSpace(s.sanitizer.Text(input.Description)),
	}
	for _, ref := range input.FileRefs {
		if ref = strings.TrimSpace(ref); ref != "" {
			out.FileRefs = append(out.FileRefs, ref)
		}
	}

	errs := apperrors.FieldErrors{}
	checkLength(errs, "name", out.Name, clientNameMinLen, clientNameMaxLen)
	checkLength(errs, "surname", out.Surname, clientNameMinLen, clientNameMaxLen)
	checkLength(errs, "company", out.Company, 0, clientCompanyMaxLen)
	checkLength(errs, "description", out.Description, clientDescriptionMinLen, clientDescriptionMaxLen)
	if err := s.validate.Var(out.Email, "required,email"); err != nil {
		errs.Add("email", "must be a valid email address")
	}
	if digits := countDigits(out.Phone); digits < clientPhoneMinDigits || digits > clientPhoneMaxDigits {
		errs.Add("phone", "must contain between 10 and 15 digits")
	} else if strings.IndexFunc(out.Phone, invalidPhoneRune) >= 0 {
		errs.Add("phone", "may only contain digits, spaces, dashes, dots, parentheses and a leading +")
	}
	for _, ref := range out.FileRefs {
		if !domain.AllowedAttachmentName(ref) {
			errs.Add("file_refs", "file type not allowed: "+ref)
			break
		}
	}
	return out, errs.Err()
}

func clientTicketBody(s ClientSubmission) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Client: %s %s\n", s.Name, s.Surname)
	fmt.Fprintf(&b, "Email: %s\n", s.Email)
	fmt.Fprintf(&b, "Phone: %s\n", s.Phone)
	if s.Company != "" {
		fmt.Fprintf(&b, "Company: %s\n", s.Company)
	}
	fmt.Fprintf(&b, "\nDescription:\n%s", s.Description)
	return b.String()
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			n++
		}
	}
	return n
}

func invalidPhoneRune(r rune) bool {
	if unicode.IsDigit(r) {
		return false
	}
	switch r {
	case '+', ' ', '-', '.', '(', ')':
		return false
	}
	return true
}
