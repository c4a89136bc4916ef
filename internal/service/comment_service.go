package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/sanitize"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// CommentService manages ticket comments and their visibility.
type CommentService struct {
	uow        repository.UnitOfWork
	audit      *AuditRecorder
	sanitizer  *sanitize.Sanitizer
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    Metrics
	clock      Clock
}

// CommentDependencies bundles collaborators for the comment service.
type CommentDependencies struct {
	UnitOfWork repository.UnitOfWork
	Audit      *AuditRecorder
	Sanitizer  *sanitize.Sanitizer
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Metrics    Metrics
	Clock      Clock
}

// NewCommentService constructs the service.
func NewCommentService(deps CommentDependencies) *CommentService {
	audit := deps.Audit
	if audit == nil {
		audit = NewAuditRecorder(deps.Clock)
	}
	sanitizer := deps.Sanitizer
	if sanitizer == nil {
		sanitizer = sanitize.New()
	}
	return &CommentService{
		uow:        deps.UnitOfWork,
		audit:      audit,
		sanitizer:  sanitizer,
		dispatcher: deps.Dispatcher,
		logger:     defaultLogger(deps.Logger),
		metrics:    defaultMetrics(deps.Metrics),
		clock:      defaultClock(deps.Clock),
	}
}

// AddComment stores a sanitized comment. The internal flag is silently dropped for authors who
// are not staff on the ticket. The first staff comment stamps the ticket's first response.
func (s *CommentService) AddComment(ctx context.Context, actor Actor, ticketID, content string, isInternal bool) (*domain.TicketComment, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	clean, err := s.cleanContent(content)
	if err != nil {
		return nil, err
	}

	var (
		ticket   *domain.Ticket
		comment  *domain.TicketComment
		breached bool
	)
	err = s.uow.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		ticket, err = loadTicket(ctx, repos, ticketID)
		if err != nil {
			return err
		}
		if !ticket.CanBeViewedBy(actor.User) {
			return apperrors.NewForbidden("access denied")
		}

		staff := ticket.IsStaffFor(actor.User)
		now := s.clock()
		comment = &domain.TicketComment{
			TicketID:   ticket.ID,
			AuthorID:   actor.User.ID,
			Content:    clean,
			IsInternal: isInternal && staff,
			CreatedAt:  now,
		}
		if err := repos.Comments.Create(ctx, comment); err != nil {
			return err
		}

		wasBreached := ticket.SLAResponseBreached
		ticket.RecordFirstResponse(staff, now)
		breached = !wasBreached && ticket.SLAResponseBreached
		ticket.UpdatedAt = now
		if err := repos.Tickets.Update(ctx, ticket); err != nil {
			return err
		}
		details := "Added comment: " + preview(content, 100)
		return s.audit.RecordFor(ctx, repos.Audit, actor, domain.AuditActionCommented, details, &ticket.ID)
	})
	if err != nil {
		return nil, persistErr(s.logger, "comment.add", err)
	}

	publish(ctx, s.dispatcher, events.Event{
		Type:     events.EventCommentAdded,
		TicketID: ticket.ID,
		Actor:    eventActor(actor),
		Payload: events.CommentAddedPayload{
			CommentID:   comment.ID,
			AuthorID:    comment.AuthorID,
			IsInternal:  comment.IsInternal,
			BodyPreview: preview(comment.Content, 120),
		},
	})
	if breached {
		s.metrics.SLABreached("response")
		payload := events.SLABreachedPayload{Kind: "response"}
		if ticket.SLAResponseDue != nil {
			payload.DueAt = *ticket.SLAResponseDue
		}
		publish(ctx, s.dispatcher, events.Event{
			Type:     events.EventSLABreached,
			TicketID: ticket.ID,
			Actor:    eventActor(actor),
			Payload:  payload,
		})
	}
	return comment, nil
}

// ListComments returns live comments oldest first. Internal comments are included only for
// administrators and the current assignee.
func (s *CommentService) ListComments(ctx context.Context, actor Actor, ticketID string) ([]domain.TicketComment, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	repos := s.uow.Repos()
	ticket, err := loadTicket(ctx, repos, ticketID)
	if err != nil {
		return nil, err
	}
	if !ticket.CanBeViewedBy(actor.User) {
		return nil, apperrors.NewForbidden("access denied")
	}
	comments, err := repos.Comments.ListByTicket(ctx, ticket.ID, domain.CanSeeInternalComments(actor.User, ticket))
	if err != nil {
		return nil, persistErr(s.logger, "comment.list", err)
	}
	return comments, nil
}

// EditComment replaces the content. Only the author or an administrator may edit; only staff
// may flip the internal flag.
func (s *CommentService) EditComment(ctx context.Context, actor Actor, commentID, content string, isInternal *bool) (*domain.TicketComment, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	clean, err := s.cleanContent(content)
	if err != nil {
		return nil, err
	}

	var comment *domain.TicketComment
	err = s.uow.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var ticket *domain.Ticket
		var err error
		comment, ticket, err = loadLiveComment(ctx, repos, commentID)
		if err != nil {
			return err
		}
		if comment.AuthorID != actor.User.ID && !actor.IsAdmin() {
			return apperrors.NewForbidden("only the author or an administrator can edit this comment")
		}

		now := s.clock()
		comment.Content = clean
		if isInternal != nil && ticket.IsStaffFor(actor.User) {
			comment.IsInternal = *isInternal
		}
		comment.UpdatedAt = &now
		if err := repos.Comments.Update(ctx, comment); err != nil {
			return err
		}
		return s.audit.RecordFor(ctx, repos.Audit, actor, domain.AuditActionUpdated, "Edited comment "+comment.ID, &ticket.ID)
	})
	if err != nil {
		return nil, persistErr(s.logger, "comment.edit", err)
	}
	return comment, nil
}

// SoftDeleteComment hides a comment. Allowed for the author or an administrator.
func (s *CommentService) SoftDeleteComment(ctx context.Context, actor Actor, commentID string) error {
	if err := requireUser(actor); err != nil {
		return err
	}
	err := s.uow.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		comment, ticket, err := loadLiveComment(ctx, repos, commentID)
		if err != nil {
			return err
		}
		if comment.AuthorID != actor.User.ID && !actor.IsAdmin() {
			return apperrors.NewForbidden("only the author or an administrator can delete this comment")
		}
		now := s.clock()
		comment.IsDeleted = true
		comment.UpdatedAt = &now
		if err := repos.Comments.Update(ctx, comment); err != nil {
			return err
		}
		return s.audit.RecordFor(ctx, repos.Audit, actor, domain.AuditActionDeleted, "Deleted comment "+comment.ID, &ticket.ID)
	})
	if err != nil {
		return persistErr(s.logger, "comment.delete", err)
	}
	return nil
}

// RestoreComment undoes a soft delete. Administrators only. Restoring a live comment is a no-op.
func (s *CommentService) RestoreComment(ctx context.Context, actor Actor, commentID string) (*domain.TicketComment, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	var comment *domain.TicketComment
	err := s.uow.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		comment, err = repos.Comments.GetByID(ctx, commentID)
		if err != nil {
			return lookupErr(err, "comment", map[string]any{"comment_id": commentID})
		}
		if _, err := loadTicket(ctx, repos, comment.TicketID); err != nil {
			return err
		}
		if !comment.IsDeleted {
			return nil
		}
		now := s.clock()
		comment.IsDeleted = false
		comment.UpdatedAt = &now
		if err := repos.Comments.Update(ctx, comment); err != nil {
			return err
		}
		return s.audit.RecordFor(ctx, repos.Audit, actor, domain.AuditActionUpdated, "Restored comment "+comment.ID, &comment.TicketID)
	})
	if err != nil {
		return nil, persistErr(s.logger, "comment.restore", err)
	}
	return comment, nil
}

func (s *CommentService) cleanContent(content string) (string, error) {
	trimmed := strings.TrimSpace(content)
	errs := apperrors.FieldErrors{}
	checkLength(errs, "content", trimmed, domain.CommentMinLen, domain.CommentMaxLen)
	if err := errs.Err(); err != nil {
		return "", err
	}
	clean := s.sanitizer.HTML(trimmed)
	if clean == "" {
		errs.Add("content", "must contain text after removing disallowed markup")
		return "", errs.Err()
	}
	return clean, nil
}

// loadLiveComment fetches a non-deleted comment together with its live ticket.
func loadLiveComment(ctx context.Context, repos repository.Repositories, commentID string) (*domain.TicketComment, *domain.Ticket, error) {
	comment, err := repos.Comments.GetByID(ctx, commentID)
	if err != nil {
		return nil, nil, lookupErr(err, "comment", map[string]any{"comment_id": commentID})
	}
	if comment.IsDeleted {
		return nil, nil, apperrors.NewNotFound("comment", map[string]any{"comment_id": commentID})
	}
	ticket, err := loadTicket(ctx, repos, comment.TicketID)
	if err != nil {
		return nil, nil, err
	}
	return comment, ticket, nil
}
