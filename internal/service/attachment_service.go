package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/storage"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// AttachmentService stores files against tickets.
type AttachmentService struct {
	uow    repository.UnitOfWork
	files  storage.FileStore
	audit  *AuditRecorder
	logger *zap.Logger
	clock  Clock
}

// AttachmentDependencies bundles collaborators for the attachment service.
type AttachmentDependencies struct {
	UnitOfWork repository.UnitOfWork
	Files      storage.FileStore
	Audit      *AuditRecorder
	Logger     *zap.Logger
	Clock      Clock
}

// NewAttachmentService constructs the service.
func NewAttachmentService(deps AttachmentDependencies) *AttachmentService {
	audit := deps.Audit
	if audit == nil {
		audit = NewAuditRecorder(deps.Clock)
	}
	files := deps.Files
	if files == nil {
		files = storage.NewMemoryStore()
	}
	return &AttachmentService{
		uow:    deps.UnitOfWork,
		files:  files,
		audit:  audit,
		logger: defaultLogger(deps.Logger),
		clock:  defaultClock(deps.Clock),
	}
}

// UploadAttachment saves content for a ticket the actor can see. The file is written first and
// removed again if the metadata transaction fails.
func (s *AttachmentService) UploadAttachment(ctx context.Context, actor Actor, ticketID, originalName string, content []byte) (*domain.TicketAttachment, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}

	originalName = filepath.Base(strings.TrimSpace(originalName))
	errs := apperrors.FieldErrors{}
	switch {
	case len(content) == 0:
		errs.Add("file", "file is empty")
	case len(content) > domain.MaxAttachmentSize:
		errs.Add("file", "file exceeds the 10MB limit")
	}
	if !domain.AllowedAttachmentName(originalName) {
		errs.Add("file", "file type not allowed")
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	ticket, err := loadTicket(ctx, s.uow.Repos(), ticketID)
	if err != nil {
		return nil, err
	}
	if !ticket.CanBeViewedBy(actor.User) {
		return nil, apperrors.NewForbidden("access denied")
	}

	now := s.clock()
	stored := fmt.Sprintf("%s_%s%s", now.Format("20060102_150405"), uuid.NewString()[:8], strings.ToLower(filepath.Ext(originalName)))
	attachment := &domain.TicketAttachment{
		TicketID:         ticket.ID,
		Filename:         stored,
		OriginalFilename: originalName,
		FileSize:         int64(len(content)),
		MimeType:         mimetype.Detect(content).String(),
		FilePath:         ticket.ID + "/" + stored,
		UploadedByID:     actor.User.ID,
		UploadedAt:       now,
	}

	if err := s.files.Save(ctx, attachment.FilePath, content); err != nil {
		return nil, persistErr(s.logger, "attachment.save", err)
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		current, err := loadTicket(ctx, repos, ticket.ID)
		if err != nil {
			return err
		}
		if err := repos.Attachments.Create(ctx, attachment); err != nil {
			return err
		}
		current.UpdatedAt = now
		if err := repos.Tickets.Update(ctx, current); err != nil {
			return err
		}
		return s.audit.RecordFor(ctx, repos.Audit, actor, domain.AuditActionUpdated, "Attached file "+originalName, &ticket.ID)
	})
	if err != nil {
		if rmErr := s.files.Remove(ctx, attachment.FilePath); rmErr != nil {
			s.logger.Warn("orphaned attachment file", zap.String("path", attachment.FilePath), zap.Error(rmErr))
		}
		return nil, persistErr(s.logger, "attachment.create", err)
	}
	return attachment, nil
}

// ListAttachments returns attachment metadata for a ticket the actor can see.
func (s *AttachmentService) ListAttachments(ctx context.Context, actor Actor, ticketID string) ([]domain.TicketAttachment, error) {
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
	items, err := repos.Attachments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, persistErr(s.logger, "attachment.list", err)
	}
	return items, nil
}
