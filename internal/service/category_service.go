package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/sanitize"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Category field bounds.
const (
	categoryNameMinLen        = 2
	categoryNameMaxLen        = 100
	categoryDescriptionMaxLen = 1000
)

// CategoryService manages ticket categories and their SLA windows.
type CategoryService struct {
	uow       repository.UnitOfWork
	audit     *AuditRecorder
	sanitizer *sanitize.Sanitizer
	logger    *zap.Logger
	clock     Clock
}

// CategoryDependencies bundles collaborators for the category service.
type CategoryDependencies struct {
	UnitOfWork repository.UnitOfWork
	Audit      *AuditRecorder
	Sanitizer  *sanitize.Sanitizer
	Logger     *zap.Logger
	Clock      Clock
}

// CategoryInput is the create payload. Nil hours fall back to 24 and 72.
type CategoryInput struct {
	Name               string
	Description        string
	Color              string
	SLAResponseHours   *int
	SLAResolutionHours *int
}

// CategoryPatch is the update payload. Nil fields are left unchanged.
type CategoryPatch struct {
	Name               *string
	Description        *string
	Color              *string
	SLAResponseHours   *int
	SLAResolutionHours *int
	IsActive           *bool
}

// CategorySummary is a category with its per-status ticket counts.
type CategorySummary struct {
	Category     domain.TicketCategory
	StatusCounts map[domain.TicketStatus]int
	TotalTickets int
}

// NewCategoryService constructs the service.
func NewCategoryService(deps CategoryDependencies) *CategoryService {
	audit := deps.Audit
	if audit == nil {
		audit = NewAuditRecorder(deps.Clock)
	}
	sanitizer := deps.Sanitizer
	if sanitizer == nil {
		sanitizer = sanitize.New()
	}
	return &CategoryService{
		uow:       deps.UnitOfWork,
		audit:     audit,
		sanitizer: sanitizer,
		logger:    defaultLogger(deps.Logger),
		clock:     defaultClock(deps.Clock),
	}
}

// ListCategories returns active categories ordered by name with ticket counts.
func (s *CategoryService) ListCategories(ctx context.Context, actor Actor) ([]CategorySummary, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	repos := s.uow.Repos()
	categories, err := repos.Categories.ListActive(ctx)
	if err != nil {
		return nil, persistErr(s.logger, "category.list", err)
	}
	result := make([]CategorySummary, 0, len(categories))
	for _, category := range categories {
		summary, err := s.summarize(ctx, repos, category)
		if err != nil {
			return nil, persistErr(s.logger, "category.list", err)
		}
		result = append(result, *summary)
	}
	return result, nil
}

// GetCategory returns one category with ticket counts.
func (s *CategoryService) GetCategory(ctx context.Context, actor Actor, categoryID string) (*CategorySummary, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	repos := s.uow.Repos()
	category, err := repos.Categories.GetByID(ctx, categoryID)
	if err != nil {
		return nil, lookupErr(err, "category", map[string]any{"category_id": categoryID})
	}
	summary, err := s.summarize(ctx, repos, *category)
	if err != nil {
		return nil, persistErr(s.logger, "category.get", err)
	}
	return summary, nil
}

// CreateCategory adds a category. Administrators only.
func (s *CategoryService) CreateCategory(ctx context.Context, actor Actor, input CategoryInput) (*domain.TicketCategory, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	category := &domain.TicketCategory{
		Name:               strings.TrimSpace(input.Name),
		Description:        s.sanitizer.Text(input.Description),
		Color:              strings.TrimSpace(input.Color),
		IsActive:           true,
		SLAResponseHours:   domain.DefaultSLAResponseHours,
		SLAResolutionHours: domain.DefaultSLAResolutionHours,
		CreatedAt:          s.clock(),
	}
	if !hexColor.MatchString(category.Color) {
		category.Color = domain.DefaultCategoryColor
	}

	errs := apperrors.FieldErrors{}
	checkLength(errs, "name", category.Name, categoryNameMinLen, categoryNameMaxLen)
	checkLength(errs, "description", category.Description, 0, categoryDescriptionMaxLen)
	if input.SLAResponseHours != nil {
		checkSLAHours(errs, "sla_response_hours", *input.SLAResponseHours)
		category.SLAResponseHours = *input.SLAResponseHours
	}
	if input.SLAResolutionHours != nil {
		checkSLAHours(errs, "sla_resolution_hours", *input.SLAResolutionHours)
		category.SLAResolutionHours = *input.SLAResolutionHours
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	err := s.uow.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if err := ensureUniqueName(ctx, repos, category.Name, ""); err != nil {
			return err
		}
		if err := repos.Categories.Create(ctx, category); err != nil {
			return err
		}
		return s.audit.RecordFor(ctx, repos.Audit, actor, domain.AuditActionCreated, "Created category: "+category.Name, nil)
	})
	if err != nil {
		return nil, persistErr(s.logger, "category.create", err)
	}
	return category, nil
}

// UpdateCategory edits a category. Administrators only. New SLA windows apply to tickets
// categorized afterwards; existing deadlines are left alone.
func (s *CategoryService) UpdateCategory(ctx context.Context, actor Actor, categoryID string, patch CategoryPatch) (*domain.TicketCategory, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	errs := apperrors.FieldErrors{}
	if patch.Name != nil {
		trimmed := strings.TrimSpace(*patch.Name)
		patch.Name = &trimmed
		checkLength(errs, "name", trimmed, categoryNameMinLen, categoryNameMaxLen)
	}
	if patch.Description != nil {
		clean := s.sanitizer.Text(*patch.Description)
		patch.Description = &clean
		checkLength(errs, "description", clean, 0, categoryDescriptionMaxLen)
	}
	if patch.SLAResponseHours != nil {
		checkSLAHours(errs, "sla_response_hours", *patch.SLAResponseHours)
	}
	if patch.SLAResolutionHours != nil {
		checkSLAHours(errs, "sla_resolution_hours", *patch.SLAResolutionHours)
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	var category *domain.TicketCategory
	err := s.uow.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		category, err = repos.Categories.GetByID(ctx, categoryID)
		if err != nil {
			return lookupErr(err, "category", map[string]any{"category_id": categoryID})
		}
		if patch.Name != nil && *patch.Name != category.Name {
			if err := ensureUniqueName(ctx, repos, *patch.Name, category.ID); err != nil {
				return err
			}
			category.Name = *patch.Name
		}
		if patch.Description != nil {
			category.Description = *patch.Description
		}
		if patch.Color != nil {
			if color := strings.TrimSpace(*patch.Color); hexColor.MatchString(color) {
				category.Color = color
			}
		}
		if patch.SLAResponseHours != nil {
			category.SLAResponseHours = *patch.SLAResponseHours
		}
		if patch.SLAResolutionHours != nil {
			category.SLAResolutionHours = *patch.SLAResolutionHours
		}
		if patch.IsActive != nil {
			if !*patch.IsActive && category.IsActive {
				if err := ensureNoActiveTickets(ctx, repos, category.ID); err != nil {
					return err
				}
			}
			category.IsActive = *patch.IsActive
		}
		if err := repos.Categories.Update(ctx, category); err != nil {
			return err
		}
		return s.audit.RecordFor(ctx, repos.Audit, actor, domain.AuditActionUpdated, "Updated category: "+category.Name, nil)
	})
	if err != nil {
		return nil, persistErr(s.logger, "category.update", err)
	}
	return category, nil
}

// DeactivateCategory hides a category from new tickets. It is refused while open, in progress
// or pending tickets still reference it.
func (s *CategoryService) DeactivateCategory(ctx context.Context, actor Actor, categoryID string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	err := s.uow.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		category, err := repos.Categories.GetByID(ctx, categoryID)
		if err != nil {
			return lookupErr(err, "category", map[string]any{"category_id": categoryID})
		}
		if err := ensureNoActiveTickets(ctx, repos, category.ID); err != nil {
			return err
		}
		category.IsActive = false
		if err := repos.Categories.Update(ctx, category); err != nil {
			return err
		}
		return s.audit.RecordFor(ctx, repos.Audit, actor, domain.AuditActionDeleted, "Deactivated category: "+category.Name, nil)
	})
	if err != nil {
		return persistErr(s.logger, "category.deactivate", err)
	}
	return nil
}

func (s *CategoryService) summarize(ctx context.Context, repos repository.Repositories, category domain.TicketCategory) (*CategorySummary, error) {
	counts, err := repos.Tickets.CountByStatusForCategory(ctx, category.ID)
	if err != nil {
		return nil, err
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	return &CategorySummary{Category: category, StatusCounts: counts, TotalTickets: total}, nil
}

func ensureUniqueName(ctx context.Context, repos repository.Repositories, name, selfID string) error {
	existing, err := repos.Categories.GetByName(ctx, name)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID == selfID {
		return nil
	}
	errs := apperrors.FieldErrors{}
	errs.Add("name", "a category with this name already exists")
	return errs.Err()
}

func ensureNoActiveTickets(ctx context.Context, repos repository.Repositories, categoryID string) error {
	active, err := repos.Tickets.CountActiveByCategory(ctx, categoryID)
	if err != nil {
		return err
	}
	if active > 0 {
		return apperrors.NewConflict(
			fmt.Sprintf("cannot deactivate category with %d active tickets; reassign or close them first", active),
			map[string]any{"active_tickets": active})
	}
	return nil
}

func checkSLAHours(errs apperrors.FieldErrors, field string, hours int) {
	if hours < 1 || hours > domain.MaxSLAHours {
		errs.Add(field, "must be between 1 and 8760")
	}
}
