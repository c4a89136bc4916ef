package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// UserService manages accounts on behalf of administrators and the users themselves.
type UserService struct {
	uow        repository.UnitOfWork
	audit      *AuditRecorder
	validate   *validator.Validate
	logger     *zap.Logger
	maxPerPage int
}

// UserDependencies bundles collaborators for the user service.
type UserDependencies struct {
	UnitOfWork repository.UnitOfWork
	Audit      *AuditRecorder
	Validator  *validator.Validate
	Logger     *zap.Logger
	MaxPerPage int
	Clock      Clock
}

// UserListQuery filters the user directory.
type UserListQuery struct {
	IsAdmin  *bool
	IsActive *bool
	Search   string
	Page     int
	PerPage  int
}

// UserPage is one page of the user directory.
type UserPage struct {
	Items      []domain.User
	TotalCount int
	Page       int
	PerPage    int
	TotalPages int
}

// ProfilePatch lists self-editable account fields.
type ProfilePatch struct {
	Username *string
	Email    *string
}

// AccessPatch lists administrator-controlled account flags.
type AccessPatch struct {
	IsAdmin  *bool
	IsActive *bool
}

// NewUserService constructs the service.
func NewUserService(deps UserDependencies) *UserService {
	audit := deps.Audit
	if audit == nil {
		audit = NewAuditRecorder(deps.Clock)
	}
	validate := deps.Validator
	if validate == nil {
		validate = validator.New()
	}
	maxPerPage := deps.MaxPerPage
	if maxPerPage <= 0 {
		maxPerPage = 100
	}
	return &UserService{
		uow:        deps.UnitOfWork,
		audit:      audit,
		validate:   validate,
		logger:     defaultLogger(deps.Logger),
		maxPerPage: maxPerPage,
	}
}

// ListUsers pages through accounts ordered by username. Administrators only.
func (s *UserService) ListUsers(ctx context.Context, actor Actor, query UserListQuery) (*UserPage, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	page, perPage := clampPage(query.Page, query.PerPage, s.maxPerPage)
	items, total, err := s.uow.Repos().Users.List(ctx, repository.UserFilter{
		IsAdmin:  query.IsAdmin,
		IsActive: query.IsActive,
		Search:   truncateSearch(query.Search),
		Limit:    perPage,
		Offset:   (page - 1) * perPage,
	})
	if err != nil {
		return nil, persistErr(s.logger, "user.list", err)
	}
	return &UserPage{
		Items:      items,
		TotalCount: total,
		Page:       page,
		PerPage:    perPage,
		TotalPages: totalPages(total, perPage),
	}, nil
}

// GetUserByUsername returns an account. Any authenticated user may look others up.
func (s *UserService) GetUserByUsername(ctx context.Context, actor Actor, username string) (*domain.User, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	user, err := s.uow.Repos().Users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, lookupErr(err, "user", map[string]any{"username": username})
	}
	return user, nil
}

// UpdateProfile changes the caller's own username or email.
func (s *UserService) UpdateProfile(ctx context.Context, actor Actor, patch ProfilePatch) (*domain.User, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}

	errs := apperrors.FieldErrors{}
	if patch.Username != nil {
		trimmed := strings.TrimSpace(*patch.Username)
		patch.Username = &trimmed
		checkLength(errs, "username", trimmed, usernameMinLen, usernameMaxLen)
		if strings.Contains(trimmed, "@") {
			errs.Add("username", "must not contain @")
		}
	}
	if patch.Email != nil {
		normalized := strings.ToLower(strings.TrimSpace(*patch.Email))
		patch.Email = &normalized
		if err := s.validate.Var(normalized, "required,email"); err != nil {
			errs.Add("email", "must be a valid email address")
		}
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	var user *domain.User
	err := s.uow.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		user, err = repos.Users.GetByID(ctx, actor.User.ID)
		if err != nil {
			return lookupErr(err, "user", nil)
		}
		changed := []string{}
		if patch.Username != nil && *patch.Username != user.Username {
			if existing, err := repos.Users.GetByUsername(ctx, *patch.Username); err == nil && existing.ID != user.ID {
				return apperrors.NewConflict("username already exists", nil)
			} else if err != nil && !isNotFound(err) {
				return err
			}
			user.Username = *patch.Username
			changed = append(changed, "username")
		}
		if patch.Email != nil && !strings.EqualFold(*patch.Email, user.Email) {
			if existing, err := repos.Users.GetByEmail(ctx, *patch.Email); err == nil && existing.ID != user.ID {
				return apperrors.NewConflict("email already exists", nil)
			} else if err != nil && !isNotFound(err) {
				return err
			}
			user.Email = *patch.Email
			changed = append(changed, "email")
		}
		if len(changed) == 0 {
			return nil
		}
		if err := repos.Users.Update(ctx, user); err != nil {
			return err
		}
		details := fmt.Sprintf("Updated profile fields: %s", strings.Join(changed, ", "))
		return s.audit.RecordFor(ctx, repos.Audit, actor, domain.AuditActionUpdated, details, nil)
	})
	if err != nil {
		return nil, persistErr(s.logger, "user.profile", err)
	}
	return user, nil
}

// SetAccess grants or revokes the administrator role and enables or disables an account.
// Administrators cannot demote or disable themselves.
func (s *UserService) SetAccess(ctx context.Context, actor Actor, userID string, patch AccessPatch) (*domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if userID == actor.User.ID && ((patch.IsAdmin != nil && !*patch.IsAdmin) || (patch.IsActive != nil && !*patch.IsActive)) {
		return nil, apperrors.NewConflict("administrators cannot demote or disable themselves", nil)
	}

	var user *domain.User
	err := s.uow.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		user, err = repos.Users.GetByID(ctx, userID)
		if err != nil {
			return lookupErr(err, "user", map[string]any{"user_id": userID})
		}
		changes := []string{}
		if patch.IsAdmin != nil && *patch.IsAdmin != user.IsAdmin {
			user.IsAdmin = *patch.IsAdmin
			changes = append(changes, fmt.Sprintf("is_admin=%t", user.IsAdmin))
		}
		if patch.IsActive != nil && *patch.IsActive != user.IsActive {
			user.IsActive = *patch.IsActive
			changes = append(changes, fmt.Sprintf("is_active=%t", user.IsActive))
		}
		if len(changes) == 0 {
			return nil
		}
		if err := repos.Users.Update(ctx, user); err != nil {
			return err
		}
		details := fmt.Sprintf("Updated user %s: %s", user.Username, strings.Join(changes, ", "))
		return s.audit.RecordFor(ctx, repos.Audit, actor, domain.AuditActionUpdated, details, nil)
	})
	if err != nil {
		return nil, persistErr(s.logger, "user.access", err)
	}
	s.logger.Info("user access updated", zap.String("user_id", user.ID), zap.Bool("is_admin", user.IsAdmin), zap.Bool("is_active", user.IsActive))
	return user, nil
}
