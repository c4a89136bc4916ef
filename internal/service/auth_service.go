package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// Credential bounds.
const (
	usernameMinLen = 3
	usernameMaxLen = 64
	passwordMinLen = 8
	passwordMaxLen = 72
)

// AuthResult is a signed-in user and their bearer token.
type AuthResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// AuthService coordinates registration and login flows.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	validate   *validator.Validate
	logger     *zap.Logger
	bcryptCost int
	clock      Clock
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	UserRepo  repository.UserRepository
	Validator *validator.Validate
	Logger    *zap.Logger
	Clock     Clock
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	validate := deps.Validator
	if validate == nil {
		validate = validator.New()
	}
	return &AuthService{
		users:      deps.UserRepo,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		validate:   validate,
		logger:     defaultLogger(deps.Logger),
		bcryptCost: cfg.Auth.BcryptCost,
		clock:      defaultClock(deps.Clock),
	}
}

// Register creates a regular, non-administrator account and signs it in.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*AuthResult, error) {
	user, err := s.createUser(ctx, username, email, password, false)
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

// Login authenticates by username or email.
func (s *AuthService) Login(ctx context.Context, login, password string) (*AuthResult, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, apperrors.NewValidationError("username and password required", nil)
	}

	lookup := s.users.GetByUsername
	if strings.Contains(login, "@") {
		lookup = s.users.GetByEmail
	}
	user, err := lookup(ctx, login)
	if err != nil {
		if isNotFound(err) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, persistErr(s.logger, "auth.login", err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil || !user.IsActive {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}

	now := s.clock()
	if err := s.users.TouchLastSeen(ctx, user.ID, now); err != nil {
		s.logger.Warn("failed to record last seen", zap.String("user_id", user.ID), zap.Error(err))
	} else {
		user.LastSeen = &now
	}
	return s.issue(user)
}

// EnsureAdmin creates the bootstrap administrator unless the username is already taken.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, email, password string) error {
	if username == "" || password == "" {
		return nil
	}
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil
	} else if !isNotFound(err) {
		return persistErr(s.logger, "auth.bootstrap", err)
	}
	user, err := s.createUser(ctx, username, email, password, true)
	if err != nil {
		return err
	}
	s.logger.Info("bootstrap administrator created", zap.String("user_id", user.ID), zap.String("username", user.Username))
	return nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) createUser(ctx context.Context, username, email, password string, isAdmin bool) (*domain.User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	errs := apperrors.FieldErrors{}
	checkLength(errs, "username", username, usernameMinLen, usernameMaxLen)
	if strings.Contains(username, "@") {
		errs.Add("username", "must not contain @")
	}
	if err := s.validate.Var(email, "required,email"); err != nil {
		errs.Add("email", "must be a valid email address")
	}
	if n := len(password); n < passwordMinLen || n > passwordMaxLen {
		errs.Add("password", "must be between 8 and 72 bytes")
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, apperrors.NewConflict("username already exists", nil)
	} else if !isNotFound(err) {
		return nil, persistErr(s.logger, "auth.register", err)
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already exists", nil)
	} else if !isNotFound(err) {
		return nil, persistErr(s.logger, "auth.register", err)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, persistErr(s.logger, "auth.hash", err)
	}
	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		IsAdmin:      isAdmin,
		IsActive:     true,
		CreatedAt:    s.clock(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, persistErr(s.logger, "auth.register", err)
	}
	return user, nil
}

func (s *AuthService) issue(user *domain.User) (*AuthResult, error) {
	token, exp, err := s.tokenMgr.GenerateToken(user.ID, user.IsAdmin)
	if err != nil {
		return nil, persistErr(s.logger, "auth.token", err)
	}
	return &AuthResult{User: user, Token: token, ExpiresAt: exp}, nil
}
