package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/repository/memory"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

func newAuthService(t *testing.T) (*AuthService, *memory.Store, *testClock) {
	t.Helper()
	store := memory.NewStore()
	clock := &testClock{now: baseTime}
	cfg := config.Config{Auth: config.AuthConfig{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 15,
		BcryptCost:            bcrypt.MinCost,
	}}
	return NewAuthService(cfg, AuthDependencies{UserRepo: store.Repos().Users, Clock: clock.Now}), store, clock
}

func TestRegisterAndLogin(t *testing.T) {
	svc, store, _ := newAuthService(t)

	registered, err := svc.Register(t.Context(), " carol ", "Carol@Example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, "carol", registered.User.Username)
	assert.Equal(t, "carol@example.com", registered.User.Email)
	assert.False(t, registered.User.IsAdmin)
	assert.NotEqual(t, "correct-horse", registered.User.PasswordHash)

	claims, err := svc.TokenManager().ParseToken(registered.Token)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, claims.UserID)

	for _, login := range []string{"carol", "carol@example.com"} {
		result, err := svc.Login(t.Context(), login, "correct-horse")
		require.NoError(t, err, login)
		assert.Equal(t, registered.User.ID, result.User.ID)
		require.NotNil(t, result.User.LastSeen)
	}

	stored, err := store.Repos().Users.GetByID(t.Context(), registered.User.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastSeen)
	assert.Equal(t, baseTime, *stored.LastSeen)

	_, err = svc.Login(t.Context(), "carol", "wrong-password")
	requireCode(t, err, apperrors.CodeUnauthorized)
	_, err = svc.Login(t.Context(), "nobody", "correct-horse")
	requireCode(t, err, apperrors.CodeUnauthorized)
	_, err = svc.Login(t.Context(), "", "")
	requireCode(t, err, apperrors.CodeValidation)
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := newAuthService(t)
	_, err := svc.Register(t.Context(), "carol", "carol@example.com", "correct-horse")
	require.NoError(t, err)

	_, err = svc.Register(t.Context(), "carol", "other@example.com", "correct-horse")
	requireCode(t, err, apperrors.CodeConflict)
	_, err = svc.Register(t.Context(), "carol2", "CAROL@example.com", "correct-horse")
	requireCode(t, err, apperrors.CodeConflict)
	_, err = svc.Register(t.Context(), "ab", "x@example.com", "correct-horse")
	requireCode(t, err, apperrors.CodeValidation)
	_, err = svc.Register(t.Context(), "dave@home", "dave@example.com", "correct-horse")
	requireCode(t, err, apperrors.CodeValidation)
	_, err = svc.Register(t.Context(), "dave", "dave@example.com", "short")
	requireCode(t, err, apperrors.CodeValidation)
}

func TestLoginRejectsInactiveUser(t *testing.T) {
	svc, store, _ := newAuthService(t)
	registered, err := svc.Register(t.Context(), "carol", "carol@example.com", "correct-horse")
	require.NoError(t, err)

	registered.User.IsActive = false
	require.NoError(t, store.Repos().Users.Update(t.Context(), registered.User))

	_, err = svc.Login(t.Context(), "carol", "correct-horse")
	requireCode(t, err, apperrors.CodeUnauthorized)
}

func TestEnsureAdmin(t *testing.T) {
	svc, store, _ := newAuthService(t)

	require.NoError(t, svc.EnsureAdmin(t.Context(), "", "", ""))
	require.NoError(t, svc.EnsureAdmin(t.Context(), "root", "root@example.com", "bootstrap-pass"))
	require.NoError(t, svc.EnsureAdmin(t.Context(), "root", "root@example.com", "other-pass"))

	admins, err := store.Repos().Users.ListActiveAdmins(t.Context())
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, "root", admins[0].Username)

	_, err = svc.Login(t.Context(), "root", "bootstrap-pass")
	require.NoError(t, err)
}
