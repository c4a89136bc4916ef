package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

func newUserService(f *fixture) *UserService {
	return NewUserService(UserDependencies{UnitOfWork: f.store, MaxPerPage: 2, Clock: f.clock.Now})
}

func TestListUsers(t *testing.T) {
	f := newFixture(t)
	users := newUserService(f)

	page, err := users.ListUsers(f.ctx, f.as(f.admin), UserListQuery{Page: 1, PerPage: 50})
	require.NoError(t, err)
	assert.Equal(t, 3, page.TotalCount)
	assert.Equal(t, 2, page.PerPage)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "admin", page.Items[0].Username)

	admins, err := users.ListUsers(f.ctx, f.as(f.admin), UserListQuery{IsAdmin: ptr(true)})
	require.NoError(t, err)
	assert.Equal(t, 1, admins.TotalCount)

	found, err := users.ListUsers(f.ctx, f.as(f.admin), UserListQuery{Search: "ali"})
	require.NoError(t, err)
	require.Len(t, found.Items, 1)
	assert.Equal(t, f.alice.ID, found.Items[0].ID)

	_, err = users.ListUsers(f.ctx, f.as(f.alice), UserListQuery{})
	requireCode(t, err, apperrors.CodeForbidden)
}

func TestGetUserByUsername(t *testing.T) {
	f := newFixture(t)
	users := newUserService(f)

	user, err := users.GetUserByUsername(f.ctx, f.as(f.bob), " alice ")
	require.NoError(t, err)
	assert.Equal(t, f.alice.ID, user.ID)

	_, err = users.GetUserByUsername(f.ctx, f.as(f.bob), "carol")
	requireCode(t, err, apperrors.CodeNotFound)

	_, err = users.GetUserByUsername(f.ctx, Actor{}, "alice")
	requireCode(t, err, apperrors.CodeUnauthorized)
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)
	users := newUserService(f)

	updated, err := users.UpdateProfile(f.ctx, f.as(f.alice), ProfilePatch{
		Username: ptr(" alice.w "),
		Email:    ptr("Alice.W@Example.com"),
	})
	require.NoError(t, err)
	assert.Equal(t, "alice.w", updated.Username)
	assert.Equal(t, "alice.w@example.com", updated.Email)

	_, err = users.UpdateProfile(f.ctx, f.as(f.alice), ProfilePatch{Username: ptr("bob")})
	requireCode(t, err, apperrors.CodeConflict)

	_, err = users.UpdateProfile(f.ctx, f.as(f.alice), ProfilePatch{Email: ptr("bob@example.com")})
	requireCode(t, err, apperrors.CodeConflict)

	_, err = users.UpdateProfile(f.ctx, f.as(f.alice), ProfilePatch{Username: ptr("a@b"), Email: ptr("nope")})
	requireCode(t, err, apperrors.CodeValidation)

	unchanged, err := users.UpdateProfile(f.ctx, f.as(f.alice), ProfilePatch{})
	require.NoError(t, err)
	assert.Equal(t, "alice.w", unchanged.Username)
}

func TestSetAccess(t *testing.T) {
	f := newFixture(t)
	users := newUserService(f)

	promoted, err := users.SetAccess(f.ctx, f.as(f.admin), f.alice.ID, AccessPatch{IsAdmin: ptr(true)})
	require.NoError(t, err)
	assert.True(t, promoted.IsAdmin)

	disabled, err := users.SetAccess(f.ctx, f.as(f.admin), f.bob.ID, AccessPatch{IsActive: ptr(false)})
	require.NoError(t, err)
	assert.False(t, disabled.IsActive)

	admins, err := f.store.Repos().Users.ListActiveAdmins(f.ctx)
	require.NoError(t, err)
	assert.Len(t, admins, 2)

	_, err = users.SetAccess(f.ctx, f.as(f.admin), f.admin.ID, AccessPatch{IsAdmin: ptr(false)})
	requireCode(t, err, apperrors.CodeConflict)

	_, err = users.SetAccess(f.ctx, f.as(f.admin), f.admin.ID, AccessPatch{IsActive: ptr(false)})
	requireCode(t, err, apperrors.CodeConflict)

	_, err = users.SetAccess(f.ctx, f.as(f.bob), f.alice.ID, AccessPatch{IsAdmin: ptr(false)})
	requireCode(t, err, apperrors.CodeForbidden)

	_, err = users.SetAccess(f.ctx, f.as(f.admin), "missing", AccessPatch{IsAdmin: ptr(true)})
	requireCode(t, err, apperrors.CodeNotFound)

	stored, err := f.store.Repos().Users.GetByID(f.ctx, f.alice.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsAdmin)
}
