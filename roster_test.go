package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	auth "github.com/stefvuck/forum-auth"
)

func rosterRoles() []auth.Role {
	return []auth.Role{
		{ID: 1, Name: auth.RoleAdmin, Color: "#ef4444"},
		{ID: 2, Name: auth.RoleModerator, Color: "#3b82f6"},
		{ID: 3, Name: auth.RoleMember, Color: "#6b7280"},
	}
}

func rosterUsers() []auth.User {
	return []auth.User{
		{ID: 1, Name: "Ada", Email: "a@student.gla.ac.uk", Role: &auth.Role{ID: 1, Name: auth.RoleAdmin}},
		{ID: 2, Name: "Ben", Email: "b@student.gla.ac.uk", Role: &auth.Role{ID: 3, Name: auth.RoleMember}},
		{ID: 3, Name: "Cat", Email: "c@student.gla.ac.uk", Role: &auth.Role{ID: 3, Name: auth.RoleMember}},
	}
}

func TestRosterAdminLoadsCatalogAndRoster(t *testing.T) {
	svc := &MockService{}
	svc.On("Roles", mock.Anything).Return(rosterRoles(), nil).Once()
	svc.On("Users", mock.Anything).Return(rosterUsers(), nil).Once()

	ra := auth.NewRosterAdmin(svc)

	roles, err := ra.LoadRoles(context.Background())
	require.NoError(t, err)
	require.Len(t, roles, 3)
	assert.Equal(t, auth.RoleAdmin, roles[0].Name)

	users, err := ra.LoadUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 3)

	assert.Equal(t, roles, ra.Roles())
	assert.Equal(t, users, ra.Users())
	svc.AssertExpectations(t)
}

func TestRosterAdminReassignPatchesExactlyOneEntry(t *testing.T) {
	svc := &MockService{}
	sink := &recordingSink{}

	updated := &auth.User{
		ID:    2,
		Name:  "Ben",
		Email: "b@student.gla.ac.uk",
		Role:  &auth.Role{ID: 2, Name: auth.RoleModerator, Color: "#3b82f6"},
	}

	svc.On("Users", mock.Anything).Return(rosterUsers(), nil).Once()
	svc.On("UpdateUserRole", mock.Anything, 2, 2).
		Return(&auth.RoleChangeResult{Message: "Role updated successfully", User: updated}, nil).Once()

	ra := auth.NewRosterAdmin(svc, auth.WithRosterAdminActivitySink(sink))

	_, err := ra.LoadUsers(context.Background())
	require.NoError(t, err)

	got, err := ra.ReassignRole(context.Background(), 2, 2)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleModerator, got.Role.Name)

	users := ra.Users()
	require.Len(t, users, 3)

	// order preserved, only the affected entry replaced
	assert.Equal(t, 1, users[0].ID)
	assert.Equal(t, auth.RoleAdmin, users[0].Role.Name)
	assert.Equal(t, 2, users[1].ID)
	assert.Equal(t, auth.RoleModerator, users[1].Role.Name)
	assert.Equal(t, 3, users[2].ID)
	assert.Equal(t, auth.RoleMember, users[2].Role.Name)

	events := sink.Events()
	require.Len(t, events, 1)
	assert.Equal(t, auth.ActivityEventRoleReassigned, events[0].EventType)
	assert.Equal(t, "2", events[0].UserID)
	svc.AssertExpectations(t)
}

func TestRosterAdminReassignUsesServerRecordVerbatim(t *testing.T) {
	svc := &MockService{}

	// the server may return metadata the client has never seen
	updated := &auth.User{
		ID:    2,
		Name:  "Benjamin",
		Email: "b@student.gla.ac.uk",
		Role:  &auth.Role{ID: 9, Name: "archivist", Color: "#10b981"},
	}

	svc.On("Users", mock.Anything).Return(rosterUsers(), nil).Once()
	svc.On("UpdateUserRole", mock.Anything, 2, 9).
		Return(&auth.RoleChangeResult{Message: "Role updated successfully", User: updated}, nil).Once()

	ra := auth.NewRosterAdmin(svc)

	_, err := ra.LoadUsers(context.Background())
	require.NoError(t, err)

	_, err = ra.ReassignRole(context.Background(), 2, 9)
	require.NoError(t, err)

	users := ra.Users()
	assert.Equal(t, "Benjamin", users[1].Name)
	assert.Equal(t, "archivist", users[1].Role.Name)
}

func TestRosterAdminReassignRejectsMismatchedRecord(t *testing.T) {
	svc := &MockService{}

	svc.On("Users", mock.Anything).Return(rosterUsers(), nil).Once()
	svc.On("UpdateUserRole", mock.Anything, 2, 2).
		Return(&auth.RoleChangeResult{
			Message: "Role updated successfully",
			User:    &auth.User{ID: 3, Name: "Cat"},
		}, nil).Once()

	ra := auth.NewRosterAdmin(svc)

	_, err := ra.LoadUsers(context.Background())
	require.NoError(t, err)

	_, err = ra.ReassignRole(context.Background(), 2, 2)
	require.Error(t, err)

	// roster untouched on a mismatch
	users := ra.Users()
	assert.Equal(t, auth.RoleMember, users[1].Role.Name)
}

func TestRosterAdminReassignPropagatesErrors(t *testing.T) {
	svc := &MockService{}
	svc.On("UpdateUserRole", mock.Anything, 2, 2).
		Return(nil, auth.ErrForbidden).Once()

	ra := auth.NewRosterAdmin(svc)

	_, err := ra.ReassignRole(context.Background(), 2, 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrForbidden)
}

func TestRosterAdminSnapshotsAreIsolated(t *testing.T) {
	svc := &MockService{}
	svc.On("Users", mock.Anything).Return(rosterUsers(), nil).Once()

	ra := auth.NewRosterAdmin(svc)

	_, err := ra.LoadUsers(context.Background())
	require.NoError(t, err)

	users := ra.Users()
	users[0].Name = "mutated"

	fresh := ra.Users()
	assert.Equal(t, "Ada", fresh[0].Name)
}

func TestRosterAdminSnapshotRolesAreDeepCopies(t *testing.T) {
	svc := &MockService{}
	svc.On("Roles", mock.Anything).Return([]auth.Role{
		{ID: 1, Name: auth.RoleAdmin, Permissions: map[string]bool{"manage_users": true}},
	}, nil).Once()
	svc.On("Users", mock.Anything).Return(rosterUsers(), nil).Once()

	ra := auth.NewRosterAdmin(svc)

	_, err := ra.LoadRoles(context.Background())
	require.NoError(t, err)
	_, err = ra.LoadUsers(context.Background())
	require.NoError(t, err)

	roles := ra.Roles()
	roles[0].Name = "mutated"
	roles[0].Permissions["manage_users"] = false

	fresh := ra.Roles()
	assert.Equal(t, auth.RoleAdmin, fresh[0].Name)
	assert.True(t, fresh[0].Can("manage_users"))

	// mutating a snapshot user's role must not reach the cached roster
	users := ra.Users()
	users[0].Role.Name = "mutated"

	assert.Equal(t, auth.RoleAdmin, ra.Users()[0].Role.Name)
}

func TestRosterAdminReassignResultIsIsolated(t *testing.T) {
	svc := &MockService{}

	updated := &auth.User{
		ID:    2,
		Name:  "Ben",
		Email: "b@student.gla.ac.uk",
		Role:  &auth.Role{ID: 2, Name: auth.RoleModerator},
	}

	svc.On("Users", mock.Anything).Return(rosterUsers(), nil).Once()
	svc.On("UpdateUserRole", mock.Anything, 2, 2).
		Return(&auth.RoleChangeResult{Message: "Role updated successfully", User: updated}, nil).Once()

	ra := auth.NewRosterAdmin(svc)

	_, err := ra.LoadUsers(context.Background())
	require.NoError(t, err)

	got, err := ra.ReassignRole(context.Background(), 2, 2)
	require.NoError(t, err)

	got.Role.Name = "mutated"
	assert.Equal(t, auth.RoleModerator, ra.Users()[1].Role.Name)
}
