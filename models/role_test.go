package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRole(t *testing.T) {
	role, err := NewRole("Moderator", EditUser)
	require.NoError(t, err)
	assert.Equal(t, "Moderator", role.Name)
	assert.Equal(t, EditUser, role.Permissions)

	_, err = NewRole("new", EditUser)
	assert.ErrorIs(t, err, ErrReservedRoleName)
}

func TestRoleSetName(t *testing.T) {
	role := &Role{Name: "Moderator"}

	assert.ErrorIs(t, role.SetName("new"), ErrReservedRoleName)
	assert.Equal(t, "Moderator", role.Name)

	require.NoError(t, role.SetName("Support"))
	assert.Equal(t, "Support", role.Name)
}

func TestRoleEffectivePermissions(t *testing.T) {
	assert.Equal(t, EditRole, (&Role{Permissions: EditRole}).EffectivePermissions())
	assert.Equal(t, PermissionNone, (&Role{Permissions: -5}).EffectivePermissions())
}

func TestRoleHasPermission(t *testing.T) {
	role := &Role{Permissions: EditRole | EditUser}

	assert.True(t, role.HasPermission(EditRole))
	assert.True(t, role.HasPermission(EditUser))
	assert.False(t, role.HasPermission(EditGlobalSettings))

	// The empty permission grants nothing and is never granted.
	assert.False(t, role.HasPermission(PermissionNone))
	empty := &Role{Permissions: PermissionNone}
	assert.False(t, empty.HasPermission(PermissionNone))
	assert.False(t, empty.HasPermission(EditRole))
}

func TestRoleHasPermissionsAll(t *testing.T) {
	role := &Role{Permissions: EditRole | EditUser}

	assert.True(t, role.HasPermissionsAll(EditRole))
	assert.True(t, role.HasPermissionsAll(EditRole, EditUser))
	assert.False(t, role.HasPermissionsAll(EditRole, EditGlobalSettings))
	assert.False(t, role.HasPermissionsAll())
	assert.False(t, role.HasPermissionsAll(PermissionNone))
	assert.False(t, role.HasPermissionsAll(EditRole, PermissionNone))
}

func TestRoleHasPermissionsOneOf(t *testing.T) {
	role := &Role{Permissions: EditUser}

	assert.True(t, role.HasPermissionsOneOf(EditRole, EditUser))
	assert.False(t, role.HasPermissionsOneOf(EditRole, EditGlobalSettings))
	assert.False(t, role.HasPermissionsOneOf())
	assert.False(t, role.HasPermissionsOneOf(PermissionNone))
}

func TestUserPermissions(t *testing.T) {
	user := NewUser("jane@example.com", "Jane")
	assert.False(t, user.HasPermissionsAll(EditUser))
	assert.False(t, user.HasPermissionsOneOf(EditUser))

	user.Role = &Role{Permissions: EditUser}
	assert.True(t, user.HasPermissionsAll(EditUser))
	assert.True(t, user.HasPermissionsOneOf(EditRole, EditUser))
	assert.False(t, user.HasPermissionsAll(EditUser, EditRole))
}

func TestUserSettingsDefaults(t *testing.T) {
	user := NewUser("jane@example.com", "Jane")
	require.NotNil(t, user.Settings)
	assert.Equal(t, DefaultLanguage, user.Settings.Language)

	user.Settings.Language = "de"
	user.Settings.Reset()
	assert.Equal(t, DefaultLanguage, user.Settings.Language)
}
