package models

import (
	"errors"

	"gorm.io/gorm"
)

// reservedRoleNames may not be used as a role's name.
var reservedRoleNames = []string{"new"}

// ErrReservedRoleName is returned when a role is given a reserved name.
var ErrReservedRoleName = errors.New("reserved role name")

// Role groups a set of permissions under a name. Users are assigned at
// most one role.
type Role struct {
	gorm.Model
	Name        string     `gorm:"uniqueIndex;size:255;not null" json:"name"`
	Permissions Permission `gorm:"not null;default:0" json:"permissions"`
	Users       []User     `json:"-"`
}

// NewRole creates an unsaved role with the given name.
func NewRole(name string, permissions Permission) (*Role, error) {
	role := &Role{Permissions: permissions}
	if err := role.SetName(name); err != nil {
		return nil, err
	}
	return role, nil
}

// SetName sets the role's name, rejecting reserved names.
func (r *Role) SetName(name string) error {
	for _, reserved := range reservedRoleNames {
		if name == reserved {
			return ErrReservedRoleName
		}
	}
	r.Name = name
	return nil
}

// EffectivePermissions returns the role's permission mask, normalizing
// corrupt negative values to the empty permission.
func (r *Role) EffectivePermissions() Permission {
	if r.Permissions < 0 {
		return PermissionNone
	}
	return r.Permissions
}

// HasPermission determines if the role has the given permission. The
// empty permission never satisfies the check.
func (r *Role) HasPermission(permission Permission) bool {
	if permission == PermissionNone {
		return false
	}
	return r.EffectivePermissions().Includes(permission)
}

// HasPermissionsAll determines if the role has all of the given
// permissions. An empty list and the empty permission yield false.
func (r *Role) HasPermissionsAll(permissions ...Permission) bool {
	if len(permissions) == 0 {
		return false
	}
	for _, permission := range permissions {
		if !r.HasPermission(permission) {
			return false
		}
	}
	return true
}

// HasPermissionsOneOf determines if the role has at least one of the
// given permissions. The empty permission never counts as a match.
func (r *Role) HasPermissionsOneOf(permissions ...Permission) bool {
	for _, permission := range permissions {
		if r.HasPermission(permission) {
			return true
		}
	}
	return false
}
