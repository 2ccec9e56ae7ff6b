package models

import (
	"errors"
	"fmt"
)

// Permission is a single capability or a combination of capabilities,
// represented as a bitmask. Each defined permission occupies exactly one
// bit, so any combination of permissions can be stored in a single
// integer column.
type Permission int64

const (
	// PermissionNone is the empty permission. It grants nothing and, as a
	// matter of policy, never satisfies a permission check.
	PermissionNone Permission = 0

	// EditRole is the permission to create, read, update, or delete roles.
	EditRole Permission = 1 << iota >> 1

	// EditUser is the permission to create, read, update, or delete users.
	EditUser

	// EditGlobalSettings is the permission to modify the global settings.
	EditGlobalSettings
)

// allPermissions is the mask of every defined permission bit.
const allPermissions = EditRole | EditUser | EditGlobalSettings

// ErrInvalidPermission is returned when a permission operation receives a
// value carrying bits that do not belong to any defined permission.
var ErrInvalidPermission = errors.New("invalid permission value")

// PermissionInfo carries display metadata for a single defined permission.
type PermissionInfo struct {
	Permission  Permission `json:"permission"`
	Name        string     `json:"name"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
}

// permissionInfos is ordered by definition; DefinedPermissions relies on
// that order.
var permissionInfos = []PermissionInfo{
	{
		Permission:  EditRole,
		Name:        "EditRole",
		Title:       "Edit Roles",
		Description: "The permission to create, read, update, or delete a role. This permission cannot be removed from a role if the role is the only one allowed to edit roles.",
	},
	{
		Permission:  EditUser,
		Name:        "EditUser",
		Title:       "Edit Users",
		Description: "The permission to create, read, update, or delete a user.",
	},
	{
		Permission:  EditGlobalSettings,
		Name:        "EditGlobalSettings",
		Title:       "Edit Global Settings",
		Description: "The permission to modify the global settings.",
	},
}

// DefinedPermissions returns the metadata of all defined permissions in
// the order of their definition.
func DefinedPermissions() []PermissionInfo {
	infos := make([]PermissionInfo, len(permissionInfos))
	copy(infos, permissionInfos)
	return infos
}

// Valid reports whether the permission carries only defined bits. The
// empty permission is valid.
func (p Permission) Valid() bool {
	return p >= 0 && p&^allPermissions == 0
}

// Includes determines if this (combination of) permission includes the
// given other permission.
func (p Permission) Includes(other Permission) bool {
	return p&other == other
}

// String returns the name of a singular permission or a readable
// representation of a combination.
func (p Permission) String() string {
	if !p.Valid() {
		return fmt.Sprintf("Permission(%d)", int64(p))
	}
	if p == PermissionNone {
		return "None"
	}

	name := ""
	for _, info := range permissionInfos {
		if p.Includes(info.Permission) {
			if name != "" {
				name += "|"
			}
			name += info.Name
		}
	}
	return name
}

// AndPermissions combines the given permissions with a bitwise AND. At
// least one permission must be given and all values must be valid.
func AndPermissions(permissions ...Permission) (Permission, error) {
	return combinePermissions(func(a, b Permission) Permission { return a & b }, permissions...)
}

// OrPermissions combines the given permissions with a bitwise OR. At
// least one permission must be given and all values must be valid.
func OrPermissions(permissions ...Permission) (Permission, error) {
	return combinePermissions(func(a, b Permission) Permission { return a | b }, permissions...)
}

// XorPermissions combines the given permissions with a bitwise XOR. At
// least one permission must be given and all values must be valid.
func XorPermissions(permissions ...Permission) (Permission, error) {
	return combinePermissions(func(a, b Permission) Permission { return a ^ b }, permissions...)
}

func combinePermissions(op func(a, b Permission) Permission, permissions ...Permission) (Permission, error) {
	if len(permissions) == 0 {
		return PermissionNone, fmt.Errorf("%w: no permissions given", ErrInvalidPermission)
	}

	for _, permission := range permissions {
		if !permission.Valid() {
			return PermissionNone, fmt.Errorf("%w: %d", ErrInvalidPermission, int64(permission))
		}
	}

	result := permissions[0]
	for _, permission := range permissions[1:] {
		result = op(result, permission)
	}
	return result, nil
}
