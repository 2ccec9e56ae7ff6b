package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"aerarium/models"
	"aerarium/pagination"
	"aerarium/repositories"
)

// RoleService implements the administration of roles and their
// permission masks.
type RoleService struct {
	roles       repositories.RoleRepository
	rowsPerPage int
}

// NewRoleService creates a new RoleService instance.
func NewRoleService(roles repositories.RoleRepository, rowsPerPage int) *RoleService {
	return &RoleService{roles: roles, rowsPerPage: rowsPerPage}
}

// List returns the given page of roles, ordered by name.
func (s *RoleService) List(page int) (*pagination.Page[models.Role], error) {
	return pagination.Paginate[models.Role](s.roles.ListQuery(), page, s.rowsPerPage)
}

// Get returns the role with the given name.
func (s *RoleService) Get(name string) (*models.Role, error) {
	role, err := s.roles.FindByName(name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("loading role: %w", err)
	}
	return role, nil
}

// Create adds a new role with the given permission mask.
func (s *RoleService) Create(name string, permissions models.Permission) (*models.Role, error) {
	if !permissions.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrValidation, models.ErrInvalidPermission)
	}
	role, err := models.NewRole(name, permissions)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if _, err := s.roles.FindByName(name); err == nil {
		return nil, fmt.Errorf("%w: a role with this name already exists", ErrConflict)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("checking role name: %w", err)
	}

	if err := s.roles.Create(role); err != nil {
		return nil, fmt.Errorf("creating role: %w", err)
	}
	return role, nil
}

// RoleUpdateInput carries the changes to apply to a role. Nil fields are
// left untouched.
type RoleUpdateInput struct {
	Name        *string            `json:"name"`
	Permissions *models.Permission `json:"permissions"`
}

// RoleUpdateResult reports what an Update call did. PermissionRestored
// is set when the role management permission was silently re-added
// because no other role carries it.
type RoleUpdateResult struct {
	Role               *models.Role
	PermissionRestored bool
}

// Update applies the given changes to the named role. Removing the role
// management permission from the only role that has it would lock every
// administrator out, so in that case the permission is kept and the
// result flags the restoration.
func (s *RoleService) Update(name string, input *RoleUpdateInput) (*RoleUpdateResult, error) {
	role, err := s.Get(name)
	if err != nil {
		return nil, err
	}

	if input.Name != nil && *input.Name != role.Name {
		if _, err := s.roles.FindByName(*input.Name); err == nil {
			return nil, fmt.Errorf("%w: a role with this name already exists", ErrConflict)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("checking role name: %w", err)
		}
		if err := role.SetName(*input.Name); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
	}

	result := &RoleUpdateResult{Role: role}
	if input.Permissions != nil {
		permissions := *input.Permissions
		if !permissions.Valid() {
			return nil, fmt.Errorf("%w: %v", ErrValidation, models.ErrInvalidPermission)
		}

		dropsEditRole := role.HasPermission(models.EditRole) && !permissions.Includes(models.EditRole)
		if dropsEditRole {
			lastHolder, err := s.isOnlyRoleWithEditRole(role)
			if err != nil {
				return nil, err
			}
			if lastHolder {
				permissions, err = models.OrPermissions(permissions, models.EditRole)
				if err != nil {
					return nil, fmt.Errorf("%w: %v", ErrValidation, err)
				}
				result.PermissionRestored = true
			}
		}
		role.Permissions = permissions
	}

	if err := s.roles.Update(role); err != nil {
		return nil, fmt.Errorf("saving role: %w", err)
	}
	return result, nil
}

// Delete removes the named role. Users assigned to the role are moved to
// the replacement role, which is required in that case and must be a
// different existing role. The only role holding the role management
// permission can never be deleted.
func (s *RoleService) Delete(name string, replacementName string) error {
	role, err := s.Get(name)
	if err != nil {
		return err
	}

	if role.HasPermission(models.EditRole) {
		lastHolder, err := s.isOnlyRoleWithEditRole(role)
		if err != nil {
			return err
		}
		if lastHolder {
			return fmt.Errorf("%w: no other role can manage roles", ErrConflict)
		}
	}

	userCount, err := s.roles.CountUsers(role.ID)
	if err != nil {
		return fmt.Errorf("counting role users: %w", err)
	}

	var replacement *models.Role
	if userCount > 0 {
		if replacementName == "" {
			return fmt.Errorf("%w: the role still has users and needs a replacement role", ErrValidation)
		}
		if replacementName == role.Name {
			return fmt.Errorf("%w: the replacement role must be a different role", ErrValidation)
		}
		replacement, err = s.Get(replacementName)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return fmt.Errorf("%w: the replacement role does not exist", ErrValidation)
			}
			return err
		}
	}

	if err := s.roles.DeleteWithReassignment(role, replacement); err != nil {
		return fmt.Errorf("deleting role: %w", err)
	}
	return nil
}

// Permissions lists all defined permissions with their metadata.
func (s *RoleService) Permissions() []models.PermissionInfo {
	return models.DefinedPermissions()
}

// isOnlyRoleWithEditRole reports whether no role other than the given
// one holds the role management permission.
func (s *RoleService) isOnlyRoleWithEditRole(role *models.Role) (bool, error) {
	holders, err := s.roles.FindWithPermission(models.EditRole)
	if err != nil {
		return false, fmt.Errorf("looking up role managers: %w", err)
	}
	for _, holder := range holders {
		if holder.ID != role.ID {
			return false, nil
		}
	}
	return true, nil
}
