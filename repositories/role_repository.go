package repositories

import (
	"gorm.io/gorm"

	"aerarium/models"
)

// RoleRepository defines the role-related database operations.
type RoleRepository interface {
	Create(role *models.Role) error
	FindByID(id uint) (*models.Role, error)
	FindByName(name string) (*models.Role, error)
	Update(role *models.Role) error
	// ListQuery returns a name-ordered query over all roles.
	ListQuery() *gorm.DB
	// FindWithPermission returns all roles whose mask includes the given
	// permission.
	FindWithPermission(permission models.Permission) ([]models.Role, error)
	CountUsers(roleID uint) (int64, error)
	// DeleteWithReassignment moves all users of the role to the
	// replacement (which may be nil if the role has no users) and removes
	// the role, atomically.
	DeleteWithReassignment(role *models.Role, replacement *models.Role) error
}

type roleRepository struct {
	db *gorm.DB
}

var _ RoleRepository = (*roleRepository)(nil)

// NewRoleRepository creates a new RoleRepository instance.
func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &roleRepository{db: db}
}

func (r *roleRepository) Create(role *models.Role) error {
	return r.db.Create(role).Error
}

func (r *roleRepository) FindByID(id uint) (*models.Role, error) {
	var role models.Role
	if err := r.db.First(&role, id).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepository) FindByName(name string) (*models.Role, error) {
	var role models.Role
	if err := r.db.Where("name = ?", name).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepository) Update(role *models.Role) error {
	return r.db.Save(role).Error
}

func (r *roleRepository) ListQuery() *gorm.DB {
	return r.db.Model(&models.Role{}).Order("name")
}

func (r *roleRepository) FindWithPermission(permission models.Permission) ([]models.Role, error) {
	var roles []models.Role
	err := r.db.Where("permissions & ? = ?", int64(permission), int64(permission)).Find(&roles).Error
	if err != nil {
		return nil, err
	}
	return roles, nil
}

func (r *roleRepository) CountUsers(roleID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.User{}).Where("role_id = ?", roleID).Count(&count).Error
	return count, err
}

func (r *roleRepository) DeleteWithReassignment(role *models.Role, replacement *models.Role) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if replacement != nil {
			err := tx.Model(&models.User{}).
				Where("role_id = ?", role.ID).
				Update("role_id", replacement.ID).Error
			if err != nil {
				return err
			}
		}
		return tx.Unscoped().Delete(role).Error
	})
}
