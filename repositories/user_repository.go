package repositories

import (
	"strings"

	"gorm.io/gorm"

	"aerarium/models"
)

// UserRepository defines the user-related database operations.
type UserRepository interface {
	Create(user *models.User) error
	FindByID(id uint) (*models.User, error)
	FindByEmail(email string) (*models.User, error)
	Update(user *models.User) error
	UpdateSettings(settings *models.UserSettings) error
	Delete(user *models.User) error
	// SearchQuery returns a name-ordered query over all users, filtered
	// by the search term matching name or email if one is given.
	SearchQuery(term string) *gorm.DB
}

type userRepository struct {
	db *gorm.DB
}

var _ UserRepository = (*userRepository)(nil)

// NewUserRepository creates a new UserRepository instance.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

func (r *userRepository) FindByID(id uint) (*models.User, error) {
	var user models.User
	result := r.db.Preload("Role").Preload("Settings").First(&user, id)
	if result.Error != nil {
		return nil, result.Error
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(email string) (*models.User, error) {
	var user models.User
	result := r.db.Preload("Role").Preload("Settings").Where("email = ?", email).First(&user)
	if result.Error != nil {
		return nil, result.Error
	}
	return &user, nil
}

func (r *userRepository) Update(user *models.User) error {
	return r.db.Save(user).Error
}

func (r *userRepository) UpdateSettings(settings *models.UserSettings) error {
	return r.db.Save(settings).Error
}

// Delete removes the user together with their settings row.
func (r *userRepository) Delete(user *models.User) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.UserSettings{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(user).Error
	})
}

func (r *userRepository) SearchQuery(term string) *gorm.DB {
	query := r.db.Model(&models.User{}).Order("name")
	if term != "" {
		pattern := "%" + escapeLike(term) + "%"
		query = query.Where(`name LIKE ? ESCAPE '\' OR email LIKE ? ESCAPE '\'`, pattern, pattern)
	}
	return query
}

// escapeLike neutralizes LIKE wildcards in user-supplied search terms.
func escapeLike(term string) string {
	term = strings.ReplaceAll(term, `\`, `\\`)
	term = strings.ReplaceAll(term, "%", `\%`)
	return strings.ReplaceAll(term, "_", `\_`)
}
