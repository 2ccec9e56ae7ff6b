package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"aerarium/localization"
	"aerarium/models"
	"aerarium/pagination"
	"aerarium/repositories"
)

// UserService implements the administrative user operations: paged
// listing with search, access to individual accounts, and managing a
// user's settings on their behalf.
type UserService struct {
	users       repositories.UserRepository
	languages   *localization.Languages
	rowsPerPage int
}

// NewUserService creates a new UserService instance.
func NewUserService(users repositories.UserRepository, languages *localization.Languages, rowsPerPage int) *UserService {
	return &UserService{users: users, languages: languages, rowsPerPage: rowsPerPage}
}

// UserPage is one page of users together with the text summarizing the
// displayed window.
type UserPage struct {
	*pagination.Page[models.User]
	InfoText string
}

// List returns the given page of users, ordered by name, optionally
// filtered by a search term matched against name and email.
func (s *UserService) List(page int, search string) (*UserPage, error) {
	result, err := pagination.Paginate[models.User](s.users.SearchQuery(search), page, s.rowsPerPage)
	if err != nil {
		return nil, err
	}
	return &UserPage{Page: result, InfoText: result.InfoText(search)}, nil
}

// Get returns the user with the given ID including role and settings.
func (s *UserService) Get(id uint) (*models.User, error) {
	user, err := s.users.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("loading user: %w", err)
	}
	return user, nil
}

// UpdateSettings sets the given user's language on their behalf.
func (s *UserService) UpdateSettings(id uint, language string) (*models.UserSettings, error) {
	if !s.languages.Supported(language) {
		return nil, fmt.Errorf("%w: unsupported language %q", ErrValidation, language)
	}

	settings, err := s.loadSettings(id)
	if err != nil {
		return nil, err
	}
	settings.Language = language

	if err := s.users.UpdateSettings(settings); err != nil {
		return nil, fmt.Errorf("saving settings: %w", err)
	}
	return settings, nil
}

// ResetSettings restores the given user's settings to their defaults.
func (s *UserService) ResetSettings(id uint) (*models.UserSettings, error) {
	settings, err := s.loadSettings(id)
	if err != nil {
		return nil, err
	}
	settings.Reset()

	if err := s.users.UpdateSettings(settings); err != nil {
		return nil, fmt.Errorf("saving settings: %w", err)
	}
	return settings, nil
}

func (s *UserService) loadSettings(id uint) (*models.UserSettings, error) {
	user, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	settings := user.Settings
	if settings == nil {
		settings = models.NewUserSettings()
		settings.UserID = user.ID
	}
	return settings, nil
}
