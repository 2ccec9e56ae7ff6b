package models

// DefaultLanguage is the language every user starts with. It is always
// part of the supported languages.
const DefaultLanguage = "en"

// UserSettings is the collection of settings each user can individually
// define. It shares its primary key with the owning user.
type UserSettings struct {
	UserID   uint   `gorm:"primaryKey" json:"-"`
	Language string `gorm:"size:8;not null;default:en" json:"language"`
}

// NewUserSettings returns settings with all values at their defaults.
func NewUserSettings() *UserSettings {
	settings := &UserSettings{}
	settings.Reset()
	return settings
}

// Reset restores all settings to their default values.
func (s *UserSettings) Reset() {
	s.Language = DefaultLanguage
}
