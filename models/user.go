package models

import (
	"gorm.io/gorm"
)

// User is an account within the application.
type User struct {
	gorm.Model
	Email        string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string `gorm:"size:128" json:"-"`
	Name         string `gorm:"size:255" json:"name"`
	IsActivated  bool   `gorm:"not null;default:true" json:"is_activated"`

	RoleID *uint `json:"role_id"`
	Role   *Role `json:"role,omitempty"`

	// Settings is created together with the user and removed with it.
	Settings *UserSettings `gorm:"constraint:OnDelete:CASCADE" json:"settings,omitempty"`
}

// NewUser creates an unsaved user with default settings attached.
func NewUser(email, name string) *User {
	return &User{
		Email:       email,
		Name:        name,
		IsActivated: true,
		Settings:    NewUserSettings(),
	}
}

// HasPermissionsAll reports whether the user's role grants all of the
// given permissions. A user without a role has no permissions.
func (u *User) HasPermissionsAll(permissions ...Permission) bool {
	if u.Role == nil {
		return false
	}
	return u.Role.HasPermissionsAll(permissions...)
}

// HasPermissionsOneOf reports whether the user's role grants at least one
// of the given permissions.
func (u *User) HasPermissionsOneOf(permissions ...Permission) bool {
	if u.Role == nil {
		return false
	}
	return u.Role.HasPermissionsOneOf(permissions...)
}
