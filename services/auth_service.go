package services

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"aerarium/auth"
	"aerarium/models"
	"aerarium/repositories"
)

// AuthService handles logins.
type AuthService struct {
	users    repositories.UserRepository
	sessions *auth.SessionManager
}

// NewAuthService creates a new AuthService instance.
func NewAuthService(users repositories.UserRepository, sessions *auth.SessionManager) *AuthService {
	return &AuthService{users: users, sessions: sessions}
}

// Login checks the email/password combination and returns the user and a
// session token. Every failure mode collapses into ErrUnauthorized so
// the response does not disclose whether the address belongs to an
// account.
func (s *AuthService) Login(email, password string) (*models.User, string, error) {
	if email == "" || password == "" {
		return nil, "", ErrUnauthorized
	}

	user, err := s.users.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrUnauthorized
		}
		return nil, "", fmt.Errorf("looking up user: %w", err)
	}

	if !user.IsActivated {
		return nil, "", ErrUnauthorized
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, "", ErrUnauthorized
	}

	sessionToken, err := s.sessions.Generate(user)
	if err != nil {
		return nil, "", fmt.Errorf("generating session token: %w", err)
	}
	return user, sessionToken, nil
}
