package services

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"aerarium/localization"
	"aerarium/mail"
	"aerarium/models"
	"aerarium/repositories"
	"aerarium/token"
)

// ProfileService implements the user's self-service operations: profile
// edits, the emailed email-change, password-reset, and account-deletion
// flows, and the per-user settings.
type ProfileService struct {
	users  repositories.UserRepository
	tokens *token.Issuer
	mailer *mail.Mailer
	log    *zap.Logger

	languages      *localization.Languages
	baseURL        string
	supportAddress string
	bcryptCost     int
}

// NewProfileService creates a new ProfileService instance. baseURL is
// prepended to the action links embedded in emails.
func NewProfileService(
	users repositories.UserRepository,
	tokens *token.Issuer,
	mailer *mail.Mailer,
	log *zap.Logger,
	languages *localization.Languages,
	baseURL string,
	supportAddress string,
	bcryptCost int,
) *ProfileService {
	return &ProfileService{
		users:          users,
		tokens:         tokens,
		mailer:         mailer,
		log:            log,
		languages:      languages,
		baseURL:        baseURL,
		supportAddress: supportAddress,
		bcryptCost:     bcryptCost,
	}
}

// UpdateProfileInput carries the changes a user can make to their own
// profile. Nil fields are left untouched.
type UpdateProfileInput struct {
	Name     *string `json:"name"`
	Password *string `json:"password"`
	Email    *string `json:"email"`
}

// ProfileUpdateResult reports what an UpdateProfile call did. When an
// email change was requested, EmailChangeValidity holds the validity of
// the emailed confirmation link in minutes.
type ProfileUpdateResult struct {
	User                 *models.User
	EmailChangeRequested bool
	EmailChangeValidity  int
}

// GetProfile loads the given user.
func (s *ProfileService) GetProfile(userID uint) (*models.User, error) {
	return s.loadUser(userID)
}

// UpdateProfile applies the given changes. The name and password take
// effect immediately; a new email address only triggers a confirmation
// mail to that address and is not applied until the emailed token is
// verified.
func (s *ProfileService) UpdateProfile(userID uint, input *UpdateProfileInput) (*ProfileUpdateResult, error) {
	user, err := s.loadUser(userID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil && *input.Name != user.Name {
		user.Name = *input.Name
	}

	if input.Password != nil && *input.Password != "" {
		if err := s.setPassword(user, *input.Password); err != nil {
			return nil, err
		}
	}

	if err := s.users.Update(user); err != nil {
		return nil, fmt.Errorf("saving profile: %w", err)
	}

	result := &ProfileUpdateResult{User: user}
	if input.Email != nil && *input.Email != "" && *input.Email != user.Email {
		validity, err := s.RequestEmailChange(user, *input.Email)
		if err != nil {
			return nil, err
		}
		result.EmailChangeRequested = true
		result.EmailChangeValidity = validity
	}

	return result, nil
}

// RequestEmailChange mails a confirmation link for the new address to
// that address. The user's email is not changed until the token is
// verified. Returns the link validity in minutes.
func (s *ProfileService) RequestEmailChange(user *models.User, newEmail string) (int, error) {
	if other, err := s.users.FindByEmail(newEmail); err == nil && other.ID != user.ID {
		return 0, fmt.Errorf("%w: email address already in use", ErrConflict)
	}

	actionToken, err := s.tokens.Issue(token.PurposeChangeEmail, token.Claims{
		UserID:   user.ID,
		NewEmail: newEmail,
	})
	if err != nil {
		return 0, fmt.Errorf("issuing email change token: %w", err)
	}

	validity := s.tokens.ValidityMinutes()
	err = s.mailer.Send("Change Your Email Address", "change_email_request", map[string]interface{}{
		"Name":            user.Name,
		"Link":            s.baseURL + "/profile/email/" + actionToken,
		"ValidityMinutes": validity,
		"OldEmail":        user.Email,
		"NewEmail":        newEmail,
	}, newEmail)
	if err != nil {
		return 0, err
	}
	return validity, nil
}

// ConfirmEmailChange verifies the emailed token and applies the new
// address. Changing to an address already used by a different account
// fails with ErrConflict and leaves the current address unchanged.
// Changing to the current address is a silent no-op.
func (s *ProfileService) ConfirmEmailChange(tokenString string) error {
	claims, err := s.tokens.Verify(tokenString, token.PurposeChangeEmail)
	if err != nil {
		return tokenVerificationError(err)
	}

	user, err := s.loadUser(claims.UserID)
	if err != nil {
		return err
	}

	return s.setEmail(user, claims.NewEmail)
}

// setEmail applies a new email address to the user, notifying the old
// address. No mail is sent when the address does not actually change.
func (s *ProfileService) setEmail(user *models.User, newEmail string) error {
	oldEmail := user.Email
	if oldEmail == newEmail {
		return nil
	}

	other, err := s.users.FindByEmail(newEmail)
	if err == nil && other.ID != user.ID {
		return fmt.Errorf("%w: the email address already is in use", ErrConflict)
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("checking email uniqueness: %w", err)
	}

	user.Email = newEmail
	if err := s.users.Update(user); err != nil {
		return fmt.Errorf("saving email address: %w", err)
	}

	if oldEmail != "" {
		err := s.mailer.Send("Your Email Address Has Been Changed", "change_email_confirmation", map[string]interface{}{
			"Name":           user.Name,
			"NewEmail":       newEmail,
			"SupportAddress": s.supportAddress,
		}, oldEmail)
		if err != nil {
			s.log.Error("Failed to prepare email change notification", zap.Error(err))
		}
	}
	return nil
}

// RequestPasswordReset mails a reset link when the address belongs to an
// account. It reports the link validity in minutes in every case so the
// response never discloses whether the account exists.
func (s *ProfileService) RequestPasswordReset(email string) (int, error) {
	validity := s.tokens.ValidityMinutes()

	user, err := s.users.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return validity, nil
		}
		return 0, fmt.Errorf("looking up user: %w", err)
	}

	actionToken, err := s.tokens.Issue(token.PurposeResetPassword, token.Claims{UserID: user.ID})
	if err != nil {
		return 0, fmt.Errorf("issuing password reset token: %w", err)
	}

	err = s.mailer.Send("Reset Your Password", "reset_password_request", map[string]interface{}{
		"Name":            user.Name,
		"Link":            s.baseURL + "/auth/reset-password/" + actionToken,
		"ValidityMinutes": validity,
	}, user.Email)
	if err != nil {
		return 0, err
	}
	return validity, nil
}

// ConfirmPasswordReset verifies the emailed token and sets the new
// password. Invalid or expired tokens fail with ErrNotFound.
func (s *ProfileService) ConfirmPasswordReset(tokenString, newPassword string) error {
	if newPassword == "" {
		return fmt.Errorf("%w: the password must not be empty", ErrValidation)
	}

	claims, err := s.tokens.Verify(tokenString, token.PurposeResetPassword)
	if err != nil {
		return tokenVerificationError(err)
	}

	user, err := s.loadUser(claims.UserID)
	if err != nil {
		return err
	}

	if err := s.setPassword(user, newPassword); err != nil {
		return err
	}
	return s.users.Update(user)
}

// setPassword hashes and sets the given password. A confirmation mail is
// sent unless the password stays the same or the account never had one
// (i.e. it is just being created).
func (s *ProfileService) setPassword(user *models.User, password string) error {
	if user.PasswordHash != "" &&
		bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil {
		return nil
	}

	hadPassword := user.PasswordHash != ""

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	user.PasswordHash = string(hash)

	if hadPassword && user.Email != "" {
		err := s.mailer.Send("Your Password Has Been Changed", "reset_password_confirmation", map[string]interface{}{
			"Name":           user.Name,
			"SupportAddress": s.supportAddress,
		}, user.Email)
		if err != nil {
			s.log.Error("Failed to prepare password change notification", zap.Error(err))
		}
	}
	return nil
}

// RequestAccountDeletion mails a deletion confirmation link to the
// user's address. Returns the link validity in minutes.
func (s *ProfileService) RequestAccountDeletion(userID uint) (int, error) {
	user, err := s.loadUser(userID)
	if err != nil {
		return 0, err
	}

	actionToken, err := s.tokens.Issue(token.PurposeDeleteAccount, token.Claims{UserID: user.ID})
	if err != nil {
		return 0, fmt.Errorf("issuing account deletion token: %w", err)
	}

	validity := s.tokens.ValidityMinutes()
	err = s.mailer.Send("Delete Your User Profile", "delete_account_request", map[string]interface{}{
		"Name":            user.Name,
		"Link":            s.baseURL + "/profile/delete/" + actionToken,
		"ValidityMinutes": validity,
	}, user.Email)
	if err != nil {
		return 0, err
	}
	return validity, nil
}

// ConfirmAccountDeletion verifies the emailed token and deletes the
// account, including its settings. Users can only delete their own
// account: a token for anyone else fails like an invalid one.
func (s *ProfileService) ConfirmAccountDeletion(tokenString string, currentUserID uint) error {
	claims, err := s.tokens.Verify(tokenString, token.PurposeDeleteAccount)
	if err != nil {
		return tokenVerificationError(err)
	}

	if claims.UserID != currentUserID {
		return ErrNotFound
	}

	user, err := s.loadUser(claims.UserID)
	if err != nil {
		return err
	}

	if err := s.users.Delete(user); err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}

	if user.Email != "" {
		err := s.mailer.Send("Your User Profile Has Been Deleted", "delete_account_confirmation", map[string]interface{}{
			"Name":           user.Name,
			"SupportAddress": s.supportAddress,
		}, user.Email)
		if err != nil {
			s.log.Error("Failed to prepare account deletion notification", zap.Error(err))
		}
	}
	return nil
}

// LanguageNames lists the supported languages with their display names
// in the given language.
func (s *ProfileService) LanguageNames(current string) []localization.LanguageName {
	return s.languages.Names(current)
}

// Settings returns the user's settings together with the display names
// of all supported languages in the user's language. A user who never
// stored settings gets the language negotiated from the Accept-Language
// header.
func (s *ProfileService) Settings(userID uint, acceptLanguage string) (*models.UserSettings, []localization.LanguageName, error) {
	user, err := s.loadUser(userID)
	if err != nil {
		return nil, nil, err
	}

	settings := user.Settings
	if settings == nil {
		settings = models.NewUserSettings()
		settings.UserID = user.ID
		settings.Language = s.languages.Match(acceptLanguage)
	}
	return settings, s.languages.Names(settings.Language), nil
}

// UpdateSettings sets the user's language. The language must be one of
// the supported locale codes.
func (s *ProfileService) UpdateSettings(userID uint, language string) (*models.UserSettings, error) {
	if !s.languages.Supported(language) {
		return nil, fmt.Errorf("%w: unsupported language %q", ErrValidation, language)
	}

	user, err := s.loadUser(userID)
	if err != nil {
		return nil, err
	}

	settings := user.Settings
	if settings == nil {
		settings = models.NewUserSettings()
		settings.UserID = user.ID
	}
	settings.Language = language

	if err := s.users.UpdateSettings(settings); err != nil {
		return nil, fmt.Errorf("saving settings: %w", err)
	}
	return settings, nil
}

// ResetSettings restores the user's settings to their default values.
func (s *ProfileService) ResetSettings(userID uint) (*models.UserSettings, error) {
	user, err := s.loadUser(userID)
	if err != nil {
		return nil, err
	}

	settings := user.Settings
	if settings == nil {
		settings = models.NewUserSettings()
		settings.UserID = user.ID
	}
	settings.Reset()

	if err := s.users.UpdateSettings(settings); err != nil {
		return nil, fmt.Errorf("saving settings: %w", err)
	}
	return settings, nil
}

func (s *ProfileService) loadUser(userID uint) (*models.User, error) {
	user, err := s.users.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("loading user: %w", err)
	}
	return user, nil
}

// tokenVerificationError collapses every token failure into ErrNotFound:
// a link with a bad token behaves exactly like a link that never existed,
// so responses disclose nothing about accounts or token internals.
func tokenVerificationError(err error) error {
	switch {
	case errors.Is(err, token.ErrMalformed),
		errors.Is(err, token.ErrSignature),
		errors.Is(err, token.ErrExpired),
		errors.Is(err, token.ErrWrongPurpose),
		errors.Is(err, token.ErrPayload):
		return ErrNotFound
	default:
		return err
	}
}
