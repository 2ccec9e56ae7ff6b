package services

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"aerarium/mail"
	"aerarium/models"
	"aerarium/repositories"
)

// recordingSender captures dispatched mails for inspection.
type recordingSender struct {
	mu       sync.Mutex
	messages []*mail.Message
}

func (s *recordingSender) Send(msg *mail.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	return nil
}

func (s *recordingSender) sent() []*mail.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messages
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Role{}, &models.User{}, &models.UserSettings{}))
	return db
}

func newTestMailer(t *testing.T) (*mail.Mailer, *recordingSender) {
	t.Helper()
	sender := &recordingSender{}
	mailer, err := mail.NewMailer(sender, zap.NewNop(), "Aerarium", "no-reply@example.com")
	require.NoError(t, err)
	return mailer, sender
}

// createTestUser stores a user with the given password hash already set.
func createTestUser(t *testing.T, users repositories.UserRepository, email, name, password string) *models.User {
	t.Helper()
	user := models.NewUser(email, name)
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		require.NoError(t, err)
		user.PasswordHash = string(hash)
	}
	require.NoError(t, users.Create(user))
	return user
}
