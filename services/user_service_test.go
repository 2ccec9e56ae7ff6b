package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aerarium/localization"
	"aerarium/models"
	"aerarium/pagination"
	"aerarium/repositories"
)

func newTestUserService(t *testing.T) (*UserService, repositories.UserRepository) {
	t.Helper()
	db := setupTestDB(t)
	users := repositories.NewUserRepository(db)
	return NewUserService(users, localization.New([]string{"de"}), 10), users
}

func TestUserList(t *testing.T) {
	service, users := newTestUserService(t)
	for i := 1; i <= 12; i++ {
		createTestUser(t, users, fmt.Sprintf("user%02d@example.com", i), fmt.Sprintf("User %02d", i), "secret")
	}
	createTestUser(t, users, "jane@example.com", "Jane", "secret")

	t.Run("First page", func(t *testing.T) {
		page, err := service.List(1, "")
		require.NoError(t, err)
		assert.Equal(t, 10, page.RowsOnPage())
		assert.Equal(t, int64(13), page.TotalRows)
		assert.Equal(t, "Displaying results 1 to 10 of 13", page.InfoText)
	})

	t.Run("Second page", func(t *testing.T) {
		page, err := service.List(2, "")
		require.NoError(t, err)
		assert.Equal(t, 3, page.RowsOnPage())
	})

	t.Run("Out of range", func(t *testing.T) {
		_, err := service.List(3, "")
		assert.ErrorIs(t, err, pagination.ErrPageOutOfRange)
	})

	t.Run("Search by name", func(t *testing.T) {
		page, err := service.List(1, "Jane")
		require.NoError(t, err)
		require.Equal(t, 1, page.RowsOnPage())
		assert.Equal(t, "Jane", page.Rows[0].Name)
		assert.Equal(t, "Displaying result 1 of 1 matching “Jane”", page.InfoText)
	})

	t.Run("Search by email", func(t *testing.T) {
		page, err := service.List(1, "user03@")
		require.NoError(t, err)
		require.Equal(t, 1, page.RowsOnPage())
		assert.Equal(t, "user03@example.com", page.Rows[0].Email)
	})

	t.Run("Search without matches", func(t *testing.T) {
		page, err := service.List(1, "missing")
		require.NoError(t, err)
		assert.Equal(t, 0, page.RowsOnPage())
		assert.Equal(t, "No results found matching “missing”", page.InfoText)
	})

	t.Run("Wildcards in search terms match literally", func(t *testing.T) {
		page, err := service.List(1, "%")
		require.NoError(t, err)
		assert.Equal(t, 0, page.RowsOnPage())

		page, err = service.List(1, "_")
		require.NoError(t, err)
		assert.Equal(t, 0, page.RowsOnPage())
	})
}

func TestUserGet(t *testing.T) {
	service, users := newTestUserService(t)
	user := createTestUser(t, users, "jane@example.com", "Jane", "secret")

	stored, err := service.Get(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", stored.Email)

	_, err = service.Get(9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserSettingsAdministration(t *testing.T) {
	service, users := newTestUserService(t)
	user := createTestUser(t, users, "jane@example.com", "Jane", "secret")

	settings, err := service.UpdateSettings(user.ID, "de")
	require.NoError(t, err)
	assert.Equal(t, "de", settings.Language)

	stored, err := users.FindByID(user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Settings)
	assert.Equal(t, "de", stored.Settings.Language)

	_, err = service.UpdateSettings(user.ID, "xx")
	assert.ErrorIs(t, err, ErrValidation)

	settings, err = service.ResetSettings(user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultLanguage, settings.Language)

	_, err = service.UpdateSettings(9999, "de")
	assert.ErrorIs(t, err, ErrNotFound)
}
