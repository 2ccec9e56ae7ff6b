package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"aerarium/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	return db
}

func TestSeed(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, Seed(db, zap.NewNop(), bcrypt.MinCost))

	var adminRole models.Role
	require.NoError(t, db.Where("name = ?", "Administrator").First(&adminRole).Error)
	assert.True(t, adminRole.HasPermissionsAll(models.EditRole, models.EditUser, models.EditGlobalSettings))

	var userRole models.Role
	require.NoError(t, db.Where("name = ?", "User").First(&userRole).Error)
	assert.Equal(t, models.PermissionNone, userRole.Permissions)

	var admin models.User
	require.NoError(t, db.Where("email = ?", "admin@example.com").First(&admin).Error)
	require.NotNil(t, admin.RoleID)
	assert.Equal(t, adminRole.ID, *admin.RoleID)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte("aerarium")))
}

func TestSeedIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, Seed(db, zap.NewNop(), bcrypt.MinCost))
	require.NoError(t, Seed(db, zap.NewNop(), bcrypt.MinCost))

	var roleCount, userCount int64
	require.NoError(t, db.Model(&models.Role{}).Count(&roleCount).Error)
	require.NoError(t, db.Model(&models.User{}).Count(&userCount).Error)
	assert.Equal(t, int64(2), roleCount)
	assert.Equal(t, int64(1), userCount)
}

func TestSeedSkipsAdminWhenUsersExist(t *testing.T) {
	db := setupTestDB(t)

	existing := models.NewUser("jane@example.com", "Jane")
	require.NoError(t, db.Create(existing).Error)

	require.NoError(t, Seed(db, zap.NewNop(), bcrypt.MinCost))

	var count int64
	require.NoError(t, db.Model(&models.User{}).Where("email = ?", "admin@example.com").Count(&count).Error)
	assert.Equal(t, int64(0), count)
}
