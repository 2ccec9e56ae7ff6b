package database

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"aerarium/models"
)

// Open connects to the database given by the URL. Callers run Migrate
// before using the connection.
func Open(databaseURL string) (*gorm.DB, error) {
	gormLogger := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)

	db, err := gorm.Open(mysql.Open(databaseURL), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return db, nil
}

// Migrate brings the schema up to date.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Role{}, &models.User{}, &models.UserSettings{}); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}
	return nil
}

// Seed creates the initial roles and, if the user table is empty, an
// initial administrator account.
func Seed(db *gorm.DB, logger *zap.Logger, bcryptCost int) error {
	adminPermissions, err := models.OrPermissions(
		models.EditRole,
		models.EditUser,
		models.EditGlobalSettings,
	)
	if err != nil {
		return err
	}

	adminRole, err := seedRole(db, "Administrator", adminPermissions)
	if err != nil {
		return err
	}
	if _, err := seedRole(db, "User", models.PermissionNone); err != nil {
		return err
	}

	var userCount int64
	if err := db.Model(&models.User{}).Count(&userCount).Error; err != nil {
		return fmt.Errorf("counting users: %w", err)
	}
	if userCount > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("aerarium"), bcryptCost)
	if err != nil {
		return fmt.Errorf("hashing initial admin password: %w", err)
	}

	admin := models.NewUser("admin@example.com", "Administrator")
	admin.PasswordHash = string(hash)
	admin.RoleID = &adminRole.ID
	if err := db.Create(admin).Error; err != nil {
		return fmt.Errorf("creating initial admin user: %w", err)
	}

	logger.Warn("Created initial administrator account with the default password, change it immediately",
		zap.String("email", admin.Email))
	return nil
}

func seedRole(db *gorm.DB, name string, permissions models.Permission) (*models.Role, error) {
	var role models.Role
	err := db.Where("name = ?", name).First(&role).Error
	if err == nil {
		return &role, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("looking up role %q: %w", name, err)
	}

	seeded, err := models.NewRole(name, permissions)
	if err != nil {
		return nil, err
	}
	if err := db.Create(seeded).Error; err != nil {
		return nil, fmt.Errorf("seeding role %q: %w", name, err)
	}
	return seeded, nil
}
