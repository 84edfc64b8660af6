// Package user provides lookup and mutation operations for platform accounts.
package user

import (
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/openpulpit/openpulpit/internal/db/models"
)

const usernameQueryPattern = "username = ?"

var (
	// ErrUserNotFound is returned when a user is not found.
	ErrUserNotFound = errors.New("user not found")
	// ErrUsernameEmpty is returned when a lookup or insert is attempted with an empty username.
	ErrUsernameEmpty = errors.New("username cannot be empty")
	// ErrUserAlreadyExists is returned when the username or email is already taken.
	ErrUserAlreadyExists = errors.New("user with username or email already exists")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// FindByID retrieves a user by ID with the assigned role and its permission
// set preloaded.
func FindByID(db *gorm.DB, id uint64) (*models.User, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var u models.User
	result := db.Preload("Role.Permissions").First(&u, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, result.Error
	}

	return &u, nil
}

// FindByUsername retrieves a user by username with the assigned role and its
// permission set preloaded.
func FindByUsername(db *gorm.DB, username string) (*models.User, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if username == "" {
		return nil, ErrUsernameEmpty
	}

	var u models.User
	result := db.Preload("Role.Permissions").Where(usernameQueryPattern, username).First(&u)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, result.Error
	}

	return &u, nil
}

// Count returns the number of user records.
func Count(db *gorm.DB) (int64, error) {
	if db == nil {
		return 0, ErrDBNil
	}

	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return 0, err
	}

	return count, nil
}

// Create creates a new user after checking username/email uniqueness.
func Create(db *gorm.DB, u *models.User) error {
	if db == nil {
		return ErrDBNil
	}
	if u.Username == "" {
		return ErrUsernameEmpty
	}

	var count int64
	if err := db.Model(&models.User{}).
		Where("username = ? OR email = ?", u.Username, u.Email).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrUserAlreadyExists
	}

	return db.Create(u).Error
}

// UpdatePermissions persists a user's effective permission set.
func UpdatePermissions(db *gorm.DB, id uint64, actions []string) error {
	if db == nil {
		return ErrDBNil
	}

	result := db.Model(&models.User{}).
		Where("id = ?", id).
		Update("permissions", datatypes.NewJSONSlice(actions))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return existsOrNotFound(db, id)
	}

	return nil
}

// existsOrNotFound distinguishes a write that matched no row from one whose
// values were already current (mysql reports zero affected rows for both).
func existsOrNotFound(db *gorm.DB, id uint64) error {
	var count int64
	if err := db.Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrUserNotFound
	}

	return nil
}

// AssignRole points a user at a role. The users table is the membership
// ledger, so this is also the role-membership write.
func AssignRole(db *gorm.DB, id uint64, roleID uint) error {
	if db == nil {
		return ErrDBNil
	}

	result := db.Model(&models.User{}).
		Where("id = ?", id).
		Update("role_id", roleID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return existsOrNotFound(db, id)
	}

	return nil
}
