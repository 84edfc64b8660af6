// Package permission provides lookup and bulk-insert operations for the
// permission catalog backing store.
package permission

import (
	"errors"

	"gorm.io/gorm"

	"github.com/openpulpit/openpulpit/internal/db/models"
)

const actionQueryPattern = "action = ?"

var (
	// ErrPermissionNotFound is returned when a permission is not found.
	ErrPermissionNotFound = errors.New("permission not found")
	// ErrActionEmpty is returned when a lookup or insert is attempted with an empty action token.
	ErrActionEmpty = errors.New("permission action cannot be empty")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// FindByAction retrieves a permission by its unique action token.
func FindByAction(db *gorm.DB, action string) (*models.Permission, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if action == "" {
		return nil, ErrActionEmpty
	}

	var p models.Permission
	result := db.Where(actionQueryPattern, action).First(&p)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrPermissionNotFound
		}
		return nil, result.Error
	}

	return &p, nil
}

// GetAll retrieves all permissions ordered by action.
func GetAll(db *gorm.DB) ([]models.Permission, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var permissions []models.Permission
	result := db.Order("action").Find(&permissions)
	if result.Error != nil {
		return nil, result.Error
	}

	return permissions, nil
}

// Count returns the number of permission records.
func Count(db *gorm.DB) (int64, error) {
	if db == nil {
		return 0, ErrDBNil
	}

	var count int64
	if err := db.Model(&models.Permission{}).Count(&count).Error; err != nil {
		return 0, err
	}

	return count, nil
}

// BulkInsert inserts the given permissions in a single batch. IDs are
// populated on the passed slice. Empty action tokens are refused up front so
// a partial batch never reaches the database.
func BulkInsert(db *gorm.DB, permissions []models.Permission) error {
	if db == nil {
		return ErrDBNil
	}
	if len(permissions) == 0 {
		return nil
	}

	for i := range permissions {
		if permissions[i].Action == "" {
			return ErrActionEmpty
		}
	}

	return db.Create(&permissions).Error
}

// ActionIDMap builds an action → id map over all stored permissions.
func ActionIDMap(db *gorm.DB) (map[string]uint, error) {
	permissions, err := GetAll(db)
	if err != nil {
		return nil, err
	}

	m := make(map[string]uint, len(permissions))
	for _, p := range permissions {
		m[p.Action] = p.ID
	}

	return m, nil
}
