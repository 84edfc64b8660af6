// Package role provides CRUD and lookup operations for roles, including the
// version-checked mutations used by permission grants and membership changes.
package role

import (
	"errors"

	"gorm.io/gorm"

	"github.com/openpulpit/openpulpit/internal/db/models"
)

const (
	nameQueryPattern = "name = ?"
	slugQueryPattern = "slug = ?"
)

var (
	// ErrRoleNotFound is returned when a role is not found.
	ErrRoleNotFound = errors.New("role not found")
	// ErrRoleNameEmpty is returned when attempting to create/update a role with an empty name.
	ErrRoleNameEmpty = errors.New("role name cannot be empty")
	// ErrRoleAlreadyExists is returned when attempting to create a role whose name is taken.
	ErrRoleAlreadyExists = errors.New("role already exists")
	// ErrVersionConflict is returned when a version-checked write lost the race
	// against a concurrent mutation of the same role.
	ErrVersionConflict = errors.New("role version conflict")
	// ErrSystemRole is returned when attempting to delete a system role.
	ErrSystemRole = errors.New("system role cannot be deleted")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// FindByID retrieves a role by its ID with the permission set preloaded.
func FindByID(db *gorm.DB, id uint) (*models.Role, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var r models.Role
	result := db.Preload("Permissions").First(&r, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, result.Error
	}

	return &r, nil
}

// FindByName retrieves a role by its unique name with the permission set preloaded.
func FindByName(db *gorm.DB, name string) (*models.Role, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if name == "" {
		return nil, ErrRoleNameEmpty
	}

	var r models.Role
	result := db.Preload("Permissions").Where(nameQueryPattern, name).First(&r)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, result.Error
	}

	return &r, nil
}

// FindBySlug retrieves a role by its slug with the permission set preloaded.
func FindBySlug(db *gorm.DB, slug string) (*models.Role, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var r models.Role
	result := db.Preload("Permissions").Where(slugQueryPattern, slug).First(&r)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, result.Error
	}

	return &r, nil
}

// List retrieves all roles ordered by name, permission sets preloaded.
func List(db *gorm.DB) ([]models.Role, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var roles []models.Role
	result := db.Preload("Permissions").Order("name").Find(&roles)
	if result.Error != nil {
		return nil, result.Error
	}

	return roles, nil
}

// Count returns the number of role records.
func Count(db *gorm.DB) (int64, error) {
	if db == nil {
		return 0, ErrDBNil
	}

	var count int64
	if err := db.Model(&models.Role{}).Count(&count).Error; err != nil {
		return 0, err
	}

	return count, nil
}

// Create creates a new role. The slug is derived from the name by the model
// hook; the caller never sets it.
func Create(db *gorm.DB, r *models.Role) error {
	if db == nil {
		return ErrDBNil
	}
	if r.Name == "" {
		return ErrRoleNameEmpty
	}

	var existing models.Role
	result := db.Where(nameQueryPattern, r.Name).First(&existing)
	if result.Error == nil {
		return ErrRoleAlreadyExists
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return result.Error
	}

	return db.Create(r).Error
}

// Update rewrites a role's name and description under an optimistic version
// check. The caller presents the version it read; a concurrent writer having
// bumped it since yields ErrVersionConflict. The slug is recomputed from the
// new name in the same write.
func Update(db *gorm.DB, r *models.Role) error {
	if db == nil {
		return ErrDBNil
	}
	if r.Name == "" {
		return ErrRoleNameEmpty
	}

	result := db.Model(&models.Role{}).
		Where("id = ? AND version = ?", r.ID, r.Version).
		Updates(map[string]interface{}{
			"name":        r.Name,
			"slug":        models.Slugify(r.Name),
			"description": r.Description,
			"version":     r.Version + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// Either the role is gone or the version moved on.
		var count int64
		if err := db.Model(&models.Role{}).Where("id = ?", r.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrRoleNotFound
		}

		return ErrVersionConflict
	}

	r.Slug = models.Slugify(r.Name)
	r.Version++

	return nil
}

// Delete deletes a role by ID. System roles are refused.
func Delete(db *gorm.DB, id uint) error {
	if db == nil {
		return ErrDBNil
	}

	r, err := FindByID(db, id)
	if err != nil {
		return err
	}
	if r.IsSystem {
		return ErrSystemRole
	}

	result := db.Delete(&models.Role{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRoleNotFound
	}

	return nil
}

// FindByPermissionsIntersecting retrieves all roles whose permission set
// contains at least one of the given actions.
func FindByPermissionsIntersecting(db *gorm.DB, actions []string) ([]models.Role, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if len(actions) == 0 {
		return nil, nil
	}

	var roles []models.Role
	result := db.Preload("Permissions").
		Where("id IN (?)", db.Table("role_permissions").
			Select("role_permissions.role_id").
			Joins("JOIN permissions ON permissions.id = role_permissions.permission_id").
			Where("permissions.action IN ?", actions)).
		Order("name").
		Find(&roles)
	if result.Error != nil {
		return nil, result.Error
	}

	return roles, nil
}

// ReplacePermissions rewrites a role's permission linkage to exactly the
// given permission IDs under an optimistic version check. This is the single
// write path for both administrative grants and bootstrap stage two.
func ReplacePermissions(db *gorm.DB, r *models.Role, permissionIDs []uint) error {
	if db == nil {
		return ErrDBNil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Role{}).
			Where("id = ? AND version = ?", r.ID, r.Version).
			Update("version", r.Version+1)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrVersionConflict
		}

		if err := tx.Where("role_id = ?", r.ID).
			Delete(&models.RolePermission{}).Error; err != nil {
			return err
		}

		links := make([]models.RolePermission, 0, len(permissionIDs))
		for _, pid := range permissionIDs {
			links = append(links, models.RolePermission{RoleID: r.ID, PermissionID: pid})
		}

		if len(links) > 0 {
			if err := tx.Create(&links).Error; err != nil {
				return err
			}
		}

		r.Version++

		return nil
	})
}

// Members retrieves the users currently assigned the role. The users table
// acts as the membership ledger, so the list can contain neither duplicates
// nor dangling references.
func Members(db *gorm.DB, roleID uint) ([]models.User, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var users []models.User
	result := db.Where("role_id = ?", roleID).Order("username").Find(&users)
	if result.Error != nil {
		return nil, result.Error
	}

	return users, nil
}

// AppendMember assigns the role to the user under an optimistic version
// check on the role. Re-appending an existing member is a no-op.
func AppendMember(db *gorm.DB, r *models.Role, u *models.User) error {
	if db == nil {
		return ErrDBNil
	}

	if u.RoleID == r.ID {
		return nil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Role{}).
			Where("id = ? AND version = ?", r.ID, r.Version).
			Update("version", r.Version+1)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrVersionConflict
		}

		if err := tx.Model(&models.User{}).
			Where("id = ?", u.ID).
			Update("role_id", r.ID).Error; err != nil {
			return err
		}

		u.RoleID = r.ID
		r.Version++

		return nil
	})
}
