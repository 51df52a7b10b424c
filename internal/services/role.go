package services

import (
	"errors"
	"fmt"

	"github.com/ColorlessCube/fastapi-admin/internal/models"
	"github.com/ColorlessCube/fastapi-admin/pkg/response"
	"gorm.io/gorm"
)

type RoleService struct {
	db *gorm.DB
}

func NewRoleService(db *gorm.DB) *RoleService {
	return &RoleService{db: db}
}

func (s *RoleService) List(offset, limit int, search string) ([]models.Role, int64, error) {
	var roles []models.Role
	var total int64

	query := s.db.Model(&models.Role{})
	if search != "" {
		query = query.Where("name LIKE ?", "%"+search+"%")
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Preload("Permissions").Order("id").Offset(offset).Limit(limit).Find(&roles).Error
	return roles, total, err
}

func (s *RoleService) GetByID(id uint) (*models.Role, error) {
	var role models.Role
	err := s.db.Preload("Permissions").First(&role, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, response.NewNotFound("role not found")
	}
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (s *RoleService) Create(role *models.Role) error {
	var count int64
	s.db.Model(&models.Role{}).Where("name = ?", role.Name).Count(&count)
	if count > 0 {
		return response.NewConflict("role name already exists")
	}
	return s.db.Create(role).Error
}

func (s *RoleService) Update(id uint, updates map[string]interface{}) (*models.Role, error) {
	role, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	if name, ok := updates["name"].(string); ok && name != role.Name {
		var count int64
		s.db.Model(&models.Role{}).Where("name = ? AND id <> ?", name, id).Count(&count)
		if count > 0 {
			return nil, response.NewConflict("role name already exists")
		}
	}

	if err := s.db.Model(role).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.GetByID(id)
}

// Delete refuses to remove a role that users still hold.
func (s *RoleService) Delete(id uint) error {
	role, err := s.GetByID(id)
	if err != nil {
		return err
	}

	count := s.db.Model(role).Association("Users").Count()
	if count > 0 {
		return response.NewConflict(fmt.Sprintf("role is assigned to %d user(s)", count))
	}

	return s.db.Select("Permissions").Delete(role).Error
}

func (s *RoleService) AssignPermission(roleID, permID uint) (*models.Role, error) {
	role, err := s.GetByID(roleID)
	if err != nil {
		return nil, err
	}

	var perm models.Permission
	err = s.db.First(&perm, permID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, response.NewNotFound("permission not found")
	}
	if err != nil {
		return nil, err
	}

	// Appending an existing association is a no-op for gorm many2many.
	if err := s.db.Model(role).Association("Permissions").Append(&perm); err != nil {
		return nil, err
	}
	return s.GetByID(roleID)
}

func (s *RoleService) RemovePermission(roleID, permID uint) (*models.Role, error) {
	role, err := s.GetByID(roleID)
	if err != nil {
		return nil, err
	}

	var perm models.Permission
	err = s.db.First(&perm, permID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, response.NewNotFound("permission not found")
	}
	if err != nil {
		return nil, err
	}

	if err := s.db.Model(role).Association("Permissions").Delete(&perm); err != nil {
		return nil, err
	}
	return s.GetByID(roleID)
}

// SetPermissions replaces the role's entire permission set in one
// transaction. Unknown permission ids fail the whole call.
func (s *RoleService) SetPermissions(roleID uint, permIDs []uint) (*models.Role, error) {
	role, err := s.GetByID(roleID)
	if err != nil {
		return nil, err
	}

	var perms []models.Permission
	if len(permIDs) > 0 {
		if err := s.db.Where("id IN ?", permIDs).Find(&perms).Error; err != nil {
			return nil, err
		}
		if len(perms) != len(permIDs) {
			return nil, response.NewNotFound("one or more permissions not found")
		}
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		return tx.Model(role).Association("Permissions").Replace(perms)
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(roleID)
}
