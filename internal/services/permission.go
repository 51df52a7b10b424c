package services

import (
	"errors"
	"fmt"

	"github.com/ColorlessCube/fastapi-admin/internal/models"
	"github.com/ColorlessCube/fastapi-admin/pkg/response"
	"gorm.io/gorm"
)

type PermissionService struct {
	db *gorm.DB
}

func NewPermissionService(db *gorm.DB) *PermissionService {
	return &PermissionService{db: db}
}

// Resolve returns the deduplicated set of permission codes granted to
// the user through every one of their roles. Superuser status is never
// consulted; access is decided by role grants alone.
func (s *PermissionService) Resolve(user *models.User) (map[string]bool, error) {
	var u models.User
	err := s.db.Preload("Roles.Permissions").First(&u, user.ID).Error
	if err != nil {
		return nil, err
	}

	codes := make(map[string]bool)
	for _, role := range u.Roles {
		for _, perm := range role.Permissions {
			codes[perm.Code] = true
		}
	}
	return codes, nil
}

// HasPermission reports whether the user holds a single code.
func (s *PermissionService) HasPermission(user *models.User, code string) (bool, error) {
	codes, err := s.Resolve(user)
	if err != nil {
		return false, err
	}
	return codes[code], nil
}

func (s *PermissionService) List(offset, limit int, search string) ([]models.Permission, int64, error) {
	var perms []models.Permission
	var total int64

	query := s.db.Model(&models.Permission{})
	if search != "" {
		pattern := "%" + search + "%"
		query = query.Where("code LIKE ? OR name LIKE ?", pattern, pattern)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Order("id").Offset(offset).Limit(limit).Find(&perms).Error
	return perms, total, err
}

func (s *PermissionService) GetByID(id uint) (*models.Permission, error) {
	var perm models.Permission
	err := s.db.First(&perm, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, response.NewNotFound("permission not found")
	}
	if err != nil {
		return nil, err
	}
	return &perm, nil
}

func (s *PermissionService) Create(perm *models.Permission) error {
	var count int64
	s.db.Model(&models.Permission{}).
		Where("code = ? OR name = ?", perm.Code, perm.Name).
		Count(&count)
	if count > 0 {
		return response.NewConflict("permission name or code already exists")
	}

	if perm.Code == "" {
		perm.Code = fmt.Sprintf("%s:%s", perm.Resource, perm.Action)
	}
	return s.db.Create(perm).Error
}

func (s *PermissionService) Update(id uint, updates map[string]interface{}) (*models.Permission, error) {
	perm, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	if code, ok := updates["code"].(string); ok && code != perm.Code {
		var count int64
		s.db.Model(&models.Permission{}).
			Where("code = ? AND id <> ?", code, id).
			Count(&count)
		if count > 0 {
			return nil, response.NewConflict("permission code already exists")
		}
	}
	if name, ok := updates["name"].(string); ok && name != perm.Name {
		var count int64
		s.db.Model(&models.Permission{}).
			Where("name = ? AND id <> ?", name, id).
			Count(&count)
		if count > 0 {
			return nil, response.NewConflict("permission name already exists")
		}
	}

	if err := s.db.Model(perm).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.GetByID(id)
}

// Delete refuses to remove a permission that any role still references.
func (s *PermissionService) Delete(id uint) error {
	perm, err := s.GetByID(id)
	if err != nil {
		return err
	}

	count := s.db.Model(perm).Association("Roles").Count()
	if count > 0 {
		return response.NewConflict(fmt.Sprintf("permission is assigned to %d role(s)", count))
	}

	return s.db.Select("Roles").Delete(perm).Error
}
