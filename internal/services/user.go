package services

import (
	"errors"
	"time"

	"github.com/ColorlessCube/fastapi-admin/internal/models"
	"github.com/ColorlessCube/fastapi-admin/internal/utils"
	"github.com/ColorlessCube/fastapi-admin/pkg/response"
	"gorm.io/gorm"
)

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// Authenticate looks the user up by username or email and verifies the
// password. It returns nil for both an unknown identifier and a wrong
// password so callers cannot tell the two apart.
func (s *UserService) Authenticate(identifier, password string) (*models.User, error) {
	var user models.User
	err := s.db.Where("username = ? OR email = ?", identifier, identifier).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if !utils.CheckPassword(password, user.HashedPassword) {
		return nil, nil
	}
	return &user, nil
}

// UpdateLoginInfo records login telemetry. A corrupted negative counter
// is clamped back to zero before incrementing.
func (s *UserService) UpdateLoginInfo(userID uint, ip string) error {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return err
	}

	count := user.LoginCount
	if count < 0 {
		count = 0
	}

	now := time.Now()
	return s.db.Model(&user).Updates(map[string]interface{}{
		"last_login_at": now,
		"last_login_ip": ip,
		"login_count":   count + 1,
	}).Error
}

func (s *UserService) List(offset, limit int, search string) ([]models.User, int64, error) {
	var users []models.User
	var total int64

	query := s.db.Model(&models.User{})
	if search != "" {
		pattern := "%" + search + "%"
		query = query.Where("username LIKE ? OR email LIKE ? OR full_name LIKE ?", pattern, pattern, pattern)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Preload("Roles").Order("id").Offset(offset).Limit(limit).Find(&users).Error
	return users, total, err
}

func (s *UserService) GetByID(id uint) (*models.User, error) {
	var user models.User
	err := s.db.Preload("Roles").First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, response.NewNotFound("user not found")
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserService) Create(user *models.User, password string) error {
	var count int64
	s.db.Model(&models.User{}).
		Where("username = ? OR email = ?", user.Username, user.Email).
		Count(&count)
	if count > 0 {
		return response.NewConflict("username or email already exists")
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		return err
	}
	user.HashedPassword = hashed
	return s.db.Create(user).Error
}

func (s *UserService) Update(id uint, updates map[string]interface{}) (*models.User, error) {
	user, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	if username, ok := updates["username"].(string); ok && username != user.Username {
		var count int64
		s.db.Model(&models.User{}).Where("username = ? AND id <> ?", username, id).Count(&count)
		if count > 0 {
			return nil, response.NewConflict("username already exists")
		}
	}
	if email, ok := updates["email"].(string); ok && email != user.Email {
		var count int64
		s.db.Model(&models.User{}).Where("email = ? AND id <> ?", email, id).Count(&count)
		if count > 0 {
			return nil, response.NewConflict("email already exists")
		}
	}

	if password, ok := updates["password"].(string); ok {
		delete(updates, "password")
		hashed, err := utils.HashPassword(password)
		if err != nil {
			return nil, err
		}
		updates["hashed_password"] = hashed
	}

	if err := s.db.Model(user).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.GetByID(id)
}

// Delete removes a user. Deleting your own account is refused.
func (s *UserService) Delete(id, actorID uint) error {
	if id == actorID {
		return response.NewBadRequest("cannot delete your own account")
	}

	user, err := s.GetByID(id)
	if err != nil {
		return err
	}
	return s.db.Select("Roles").Delete(user).Error
}

func (s *UserService) ChangePassword(userID uint, oldPassword, newPassword string) error {
	var user models.User
	err := s.db.First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return response.NewNotFound("user not found")
	}
	if err != nil {
		return err
	}

	if !utils.CheckPassword(oldPassword, user.HashedPassword) {
		return response.NewBadRequest("current password is incorrect")
	}

	hashed, err := utils.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.db.Model(&user).Update("hashed_password", hashed).Error
}

// ReplaceRoles swaps the user's role set for exactly the given ids in
// one transaction. Roles already held are kept, missing ones added,
// extras removed.
func (s *UserService) ReplaceRoles(userID uint, roleIDs []uint) (*models.User, error) {
	user, err := s.GetByID(userID)
	if err != nil {
		return nil, err
	}

	var roles []models.Role
	if len(roleIDs) > 0 {
		if err := s.db.Where("id IN ?", roleIDs).Find(&roles).Error; err != nil {
			return nil, err
		}
		if len(roles) != len(roleIDs) {
			return nil, response.NewNotFound("one or more roles not found")
		}
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		return tx.Model(user).Association("Roles").Replace(roles)
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(userID)
}

func (s *UserService) UpdatePreferences(userID uint, language, timezone string) (*models.User, error) {
	updates := map[string]interface{}{}
	if language != "" {
		updates["preferred_language"] = language
	}
	if timezone != "" {
		updates["timezone"] = timezone
	}
	if len(updates) == 0 {
		return s.GetByID(userID)
	}
	return s.Update(userID, updates)
}
