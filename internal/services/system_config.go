package services

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/ColorlessCube/fastapi-admin/internal/models"
	"github.com/ColorlessCube/fastapi-admin/pkg/response"
	"github.com/spf13/cast"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SystemConfigService struct {
	db *gorm.DB
}

func NewSystemConfigService(db *gorm.DB) *SystemConfigService {
	return &SystemConfigService{db: db}
}

// DecodeValue interprets a raw stored value according to the entry's
// declared data type. Unparseable values fall back to the default
// rather than erroring; configuration reads must never fail a request.
func DecodeValue(cfg *models.SystemConfig, defaultValue interface{}) interface{} {
	switch cfg.DataType {
	case models.ConfigTypeBoolean:
		switch strings.ToLower(strings.TrimSpace(cfg.Value)) {
		case "true", "1", "yes", "on":
			return true
		default:
			return false
		}
	case models.ConfigTypeInteger:
		if n, err := cast.ToInt64E(strings.TrimSpace(cfg.Value)); err == nil {
			return n
		}
		return defaultValue
	case models.ConfigTypeJSON:
		var out interface{}
		if err := json.Unmarshal([]byte(cfg.Value), &out); err == nil {
			return out
		}
		return defaultValue
	default:
		return cfg.Value
	}
}

// GetValue returns the decoded value for an active key, or the default
// when the key is missing or disabled.
func (s *SystemConfigService) GetValue(key string, defaultValue interface{}) interface{} {
	var cfg models.SystemConfig
	err := s.db.Where(clause.Eq{Column: clause.Column{Name: "key"}, Value: key}).Where("is_active = ?", true).First(&cfg).Error
	if err != nil {
		return defaultValue
	}
	return DecodeValue(&cfg, defaultValue)
}

// SetValue upserts a key, preserving the existing data type on update.
func (s *SystemConfigService) SetValue(key, value, dataType, description string) (*models.SystemConfig, error) {
	var cfg models.SystemConfig
	err := s.db.Where(clause.Eq{Column: clause.Column{Name: "key"}, Value: key}).First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if dataType == "" {
			dataType = models.ConfigTypeString
		}
		cfg = models.SystemConfig{
			Key:         key,
			Value:       value,
			DataType:    dataType,
			Description: description,
			IsActive:    true,
		}
		if err := s.db.Create(&cfg).Error; err != nil {
			return nil, err
		}
		return &cfg, nil
	}
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"value": value}
	if description != "" {
		updates["description"] = description
	}
	if err := s.db.Model(&cfg).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (s *SystemConfigService) List(offset, limit int, search string) ([]models.SystemConfig, int64, error) {
	var configs []models.SystemConfig
	var total int64

	query := s.db.Model(&models.SystemConfig{})
	if search != "" {
		query = query.Where(clause.Like{Column: clause.Column{Name: "key"}, Value: "%" + search + "%"})
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Order(clause.OrderByColumn{Column: clause.Column{Name: "key"}}).
		Offset(offset).Limit(limit).Find(&configs).Error
	return configs, total, err
}

func (s *SystemConfigService) GetByID(id uint) (*models.SystemConfig, error) {
	var cfg models.SystemConfig
	err := s.db.First(&cfg, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, response.NewNotFound("config not found")
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (s *SystemConfigService) GetByKey(key string) (*models.SystemConfig, error) {
	var cfg models.SystemConfig
	err := s.db.Where(clause.Eq{Column: clause.Column{Name: "key"}, Value: key}).First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, response.NewNotFound("config not found")
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (s *SystemConfigService) Create(cfg *models.SystemConfig) error {
	var count int64
	s.db.Model(&models.SystemConfig{}).Where(clause.Eq{Column: clause.Column{Name: "key"}, Value: cfg.Key}).Count(&count)
	if count > 0 {
		return response.NewConflict("config key already exists")
	}
	if cfg.DataType == "" {
		cfg.DataType = models.ConfigTypeString
	}
	return s.db.Create(cfg).Error
}

func (s *SystemConfigService) Update(id uint, updates map[string]interface{}) (*models.SystemConfig, error) {
	cfg, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	// The key of a system entry is fixed.
	if key, ok := updates["key"].(string); ok && key != cfg.Key {
		if cfg.IsSystem {
			return nil, response.NewConflict("cannot rename a system config entry")
		}
		var count int64
		s.db.Model(&models.SystemConfig{}).Where(clause.Eq{Column: clause.Column{Name: "key"}, Value: key}).Where("id <> ?", id).Count(&count)
		if count > 0 {
			return nil, response.NewConflict("config key already exists")
		}
	}

	if err := s.db.Model(cfg).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.GetByID(id)
}

// Delete refuses to remove system entries.
func (s *SystemConfigService) Delete(id uint) error {
	cfg, err := s.GetByID(id)
	if err != nil {
		return err
	}
	if cfg.IsSystem {
		return response.NewConflict("system config entries cannot be deleted")
	}
	return s.db.Delete(cfg).Error
}
