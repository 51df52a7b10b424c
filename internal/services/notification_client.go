package services

import (
	"errors"
	"fmt"

	"github.com/ColorlessCube/fastapi-admin/internal/models"
	"github.com/ColorlessCube/fastapi-admin/pkg/response"
	"gorm.io/gorm"
)

type NotificationClientService struct {
	db *gorm.DB
}

func NewNotificationClientService(db *gorm.DB) *NotificationClientService {
	return &NotificationClientService{db: db}
}

func (s *NotificationClientService) List(offset, limit int) ([]models.NotificationClient, int64, error) {
	var clients []models.NotificationClient
	var total int64

	if err := s.db.Model(&models.NotificationClient{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := s.db.Order("id").Offset(offset).Limit(limit).Find(&clients).Error
	return clients, total, err
}

func (s *NotificationClientService) GetByID(id uint) (*models.NotificationClient, error) {
	var client models.NotificationClient
	err := s.db.First(&client, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, response.NewNotFound("notification client not found")
	}
	if err != nil {
		return nil, err
	}
	return &client, nil
}

func (s *NotificationClientService) Create(client *models.NotificationClient) error {
	if fieldErrs := ValidateConfig(client.Type, client.Config); len(fieldErrs) > 0 {
		return response.NewValidationFailed("invalid client config", fieldErrs)
	}

	var count int64
	s.db.Model(&models.NotificationClient{}).Where("name = ?", client.Name).Count(&count)
	if count > 0 {
		return response.NewConflict("client name already exists")
	}

	if client.Switches == nil {
		client.Switches = DefaultSwitches()
	} else if err := checkSwitchKeys(client.Switches); err != nil {
		return err
	}
	return s.db.Create(client).Error
}

func (s *NotificationClientService) Update(id uint, updates map[string]interface{}) (*models.NotificationClient, error) {
	client, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	if name, ok := updates["name"].(string); ok && name != client.Name {
		var count int64
		s.db.Model(&models.NotificationClient{}).Where("name = ? AND id <> ?", name, id).Count(&count)
		if count > 0 {
			return nil, response.NewConflict("client name already exists")
		}
	}

	// A config replacement is validated against the client's (possibly
	// updated) type before anything is written.
	clientType := client.Type
	if t, ok := updates["type"].(string); ok {
		clientType = t
	}
	if raw, ok := updates["config"]; ok {
		config, ok := raw.(map[string]interface{})
		if !ok {
			if jm, isMap := raw.(models.JSONMap); isMap {
				config = map[string]interface{}(jm)
			} else {
				return nil, response.NewBadRequest("config must be an object")
			}
		}
		if fieldErrs := ValidateConfig(clientType, config); len(fieldErrs) > 0 {
			return nil, response.NewValidationFailed("invalid client config", fieldErrs)
		}
		updates["config"] = models.JSONMap(config)
	}

	if raw, ok := updates["switches"]; ok {
		switches, err := toSwitchMap(raw)
		if err != nil {
			return nil, err
		}
		updates["switches"] = switches
	}

	if err := s.db.Model(client).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.GetByID(id)
}

func (s *NotificationClientService) Delete(id uint) error {
	client, err := s.GetByID(id)
	if err != nil {
		return err
	}
	return s.db.Delete(client).Error
}

// Toggle flips the enabled flag and returns the new state.
func (s *NotificationClientService) Toggle(id uint) (*models.NotificationClient, error) {
	client, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if err := s.db.Model(client).Update("enabled", !client.Enabled).Error; err != nil {
		return nil, err
	}
	return s.GetByID(id)
}

// UpdateSwitches replaces the scenario switch map.
func (s *NotificationClientService) UpdateSwitches(id uint, raw interface{}) (*models.NotificationClient, error) {
	client, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	switches, err := toSwitchMap(raw)
	if err != nil {
		return nil, err
	}
	if err := s.db.Model(client).Update("switches", switches).Error; err != nil {
		return nil, err
	}
	return s.GetByID(id)
}

// ListByScenario returns the clients eligible for a scenario: enabled
// and with that scenario switched on.
func (s *NotificationClientService) ListByScenario(scenario string) ([]models.NotificationClient, error) {
	var clients []models.NotificationClient
	if err := s.db.Where("enabled = ?", true).Order("id").Find(&clients).Error; err != nil {
		return nil, err
	}

	// Switch maps live in a JSON column, so scenario filtering happens
	// here instead of in SQL.
	eligible := clients[:0]
	for _, client := range clients {
		if client.ScenarioEnabled(scenario) {
			eligible = append(eligible, client)
		}
	}
	return eligible, nil
}

type ClientStatistics struct {
	Total   int64            `json:"total"`
	Enabled int64            `json:"enabled"`
	ByType  map[string]int64 `json:"by_type"`
}

func (s *NotificationClientService) Statistics() (*ClientStatistics, error) {
	stats := &ClientStatistics{ByType: make(map[string]int64)}

	if err := s.db.Model(&models.NotificationClient{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.NotificationClient{}).Where("enabled = ?", true).Count(&stats.Enabled).Error; err != nil {
		return nil, err
	}

	var rows []struct {
		Type  string
		Count int64
	}
	err := s.db.Model(&models.NotificationClient{}).
		Select("type, count(*) as count").
		Group("type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		stats.ByType[row.Type] = row.Count
	}
	return stats, nil
}

func checkSwitchKeys(switches map[string]bool) error {
	fieldErrs := make(map[string]string)
	for key := range switches {
		if !IsValidScenario(key) {
			fieldErrs[key] = fmt.Sprintf("unknown scenario: %s", key)
		}
	}
	if len(fieldErrs) > 0 {
		return response.NewValidationFailed("invalid scenario switches", fieldErrs)
	}
	return nil
}

func toSwitchMap(raw interface{}) (models.SwitchMap, error) {
	var switches map[string]bool
	switch v := raw.(type) {
	case models.SwitchMap:
		switches = map[string]bool(v)
	case map[string]bool:
		switches = v
	case map[string]interface{}:
		switches = make(map[string]bool, len(v))
		for key, val := range v {
			b, ok := val.(bool)
			if !ok {
				return nil, response.NewBadRequest("switch values must be booleans")
			}
			switches[key] = b
		}
	default:
		return nil, response.NewBadRequest("switches must be an object")
	}

	if err := checkSwitchKeys(switches); err != nil {
		return nil, err
	}
	return models.SwitchMap(switches), nil
}
