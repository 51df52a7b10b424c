package services

import (
	"fmt"
	"sync"

	"github.com/ColorlessCube/fastapi-admin/internal/models"
	"github.com/ColorlessCube/fastapi-admin/pkg/logger"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cast"
	"gorm.io/gorm"
)

// ConfigCache keeps a periodically refreshed snapshot of active system
// config entries so hot paths never touch the database. A failed
// refresh keeps serving the previous snapshot.
type ConfigCache struct {
	db       *gorm.DB
	interval int

	mu      sync.RWMutex
	entries map[string]models.SystemConfig

	cron *cron.Cron
}

func NewConfigCache(db *gorm.DB, refreshSeconds int) *ConfigCache {
	if refreshSeconds <= 0 {
		refreshSeconds = 60
	}
	return &ConfigCache{
		db:       db,
		interval: refreshSeconds,
		entries:  make(map[string]models.SystemConfig),
	}
}

// Start loads the snapshot synchronously, then schedules background
// refreshes. The first load failing is fatal to startup.
func (c *ConfigCache) Start() error {
	if err := c.Refresh(); err != nil {
		return fmt.Errorf("initial config load: %w", err)
	}

	c.cron = cron.New()
	_, err := c.cron.AddFunc(fmt.Sprintf("@every %ds", c.interval), func() {
		if err := c.Refresh(); err != nil {
			logger.Warn().Err(err).Msg("config cache refresh failed, keeping stale snapshot")
		}
	})
	if err != nil {
		return err
	}
	c.cron.Start()
	return nil
}

// Stop halts the refresh schedule. A refresh already running is
// allowed to finish.
func (c *ConfigCache) Stop() {
	if c.cron != nil {
		c.cron.Stop()
	}
}

func (c *ConfigCache) Refresh() error {
	var configs []models.SystemConfig
	if err := c.db.Where("is_active = ?", true).Find(&configs).Error; err != nil {
		return err
	}

	entries := make(map[string]models.SystemConfig, len(configs))
	for _, cfg := range configs {
		entries[cfg.Key] = cfg
	}

	c.mu.Lock()
	c.entries = entries
	c.mu.Unlock()
	return nil
}

// GetValue reads a decoded value from the snapshot without touching
// the database.
func (c *ConfigCache) GetValue(key string, defaultValue interface{}) interface{} {
	c.mu.RLock()
	cfg, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return defaultValue
	}
	return DecodeValue(&cfg, defaultValue)
}

func (c *ConfigCache) MaintenanceMode() bool {
	return cast.ToBool(c.GetValue("system.maintenance_mode", false))
}

func (c *ConfigCache) SessionTimeout() int {
	return cast.ToInt(c.GetValue("auth.session_timeout", 3600))
}

func (c *ConfigCache) MaxLoginAttempts() int {
	return cast.ToInt(c.GetValue("auth.max_login_attempts", 5))
}

func (c *ConfigCache) DefaultLanguage() string {
	return cast.ToString(c.GetValue("ui.language", "zh-CN"))
}

// PasswordMinLength reads min_length out of the JSON password policy.
func (c *ConfigCache) PasswordMinLength() int {
	policy, ok := c.GetValue("security.password_policy", nil).(map[string]interface{})
	if !ok {
		return 6
	}
	if n := cast.ToInt(policy["min_length"]); n > 0 {
		return n
	}
	return 6
}
