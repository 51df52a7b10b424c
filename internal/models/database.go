package models

import (
	"fmt"

	"github.com/ColorlessCube/fastapi-admin/internal/config"
	"github.com/ColorlessCube/fastapi-admin/internal/utils"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func InitDB(cfg *config.DatabaseConfig) error {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return fmt.Errorf("failed to connect database: %w", err)
	}

	DB = db
	return nil
}

func AutoMigrate() error {
	return DB.AutoMigrate(
		&User{},
		&Role{},
		&Permission{},
		&SystemConfig{},
		&NotificationClient{},
		&SystemLog{},
	)
}

func GetDB() *gorm.DB {
	return DB
}

// defaultPermissions is the baseline grantable action catalog.
var defaultPermissions = []Permission{
	{Name: "Create User", Code: "user:create", Resource: "user", Action: "create"},
	{Name: "Read User", Code: "user:read", Resource: "user", Action: "read"},
	{Name: "Update User", Code: "user:update", Resource: "user", Action: "update"},
	{Name: "Delete User", Code: "user:delete", Resource: "user", Action: "delete"},
	{Name: "Create Role", Code: "role:create", Resource: "role", Action: "create"},
	{Name: "Read Role", Code: "role:read", Resource: "role", Action: "read"},
	{Name: "Update Role", Code: "role:update", Resource: "role", Action: "update"},
	{Name: "Delete Role", Code: "role:delete", Resource: "role", Action: "delete"},
	{Name: "Assign Permission", Code: "role:assign_permission", Resource: "role", Action: "assign_permission"},
	{Name: "Create Permission", Code: "permission:create", Resource: "permission", Action: "create"},
	{Name: "Read Permission", Code: "permission:read", Resource: "permission", Action: "read"},
	{Name: "Update Permission", Code: "permission:update", Resource: "permission", Action: "update"},
	{Name: "Delete Permission", Code: "permission:delete", Resource: "permission", Action: "delete"},
	{Name: "Create Config", Code: "config:create", Resource: "config", Action: "create"},
	{Name: "Read Config", Code: "config:read", Resource: "config", Action: "read"},
	{Name: "Update Config", Code: "config:update", Resource: "config", Action: "update"},
	{Name: "Delete Config", Code: "config:delete", Resource: "config", Action: "delete"},
	{Name: "Create Notification Client", Code: "notification:create", Resource: "notification", Action: "create"},
	{Name: "Read Notification", Code: "notification:read", Resource: "notification", Action: "read"},
	{Name: "Update Notification Client", Code: "notification:update", Resource: "notification", Action: "update"},
	{Name: "Delete Notification Client", Code: "notification:delete", Resource: "notification", Action: "delete"},
	{Name: "Send Notification", Code: "notification:send", Resource: "notification", Action: "send"},
	{Name: "Test Notification", Code: "notification:test", Resource: "notification", Action: "test"},
}

// defaultConfigs are seeded once; system entries cannot be deleted at runtime.
var defaultConfigs = []SystemConfig{
	{Key: "system.maintenance_mode", Value: "false", DataType: ConfigTypeBoolean, IsActive: true, IsSystem: true, Description: "Reject non-admin traffic when enabled"},
	{Key: "auth.session_timeout", Value: "3600", DataType: ConfigTypeInteger, IsActive: true, IsSystem: true, Description: "Session timeout in seconds"},
	{Key: "auth.max_login_attempts", Value: "5", DataType: ConfigTypeInteger, IsActive: true, IsSystem: true, Description: "Max failed logins before lockout"},
	{Key: "ui.language", Value: "zh-CN", DataType: ConfigTypeString, IsActive: true, IsSystem: true, Description: "Default interface language"},
	{Key: "security.password_policy", Value: `{"min_length":6,"require_uppercase":false,"require_lowercase":false,"require_numbers":false,"require_symbols":false}`, DataType: ConfigTypeJSON, IsActive: true, IsSystem: true, Description: "Password complexity policy"},
}

// SeedDefaultData creates baseline permissions, the admin role and the
// first admin user if they do not exist yet.
func SeedDefaultData() error {
	for _, perm := range defaultPermissions {
		var count int64
		DB.Model(&Permission{}).Where("code = ?", perm.Code).Count(&count)
		if count == 0 {
			if err := DB.Create(&perm).Error; err != nil {
				return err
			}
		}
	}

	for _, cfg := range defaultConfigs {
		var count int64
		DB.Model(&SystemConfig{}).Where(clause.Eq{Column: clause.Column{Name: "key"}, Value: cfg.Key}).Count(&count)
		if count == 0 {
			if err := DB.Create(&cfg).Error; err != nil {
				return err
			}
		}
	}

	var adminRole Role
	err := DB.Where("name = ?", "admin").First(&adminRole).Error
	if err == gorm.ErrRecordNotFound {
		adminRole = Role{
			Name:        "admin",
			Description: "Administrator role with every permission",
			IsActive:    true,
		}
		if err := DB.Create(&adminRole).Error; err != nil {
			return err
		}
		var perms []Permission
		if err := DB.Find(&perms).Error; err != nil {
			return err
		}
		if err := DB.Model(&adminRole).Association("Permissions").Replace(perms); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	var adminCount int64
	DB.Model(&User{}).Where("username = ?", "admin").Count(&adminCount)
	if adminCount == 0 {
		hashed, err := utils.HashPassword("admin123")
		if err != nil {
			return err
		}
		admin := User{
			Username:       "admin",
			Email:          "admin@example.com",
			FullName:       "Administrator",
			HashedPassword: hashed,
			IsActive:       true,
			IsSuperuser:    true,
		}
		if err := DB.Create(&admin).Error; err != nil {
			return err
		}
		if err := DB.Model(&admin).Association("Roles").Append(&adminRole); err != nil {
			return err
		}
	}

	return nil
}
