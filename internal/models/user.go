package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a system user.
//
// IsSuperuser is persisted and surfaced for display, but authorization never
// consults it: permission checks are driven purely by role assignments.
type User struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	Username          string         `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Email             string         `gorm:"uniqueIndex;size:100;not null" json:"email"`
	FullName          string         `gorm:"size:100" json:"full_name"`
	HashedPassword    string         `gorm:"size:255;not null" json:"-"`
	IsActive          bool           `gorm:"not null" json:"is_active"`
	IsSuperuser       bool           `gorm:"not null" json:"is_superuser"`
	PreferredLanguage string         `gorm:"size:10;default:zh-CN" json:"preferred_language"`
	Timezone          string         `gorm:"size:50" json:"timezone"`
	LastLoginAt       *time.Time     `json:"last_login_at"`
	LastLoginIP       string         `gorm:"size:45" json:"last_login_ip"`
	LoginCount        int64          `gorm:"default:0" json:"login_count"`
	Roles             []Role         `gorm:"many2many:user_roles" json:"roles,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "users" }
