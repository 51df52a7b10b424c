package models

import (
	"time"

	"gorm.io/gorm"
)

// Permission is one grantable action. Code is the string checked at the
// gate, in the form "<resource>:<action>" (e.g. "user:read").
type Permission struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"uniqueIndex;size:50;not null" json:"name"`
	Code        string         `gorm:"uniqueIndex;size:100;not null" json:"code"`
	Resource    string         `gorm:"size:50;not null" json:"resource"`
	Action      string         `gorm:"size:20;not null" json:"action"`
	Description string         `gorm:"type:text" json:"description"`
	Roles       []Role         `gorm:"many2many:role_permissions" json:"-"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Permission) TableName() string { return "permissions" }
