package models

import (
	"time"

	"gorm.io/gorm"
)

// Role groups permissions and is assigned to users via the user_roles join
// table. A role referenced by any user cannot be deleted.
type Role struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"uniqueIndex;size:50;not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	IsActive    bool           `gorm:"not null" json:"is_active"`
	Users       []User         `gorm:"many2many:user_roles" json:"-"`
	Permissions []Permission   `gorm:"many2many:role_permissions" json:"permissions,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Role) TableName() string { return "roles" }
