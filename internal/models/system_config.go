package models

import "time"

// Config value data types.
const (
	ConfigTypeString  = "string"
	ConfigTypeInteger = "integer"
	ConfigTypeBoolean = "boolean"
	ConfigTypeJSON    = "json"
)

// SystemConfig represents a system-wide configuration entry (stored in
// database). Value is always text; DataType drives decoding at read time.
// Entries with IsSystem set cannot be deleted.
type SystemConfig struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Key         string    `gorm:"column:key;uniqueIndex;size:255;not null" json:"key"`
	Value       string    `gorm:"type:text" json:"value"`
	Description string    `gorm:"type:text" json:"description"`
	DataType    string    `gorm:"size:50;default:string" json:"data_type"`
	IsActive    bool      `gorm:"not null" json:"is_active"`
	IsSystem    bool      `gorm:"not null" json:"is_system"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (SystemConfig) TableName() string { return "system_configs" }
