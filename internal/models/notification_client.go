package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// JSONMap stores arbitrary JSON objects in a text column.
type JSONMap map[string]interface{}

// SwitchMap stores scenario-key → enabled flags in a text column.
type SwitchMap map[string]bool

// NotificationClient represents one configured delivery target. Config holds
// the channel-specific settings validated against the type's field schema;
// Switches opts the client into named scenarios.
type NotificationClient struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Type        string         `gorm:"size:50;not null" json:"type"`
	Config      JSONMap        `gorm:"serializer:json" json:"config"`
	Switches    SwitchMap      `gorm:"serializer:json" json:"switches"`
	Enabled     bool           `gorm:"not null" json:"enabled"`
	Interactive bool           `gorm:"not null" json:"interactive"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (NotificationClient) TableName() string { return "notification_clients" }

// MarshalConfig returns the config as a plain map for sender construction.
func (c *NotificationClient) MarshalConfig() map[string]interface{} {
	if c.Config == nil {
		return map[string]interface{}{}
	}
	out := make(map[string]interface{}, len(c.Config))
	for k, v := range c.Config {
		out[k] = v
	}
	return out
}

// ScenarioEnabled reports whether this client opted into the given scenario.
func (c *NotificationClient) ScenarioEnabled(scenario string) bool {
	if c.Switches == nil {
		return false
	}
	return c.Switches[scenario]
}

// String implements fmt.Stringer for log output.
func (m JSONMap) String() string {
	b, err := json.Marshal(map[string]interface{}(m))
	if err != nil {
		return "{}"
	}
	return string(b)
}
