package models

import "time"

// SiteSetting is one key of the site configuration in the key-value layout.
type SiteSetting struct {
	Key       string    `gorm:"column:config_key;primaryKey;size:128" json:"key"`
	Value     string    `gorm:"column:config_value;type:text;not null" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName keeps the table name stable across gorm naming strategies.
func (SiteSetting) TableName() string {
	return "site_settings"
}
