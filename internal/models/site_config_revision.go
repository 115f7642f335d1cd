package models

import (
	"time"

	"gorm.io/datatypes"
)

// SiteConfigRevision stores one full configuration snapshot. Rows are only
// ever appended; the highest ID is the current configuration.
type SiteConfigRevision struct {
	ID        uint64         `gorm:"primaryKey;autoIncrement" json:"id"`
	Data      datatypes.JSON `gorm:"not null" json:"data"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
}

func (SiteConfigRevision) TableName() string {
	return "site_config_revisions"
}
