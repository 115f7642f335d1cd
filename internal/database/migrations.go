package database

import (
	"gorm.io/gorm"

	"github.com/majorjayant/siteconfig/internal/models"
)

// AutoMigrate creates or updates the tables used by the relational stores.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.SiteSetting{},
		&models.SiteConfigRevision{},
		&models.SystemSetting{},
	)
}
