package database

import (
	"gorm.io/gorm"

	"github.com/resumine/resumine/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Profile{},
		&models.Session{},
		&models.ResetRequest{},
		&models.Resume{},
		&models.Feedback{},
	)
}
