package db

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/signald/serverconf/internal/models"
	"gorm.io/gorm"
)

// GetOrCreateInstanceID retrieves the instance ID from the database,
// or generates and stores a new one if it doesn't exist.
// This should be called during startup after migrations.
func GetOrCreateInstanceID(db *gorm.DB) (string, error) {
	var setting models.Setting

	err := db.Where("key = ?", models.SettingKeyInstanceID).First(&setting).Error
	if err == nil {
		slog.Info("Found existing instance ID", "instance_id", setting.Value)
		return setting.Value, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("failed to query settings: %w", err)
	}

	instanceID := uuid.New().String()
	setting = models.Setting{
		Key:   models.SettingKeyInstanceID,
		Value: instanceID,
	}

	if err := db.Create(&setting).Error; err != nil {
		return "", fmt.Errorf("failed to create instance ID: %w", err)
	}

	slog.Info("Generated new instance ID", "instance_id", instanceID)
	return instanceID, nil
}

// GetInstanceID retrieves the instance ID from the database.
// Returns an error if the instance ID has not been initialized.
func GetInstanceID(db *gorm.DB) (string, error) {
	var setting models.Setting

	err := db.Where("key = ?", models.SettingKeyInstanceID).First(&setting).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("instance ID not initialized")
		}
		return "", fmt.Errorf("failed to query settings: %w", err)
	}

	return setting.Value, nil
}
