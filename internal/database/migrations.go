package database

import (
	"gorm.io/gorm"

	"github.com/charlesng35/wifipass/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Plan{},
		&models.Payment{},
		&models.SessionEvent{},
	)
}

// DefaultPlans returns the plans offered on a fresh installation. Prices are in XOF.
func DefaultPlans() []models.Plan {
	return []models.Plan{
		{
			BaseModel:       models.BaseModel{ID: "basic"},
			Name:            "Basic",
			PriceMinorUnits: 100,
			DurationSeconds: 3600,
			SpeedMbps:       1,
			Enabled:         true,
		},
		{
			BaseModel:       models.BaseModel{ID: "standard"},
			Name:            "Standard",
			PriceMinorUnits: 500,
			DurationSeconds: 86400,
			SpeedMbps:       5,
			Enabled:         true,
		},
		{
			BaseModel:       models.BaseModel{ID: "premium"},
			Name:            "Premium",
			PriceMinorUnits: 2000,
			DurationSeconds: 604800,
			SpeedMbps:       10,
			Enabled:         true,
		},
	}
}

// SeedData populates the default plans. Existing rows are left untouched so operator edits survive restarts.
func SeedData(db *gorm.DB) error {
	for _, plan := range DefaultPlans() {
		if err := db.Where(models.Plan{BaseModel: models.BaseModel{ID: plan.ID}}).Attrs(plan).FirstOrCreate(&models.Plan{}).Error; err != nil {
			return err
		}
	}
	return nil
}
