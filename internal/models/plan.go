package models

import "time"

// Plan is a purchasable access offering. Prices are stored in minor currency units.
type Plan struct {
	BaseModel

	Name            string `gorm:"not null;size:128" json:"name"`
	PriceMinorUnits int64  `gorm:"not null" json:"price"`
	DurationSeconds int64  `gorm:"not null" json:"duration_seconds"`
	SpeedMbps       int    `gorm:"not null" json:"speed_mbps"`
	Enabled         bool   `gorm:"not null;index" json:"enabled"`
}

// Duration returns the plan length as a time.Duration.
func (p Plan) Duration() time.Duration {
	return time.Duration(p.DurationSeconds) * time.Second
}
