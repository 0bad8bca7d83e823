package models

import (
	"time"

	"gorm.io/datatypes"
)

// SessionEvent archives an access session lifecycle transition.
type SessionEvent struct {
	BaseModel

	Token      string            `gorm:"not null;size:64;index" json:"token"`
	Type       string            `gorm:"not null;size:64;index" json:"type"`
	DeviceID   string            `gorm:"size:128" json:"device_id"`
	OccurredAt time.Time         `gorm:"not null;index" json:"occurred_at"`
	Details    datatypes.JSONMap `json:"details,omitempty"`
}
