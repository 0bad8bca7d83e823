package models

const (
	PaymentMethodMTN  = "mtn"
	PaymentMethodMoov = "moov"

	PaymentStatusSucceeded = "succeeded"
	PaymentStatusFailed    = "failed"
)

// Payment records a sale processed by the mobile money gateway.
type Payment struct {
	BaseModel

	PlanID           string `gorm:"not null;size:64;index" json:"plan_id"`
	PlanName         string `gorm:"size:128" json:"plan_name"`
	AmountMinorUnits int64  `gorm:"not null" json:"amount"`
	Currency         string `gorm:"not null;size:8" json:"currency"`
	Method           string `gorm:"not null;size:16;index" json:"method"`
	PhoneMasked      string `gorm:"size:32" json:"phone"`
	PhoneHash        string `gorm:"size:64;index" json:"-"`
	Status           string `gorm:"not null;size:16;index" json:"status"`
	Reference        string `gorm:"size:64;uniqueIndex" json:"reference"`
	SessionToken     string `gorm:"size:64;index" json:"session_token,omitempty"`
	DeviceID         string `gorm:"size:128" json:"device_id"`
}
