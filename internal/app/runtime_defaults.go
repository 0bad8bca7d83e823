package app

import (
	"fmt"
	"strings"

	"github.com/charlesng35/wifipass/pkg/crypto"
)

const phoneHashKeyBytes = 32

// ApplyRuntimeDefaults ensures critical secrets are populated even when no configuration file is supplied.
// It returns a map describing which keys were generated so callers can log the event without exposing values.
func ApplyRuntimeDefaults(cfg *Config) (map[string]bool, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	generated := make(map[string]bool)

	if strings.TrimSpace(cfg.Payments.PhoneHashKey) == "" {
		secret, err := crypto.GenerateToken(phoneHashKeyBytes)
		if err != nil {
			return nil, fmt.Errorf("generate phone hash key: %w", err)
		}
		cfg.Payments.PhoneHashKey = secret
		generated["payments.phone_hash_key"] = true
	}

	return generated, nil
}
