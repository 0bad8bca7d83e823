package app

import (
	"strings"
	"time"

	"github.com/charlesng35/wifipass/internal/services"
)

const (
	defaultTokenLength      = 12
	defaultTokenMaxAttempts = 5
	defaultExpiryWarning    = 5 * time.Minute
	defaultCurrency         = "XOF"
)

// SessionManagerConfig converts SessionsConfig into SessionManager parameters.
func (c SessionsConfig) SessionManagerConfig() services.SessionManagerConfig {
	length := c.TokenLength
	if length <= 0 {
		length = defaultTokenLength
	}

	attempts := c.TokenMaxAttempts
	if attempts <= 0 {
		attempts = defaultTokenMaxAttempts
	}

	warning := c.ExpiryWarning
	if warning <= 0 {
		warning = defaultExpiryWarning
	}

	return services.SessionManagerConfig{
		TokenLength:         length,
		TokenMaxAttempts:    attempts,
		EnforceSingleDevice: c.EnforceSingleDevice,
		ExpiryWarning:       warning,
	}
}

// PaymentServiceConfig converts PaymentsConfig into PaymentService parameters.
func (c PaymentsConfig) PaymentServiceConfig() services.PaymentConfig {
	currency := strings.ToUpper(strings.TrimSpace(c.Currency))
	if currency == "" {
		currency = defaultCurrency
	}

	methods := make([]string, 0, len(c.Methods))
	for _, method := range c.Methods {
		if method = strings.ToLower(strings.TrimSpace(method)); method != "" {
			methods = append(methods, method)
		}
	}

	return services.PaymentConfig{
		Currency:        currency,
		Methods:         methods,
		ProcessingDelay: c.ProcessingDelay,
		PhoneHashKey:    []byte(c.PhoneHashKey),
	}
}
