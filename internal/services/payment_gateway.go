package services

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ChargeRequest is the mobile money debit submitted to a PaymentGateway.
type ChargeRequest struct {
	Method           string
	PhoneNumber      string
	AmountMinorUnits int64
	Currency         string
}

// ChargeResult carries the gateway reference of an accepted charge.
type ChargeResult struct {
	Reference string
}

// PaymentGateway debits a customer's mobile money wallet.
type PaymentGateway interface {
	Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error)
}

// SimulatedGateway accepts every charge after a fixed processing delay.
// Decline, when set, rejects matching requests with ErrPaymentDeclined.
type SimulatedGateway struct {
	Delay   time.Duration
	Decline func(ChargeRequest) bool
}

// Charge implements PaymentGateway.
func (g SimulatedGateway) Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error) {
	if g.Delay > 0 {
		timer := time.NewTimer(g.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ChargeResult{}, ctx.Err()
		case <-timer.C:
		}
	}

	if g.Decline != nil && g.Decline(req) {
		return ChargeResult{}, ErrPaymentDeclined
	}
	return ChargeResult{Reference: uuid.NewString()}, nil
}
