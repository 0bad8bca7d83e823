package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/brianvoe/gofakeit/v6"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/charlesng35/wifipass/pkg/logger"
)

var demoDevices = []string{"iPhone 13", "Samsung Galaxy S21", "Laptop Dell", "MacBook Air", "Tablet Lenovo", "Pixel 7"}

// DemoSeeder fills an empty portal with fake purchases for local development.
type DemoSeeder struct {
	plans    *PlanCatalogService
	payments *PaymentService
	faker    *gofakeit.Faker
}

// NewDemoSeeder constructs a DemoSeeder. A zero seed draws a random one.
func NewDemoSeeder(plans *PlanCatalogService, payments *PaymentService, seed int64) (*DemoSeeder, error) {
	if plans == nil || payments == nil {
		return nil, errors.New("demo seeder: plans and payments are required")
	}
	return &DemoSeeder{plans: plans, payments: payments, faker: gofakeit.New(seed)}, nil
}

// Seed purchases count random plans and returns the receipts.
func (d *DemoSeeder) Seed(ctx context.Context, count int) ([]Receipt, error) {
	if count <= 0 {
		return nil, nil
	}

	plans, err := d.plans.List(ctx, false)
	if err != nil {
		return nil, err
	}
	if len(plans) == 0 {
		return nil, errors.New("demo seeder: no enabled plans")
	}

	methods := d.payments.Methods()
	receipts := make([]Receipt, 0, count)
	var errs error
	for i := 0; i < count; i++ {
		plan := plans[d.faker.Number(0, len(plans)-1)]
		input := PurchaseInput{
			PlanID:      plan.ID,
			DeviceID:    fmt.Sprintf("%s (%s)", d.faker.RandomString(demoDevices), d.faker.FirstName()),
			Method:      d.faker.RandomString(methods),
			PhoneNumber: d.faker.Numerify("+2299#######"),
		}
		receipt, err := d.payments.Purchase(ctx, input)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		receipts = append(receipts, *receipt)
	}

	logger.WithModule("demo").Info("demo purchases seeded", zap.Int("count", len(receipts)))
	return receipts, errs
}
