package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDemoSeederCreatesPurchases(t *testing.T) {
	fx := newPaymentFixture(t, nil)
	ctx := context.Background()

	_, err := NewDemoSeeder(nil, fx.payments, 1)
	require.Error(t, err)

	seeder, err := NewDemoSeeder(fx.catalog, fx.payments, 42)
	require.NoError(t, err)

	receipts, err := seeder.Seed(ctx, 4)
	require.NoError(t, err)
	require.Len(t, receipts, 4)
	for _, receipt := range receipts {
		require.True(t, receipt.Session.Active)
		require.Contains(t, []string{"mtn", "moov"}, receipt.Payment.Method)
	}

	require.Equal(t, 4, fx.sessions.Counts().Active)

	none, err := seeder.Seed(ctx, 0)
	require.NoError(t, err)
	require.Empty(t, none)
}
