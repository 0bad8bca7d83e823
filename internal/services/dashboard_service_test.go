package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDashboardSummary(t *testing.T) {
	fx := newPaymentFixture(t, nil)
	ctx := context.Background()

	_, err := NewDashboardService(nil, fx.payments)
	require.Error(t, err)

	dashboard, err := NewDashboardService(fx.sessions, fx.payments)
	require.NoError(t, err)

	var tokens []string
	for i := 0; i < 7; i++ {
		receipt, err := fx.payments.Purchase(ctx, PurchaseInput{
			PlanID:      "basic",
			DeviceID:    fmt.Sprintf("device-%d", i),
			Method:      "moov",
			PhoneNumber: "+22966000000",
		})
		require.NoError(t, err)
		tokens = append(tokens, receipt.Session.Token)
	}
	_, err = fx.sessions.Disconnect(tokens[0])
	require.NoError(t, err)

	summary, err := dashboard.Summary(ctx)
	require.NoError(t, err)

	require.Equal(t, SessionCounts{Active: 6, Disconnected: 1, Total: 7}, summary.Sessions)
	require.Equal(t, int64(7), summary.Sales.Count)
	require.Equal(t, int64(700), summary.Sales.RevenueMinorUnits)
	require.Len(t, summary.RecentSales, 5)
	require.Len(t, summary.ActiveSessions, 5)
	for _, view := range summary.ActiveSessions {
		require.Equal(t, SessionStateActive, view.State)
	}
}
