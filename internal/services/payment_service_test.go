package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/wifipass/internal/database/testutil"
	"github.com/charlesng35/wifipass/internal/models"
	"github.com/charlesng35/wifipass/pkg/crypto"
	"github.com/charlesng35/wifipass/pkg/validator"
)

type paymentFixture struct {
	db       *gorm.DB
	catalog  *PlanCatalogService
	sessions *SessionManager
	payments *PaymentService
}

func newPaymentFixture(t *testing.T, gateway PaymentGateway) paymentFixture {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())
	catalog, err := NewPlanCatalogService(db, nil, 0)
	require.NoError(t, err)
	sessions, err := NewSessionManager(catalog, SessionManagerConfig{EnforceSingleDevice: true})
	require.NoError(t, err)
	payments, err := NewPaymentService(db, catalog, sessions, gateway, PaymentConfig{
		Currency:     "XOF",
		Methods:      []string{"mtn", "moov"},
		PhoneHashKey: []byte("test-key"),
	})
	require.NoError(t, err)

	return paymentFixture{db: db, catalog: catalog, sessions: sessions, payments: payments}
}

func TestNewPaymentServiceValidatesDependencies(t *testing.T) {
	fx := newPaymentFixture(t, nil)

	_, err := NewPaymentService(nil, fx.catalog, fx.sessions, nil, PaymentConfig{})
	require.Error(t, err)
	_, err = NewPaymentService(fx.db, nil, fx.sessions, nil, PaymentConfig{})
	require.Error(t, err)
	_, err = NewPaymentService(fx.db, fx.catalog, nil, nil, PaymentConfig{})
	require.Error(t, err)

	svc, err := NewPaymentService(fx.db, fx.catalog, fx.sessions, nil, PaymentConfig{})
	require.NoError(t, err)
	require.Equal(t, []string{"mtn", "moov"}, svc.Methods())
}

func TestPurchaseRecordsSaleAndSession(t *testing.T) {
	fx := newPaymentFixture(t, nil)
	ctx := context.Background()

	receipt, err := fx.payments.Purchase(ctx, PurchaseInput{
		PlanID:      "standard",
		DeviceID:    " iPhone 13 ",
		Method:      "MTN",
		PhoneNumber: "+229 97 00 00 42",
	})
	require.NoError(t, err)

	require.Equal(t, models.PaymentStatusSucceeded, receipt.Payment.Status)
	require.Equal(t, int64(500), receipt.Payment.AmountMinorUnits)
	require.Equal(t, "XOF", receipt.Payment.Currency)
	require.Equal(t, "mtn", receipt.Payment.Method)
	require.Equal(t, "**********42", receipt.Payment.PhoneMasked)
	require.NotEmpty(t, receipt.Payment.Reference)
	require.Equal(t, receipt.Session.Token, receipt.Payment.SessionToken)

	expectedHash, err := crypto.HashIdentifier([]byte("test-key"), "+22997000042")
	require.NoError(t, err)
	require.Equal(t, expectedHash, receipt.Payment.PhoneHash)

	require.True(t, receipt.Session.Active)
	require.Equal(t, "iPhone 13", receipt.Session.DeviceID)
	require.Equal(t, 24*time.Hour, receipt.Session.EndTime.Sub(receipt.Session.StartTime))

	_, err = fx.sessions.Lookup(receipt.Session.Token)
	require.NoError(t, err)

	recent, err := fx.payments.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)

	totals, err := fx.payments.Totals(ctx)
	require.NoError(t, err)
	require.Equal(t, SalesTotals{Count: 1, RevenueMinorUnits: 500, Currency: "XOF"}, totals)
}

func TestPurchaseKeepsSessionWhenSaleWriteFails(t *testing.T) {
	fx := newPaymentFixture(t, nil)
	ctx := context.Background()

	require.NoError(t, fx.db.Migrator().DropTable(&models.Payment{}))

	receipt, err := fx.payments.Purchase(ctx, PurchaseInput{
		PlanID:      "standard",
		DeviceID:    "Pixel 7",
		Method:      "mtn",
		PhoneNumber: "+22997000042",
	})
	require.NoError(t, err)
	require.NotNil(t, receipt)
	require.NotEmpty(t, receipt.Session.Token)
	require.Equal(t, receipt.Session.Token, receipt.Payment.SessionToken)
	require.Equal(t, models.PaymentStatusSucceeded, receipt.Payment.Status)

	session, err := fx.sessions.Lookup(receipt.Session.Token)
	require.NoError(t, err)
	require.True(t, session.Active)
	require.Equal(t, 1, fx.sessions.Counts().Active)
}

func TestPurchaseValidation(t *testing.T) {
	fx := newPaymentFixture(t, nil)
	ctx := context.Background()

	cases := []PurchaseInput{
		{PlanID: "basic", DeviceID: "Phone", Method: "mtn", PhoneNumber: ""},
		{PlanID: "basic", DeviceID: "Phone", Method: "mtn", PhoneNumber: "12ab"},
		{PlanID: "basic", DeviceID: "", Method: "mtn", PhoneNumber: "97000042"},
		{PlanID: "", DeviceID: "Phone", Method: "mtn", PhoneNumber: "97000042"},
	}
	for _, input := range cases {
		_, err := fx.payments.Purchase(ctx, input)
		var verrs validator.ValidationErrors
		require.ErrorAs(t, err, &verrs)
	}

	_, err := fx.payments.Purchase(ctx, PurchaseInput{PlanID: "basic", DeviceID: "Phone", Method: "orange", PhoneNumber: "97000042"})
	require.ErrorIs(t, err, ErrInvalidPayment)

	_, err = fx.payments.Purchase(ctx, PurchaseInput{PlanID: "missing", DeviceID: "Phone", Method: "moov", PhoneNumber: "97000042"})
	require.ErrorIs(t, err, ErrInvalidPlan)

	_, err = fx.catalog.SetEnabled(ctx, "basic", false)
	require.NoError(t, err)
	_, err = fx.payments.Purchase(ctx, PurchaseInput{PlanID: "basic", DeviceID: "Phone", Method: "moov", PhoneNumber: "97000042"})
	require.ErrorIs(t, err, ErrInvalidPlan)

	totals, err := fx.payments.Totals(ctx)
	require.NoError(t, err)
	require.Zero(t, totals.Count)
	require.Zero(t, fx.sessions.Counts().Total)
}

func TestPurchaseDeclinedRecordsFailure(t *testing.T) {
	gateway := SimulatedGateway{Decline: func(req ChargeRequest) bool {
		return req.Method == "moov"
	}}
	fx := newPaymentFixture(t, gateway)
	ctx := context.Background()

	_, err := fx.payments.Purchase(ctx, PurchaseInput{PlanID: "basic", DeviceID: "Phone", Method: "moov", PhoneNumber: "97000042"})
	require.ErrorIs(t, err, ErrPaymentDeclined)

	var failed []models.Payment
	require.NoError(t, fx.db.Where("status = ?", models.PaymentStatusFailed).Find(&failed).Error)
	require.Len(t, failed, 1)
	require.NotEmpty(t, failed[0].Reference)
	require.Empty(t, failed[0].SessionToken)

	recent, err := fx.payments.ListRecent(ctx, 0)
	require.NoError(t, err)
	require.Empty(t, recent)
	require.Zero(t, fx.sessions.Counts().Total)
}

func TestSimulatedGatewayHonoursContext(t *testing.T) {
	gateway := SimulatedGateway{Delay: time.Minute}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := gateway.Charge(ctx, ChargeRequest{Method: "mtn"})
	require.ErrorIs(t, err, context.Canceled)

	result, err := SimulatedGateway{Delay: time.Millisecond}.Charge(context.Background(), ChargeRequest{Method: "mtn"})
	require.NoError(t, err)
	require.NotEmpty(t, result.Reference)
}

func TestListRecentOrdersNewestFirst(t *testing.T) {
	fx := newPaymentFixture(t, nil)
	ctx := context.Background()

	for _, plan := range []string{"basic", "standard", "premium"} {
		_, err := fx.payments.Purchase(ctx, PurchaseInput{PlanID: plan, DeviceID: "Phone", Method: "mtn", PhoneNumber: "97000042"})
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
	}

	recent, err := fx.payments.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	require.Equal(t, "premium", recent[0].PlanID)
	require.Equal(t, "standard", recent[1].PlanID)

	totals, err := fx.payments.Totals(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2600), totals.RevenueMinorUnits)
}
