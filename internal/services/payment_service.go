package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/wifipass/internal/models"
	"github.com/charlesng35/wifipass/pkg/crypto"
	"github.com/charlesng35/wifipass/pkg/logger"
	"github.com/charlesng35/wifipass/pkg/metrics"
	"github.com/charlesng35/wifipass/pkg/validator"
)

const (
	defaultRecentSales = 5
	maxRecentSales     = 100
	phoneVisibleDigits = 2
)

// PaymentConfig configures purchases.
type PaymentConfig struct {
	Currency        string
	Methods         []string
	ProcessingDelay time.Duration
	PhoneHashKey    []byte
}

// PurchaseInput is a customer's plan purchase request.
type PurchaseInput struct {
	PlanID      string `json:"plan_id" validate:"required,max=64"`
	DeviceID    string `json:"device_id" validate:"required,max=128"`
	Method      string `json:"method" validate:"required"`
	PhoneNumber string `json:"phone_number" validate:"required,msisdn"`
}

// Receipt is returned to the confirmation screen after a successful purchase.
type Receipt struct {
	Payment models.Payment `json:"payment"`
	Session Session        `json:"session"`
}

// SalesTotals aggregates successful sales.
type SalesTotals struct {
	Count             int64  `json:"count"`
	RevenueMinorUnits int64  `json:"revenue"`
	Currency          string `json:"currency"`
}

// PaymentService charges customers through the gateway, records the sale, and issues the access session.
type PaymentService struct {
	db       *gorm.DB
	plans    PlanLookup
	sessions *SessionManager
	gateway  PaymentGateway
	cfg      PaymentConfig
	log      *zap.Logger
}

// NewPaymentService constructs a PaymentService. A nil gateway selects the SimulatedGateway.
func NewPaymentService(db *gorm.DB, plans PlanLookup, sessions *SessionManager, gateway PaymentGateway, cfg PaymentConfig) (*PaymentService, error) {
	if db == nil {
		return nil, errors.New("payment service: db is required")
	}
	if plans == nil {
		return nil, errors.New("payment service: plan lookup is required")
	}
	if sessions == nil {
		return nil, errors.New("payment service: session manager is required")
	}
	if len(cfg.Methods) == 0 {
		cfg.Methods = []string{models.PaymentMethodMTN, models.PaymentMethodMoov}
	}
	if cfg.Currency == "" {
		cfg.Currency = "XOF"
	}
	if gateway == nil {
		gateway = SimulatedGateway{Delay: cfg.ProcessingDelay}
	}

	return &PaymentService{
		db:       db,
		plans:    plans,
		sessions: sessions,
		gateway:  gateway,
		cfg:      cfg,
		log:      logger.WithModule("payments"),
	}, nil
}

// Methods returns the accepted payment methods.
func (s *PaymentService) Methods() []string {
	return slices.Clone(s.cfg.Methods)
}

// Purchase charges the customer for the plan and issues an access session bound to the device.
func (s *PaymentService) Purchase(ctx context.Context, input PurchaseInput) (*Receipt, error) {
	ctx = ensureContext(ctx)

	input.PlanID = strings.TrimSpace(input.PlanID)
	input.DeviceID = strings.TrimSpace(input.DeviceID)
	input.Method = strings.ToLower(strings.TrimSpace(input.Method))
	input.PhoneNumber = normalisePhone(input.PhoneNumber)

	if err := validator.ValidateStruct(input); err != nil {
		return nil, err
	}
	if !slices.Contains(s.cfg.Methods, input.Method) {
		return nil, fmt.Errorf("%w: unsupported method %q", ErrInvalidPayment, input.Method)
	}

	plan, err := s.plans.Get(ctx, input.PlanID)
	if errors.Is(err, ErrPlanNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPlan, input.PlanID)
	}
	if err != nil {
		return nil, fmt.Errorf("payment service: load plan: %w", err)
	}
	if !plan.Enabled {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPlan, input.PlanID)
	}

	phoneHash, err := crypto.HashIdentifier(s.cfg.PhoneHashKey, input.PhoneNumber)
	if err != nil {
		return nil, fmt.Errorf("payment service: hash phone: %w", err)
	}

	payment := models.Payment{
		PlanID:           plan.ID,
		PlanName:         plan.Name,
		AmountMinorUnits: plan.PriceMinorUnits,
		Currency:         s.cfg.Currency,
		Method:           input.Method,
		PhoneMasked:      crypto.MaskTrailing(input.PhoneNumber, phoneVisibleDigits),
		PhoneHash:        phoneHash,
		DeviceID:         input.DeviceID,
	}

	result, err := s.gateway.Charge(ctx, ChargeRequest{
		Method:           input.Method,
		PhoneNumber:      input.PhoneNumber,
		AmountMinorUnits: plan.PriceMinorUnits,
		Currency:         s.cfg.Currency,
	})
	if err != nil {
		if errors.Is(err, ErrPaymentDeclined) {
			s.recordFailure(ctx, &payment, "")
		}
		return nil, fmt.Errorf("payment service: charge: %w", err)
	}

	session, err := s.sessions.CreateSession(ctx, plan.ID, input.DeviceID)
	if err != nil {
		s.recordFailure(ctx, &payment, result.Reference)
		return nil, err
	}

	payment.Status = models.PaymentStatusSucceeded
	payment.Reference = result.Reference
	payment.SessionToken = session.Token
	// The charge went through and the session is live, so the customer still gets the code.
	if err := s.db.WithContext(ctx).Create(&payment).Error; err != nil {
		s.log.Error("failed to record sale",
			zap.String("plan_id", plan.ID),
			zap.String("reference", payment.Reference),
			zap.String("token", logger.MaskToken(session.Token)),
			zap.Error(err),
		)
	}

	metrics.Payments.WithLabelValues(payment.Method, payment.Status).Inc()
	metrics.Revenue.WithLabelValues(payment.PlanID).Add(float64(payment.AmountMinorUnits))

	s.log.Info("plan purchased",
		zap.String("plan_id", plan.ID),
		zap.String("method", payment.Method),
		zap.String("reference", payment.Reference),
		zap.String("token", logger.MaskToken(session.Token)),
	)

	return &Receipt{Payment: payment, Session: session}, nil
}

func (s *PaymentService) recordFailure(ctx context.Context, payment *models.Payment, reference string) {
	payment.Status = models.PaymentStatusFailed
	payment.Reference = reference
	if payment.Reference == "" {
		payment.Reference = uuid.NewString()
	}
	metrics.Payments.WithLabelValues(payment.Method, payment.Status).Inc()

	if err := s.db.WithContext(ctx).Create(payment).Error; err != nil {
		s.log.Warn("failed to record declined payment", zap.Error(err))
	}
}

// ListRecent returns the most recent successful sales, newest first.
func (s *PaymentService) ListRecent(ctx context.Context, limit int) ([]models.Payment, error) {
	ctx = ensureContext(ctx)

	if limit <= 0 {
		limit = defaultRecentSales
	}
	if limit > maxRecentSales {
		limit = maxRecentSales
	}

	var payments []models.Payment
	err := s.db.WithContext(ctx).
		Where("status = ?", models.PaymentStatusSucceeded).
		Order("created_at DESC").
		Limit(limit).
		Find(&payments).Error
	if err != nil {
		return nil, fmt.Errorf("payment service: list recent: %w", err)
	}
	return payments, nil
}

// Totals aggregates successful sales.
func (s *PaymentService) Totals(ctx context.Context) (SalesTotals, error) {
	ctx = ensureContext(ctx)

	var row struct {
		Count   int64
		Revenue int64
	}
	err := s.db.WithContext(ctx).
		Model(&models.Payment{}).
		Select("COUNT(*) AS count, COALESCE(SUM(amount_minor_units), 0) AS revenue").
		Where("status = ?", models.PaymentStatusSucceeded).
		Scan(&row).Error
	if err != nil {
		return SalesTotals{}, fmt.Errorf("payment service: totals: %w", err)
	}

	return SalesTotals{Count: row.Count, RevenueMinorUnits: row.Revenue, Currency: s.cfg.Currency}, nil
}

func normalisePhone(value string) string {
	value = strings.TrimSpace(value)
	value = strings.ReplaceAll(value, " ", "")
	return strings.ReplaceAll(value, "-", "")
}
