package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/wifipass/internal/cache"
	"github.com/charlesng35/wifipass/internal/models"
	"github.com/charlesng35/wifipass/pkg/logger"
	"github.com/charlesng35/wifipass/pkg/validator"
)

const planCacheKeyPrefix = "plan:"

// CreatePlanInput captures the attributes required to offer a plan.
type CreatePlanInput struct {
	ID              string `json:"id" validate:"omitempty,max=64"`
	Name            string `json:"name" validate:"required,max=128"`
	PriceMinorUnits int64  `json:"price" validate:"gt=0"`
	DurationSeconds int64  `json:"duration_seconds" validate:"gt=0"`
	SpeedMbps       int    `json:"speed_mbps" validate:"gt=0"`
	Enabled         *bool  `json:"enabled"`
}

// UpdatePlanInput represents mutable plan fields.
type UpdatePlanInput struct {
	Name            *string `json:"name" validate:"omitempty,min=1,max=128"`
	PriceMinorUnits *int64  `json:"price" validate:"omitempty,gt=0"`
	DurationSeconds *int64  `json:"duration_seconds" validate:"omitempty,gt=0"`
	SpeedMbps       *int    `json:"speed_mbps" validate:"omitempty,gt=0"`
	Enabled         *bool   `json:"enabled"`
}

// PlanCatalogService manages plan reference data with a read-through cache for session creation.
type PlanCatalogService struct {
	db    *gorm.DB
	cache cache.Store
	ttl   time.Duration
	log   *zap.Logger
}

// NewPlanCatalogService constructs a PlanCatalogService. The cache store is optional.
func NewPlanCatalogService(db *gorm.DB, store cache.Store, ttl time.Duration) (*PlanCatalogService, error) {
	if db == nil {
		return nil, errors.New("plan catalog: db is required")
	}
	return &PlanCatalogService{
		db:    db,
		cache: store,
		ttl:   ttl,
		log:   logger.WithModule("plans"),
	}, nil
}

// List returns plans ordered by price. Disabled plans are included only when requested.
func (s *PlanCatalogService) List(ctx context.Context, includeDisabled bool) ([]models.Plan, error) {
	ctx = ensureContext(ctx)

	query := s.db.WithContext(ctx).Order("price_minor_units ASC").Order("id ASC")
	if !includeDisabled {
		query = query.Where("enabled = ?", true)
	}

	var plans []models.Plan
	if err := query.Find(&plans).Error; err != nil {
		return nil, fmt.Errorf("plan catalog: list plans: %w", err)
	}
	return plans, nil
}

// Get loads a plan by identifier, consulting the cache first.
func (s *PlanCatalogService) Get(ctx context.Context, id string) (*models.Plan, error) {
	ctx = ensureContext(ctx)

	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrPlanNotFound
	}

	if plan, ok := s.cached(ctx, id); ok {
		return plan, nil
	}

	var plan models.Plan
	err := s.db.WithContext(ctx).Take(&plan, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("plan catalog: get plan: %w", err)
	}

	s.store(ctx, &plan)
	return &plan, nil
}

// Create registers a new plan. Plans are enabled unless the input says otherwise.
func (s *PlanCatalogService) Create(ctx context.Context, input CreatePlanInput) (*models.Plan, error) {
	ctx = ensureContext(ctx)

	input.ID = strings.ToLower(strings.TrimSpace(input.ID))
	input.Name = strings.TrimSpace(input.Name)
	if err := validator.ValidateStruct(input); err != nil {
		return nil, err
	}

	plan := &models.Plan{
		BaseModel:       models.BaseModel{ID: input.ID},
		Name:            input.Name,
		PriceMinorUnits: input.PriceMinorUnits,
		DurationSeconds: input.DurationSeconds,
		SpeedMbps:       input.SpeedMbps,
		Enabled:         true,
	}
	if input.Enabled != nil {
		plan.Enabled = *input.Enabled
	}

	if err := s.db.WithContext(ctx).Create(plan).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrPlanExists
		}
		return nil, fmt.Errorf("plan catalog: create plan: %w", err)
	}

	s.log.Info("plan created", zap.String("plan_id", plan.ID), zap.String("name", plan.Name))
	return plan, nil
}

// Update modifies a plan. Sessions already issued keep the terms they were created with.
func (s *PlanCatalogService) Update(ctx context.Context, id string, input UpdatePlanInput) (*models.Plan, error) {
	ctx = ensureContext(ctx)

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		input.Name = &name
	}
	if err := validator.ValidateStruct(input); err != nil {
		return nil, err
	}

	plan, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil && *input.Name != plan.Name {
		updates["name"] = *input.Name
	}
	if input.PriceMinorUnits != nil {
		updates["price_minor_units"] = *input.PriceMinorUnits
	}
	if input.DurationSeconds != nil {
		updates["duration_seconds"] = *input.DurationSeconds
	}
	if input.SpeedMbps != nil {
		updates["speed_mbps"] = *input.SpeedMbps
	}
	if input.Enabled != nil {
		updates["enabled"] = *input.Enabled
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(plan).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("plan catalog: update plan: %w", err)
		}
		s.invalidate(ctx, plan.ID)
	}

	return s.load(ctx, plan.ID)
}

// SetEnabled enables or disables a plan for new purchases.
func (s *PlanCatalogService) SetEnabled(ctx context.Context, id string, enabled bool) (*models.Plan, error) {
	return s.Update(ctx, id, UpdatePlanInput{Enabled: &enabled})
}

// Toggle flips the enabled flag of a plan.
func (s *PlanCatalogService) Toggle(ctx context.Context, id string) (*models.Plan, error) {
	ctx = ensureContext(ctx)

	plan, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.SetEnabled(ctx, plan.ID, !plan.Enabled)
}

// Delete removes a plan. Sales keep the plan name recorded at purchase time.
func (s *PlanCatalogService) Delete(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).Delete(&models.Plan{}, "id = ?", strings.TrimSpace(id))
	if result.Error != nil {
		return fmt.Errorf("plan catalog: delete plan: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrPlanNotFound
	}

	s.invalidate(ctx, strings.TrimSpace(id))
	s.log.Info("plan deleted", zap.String("plan_id", id))
	return nil
}

func (s *PlanCatalogService) load(ctx context.Context, id string) (*models.Plan, error) {
	var plan models.Plan
	err := s.db.WithContext(ctx).Take(&plan, "id = ?", strings.TrimSpace(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("plan catalog: load plan: %w", err)
	}
	return &plan, nil
}

func (s *PlanCatalogService) cached(ctx context.Context, id string) (*models.Plan, bool) {
	if s.cache == nil || s.ttl <= 0 {
		return nil, false
	}

	raw, ok, err := s.cache.Get(ctx, planCacheKeyPrefix+id)
	if err != nil {
		s.log.Warn("plan cache read failed", zap.String("plan_id", id), zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var plan models.Plan
	if err := json.Unmarshal(raw, &plan); err != nil {
		return nil, false
	}
	return &plan, true
}

func (s *PlanCatalogService) store(ctx context.Context, plan *models.Plan) {
	if s.cache == nil || s.ttl <= 0 {
		return
	}
	raw, err := json.Marshal(plan)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, planCacheKeyPrefix+plan.ID, raw, s.ttl); err != nil {
		s.log.Warn("plan cache write failed", zap.String("plan_id", plan.ID), zap.Error(err))
	}
}

func (s *PlanCatalogService) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, planCacheKeyPrefix+id); err != nil {
		s.log.Warn("plan cache invalidation failed", zap.String("plan_id", id), zap.Error(err))
	}
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}
