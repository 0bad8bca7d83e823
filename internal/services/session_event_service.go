package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/charlesng35/wifipass/internal/models"
	"github.com/charlesng35/wifipass/pkg/logger"
)

const (
	sessionEventWriteTimeout = 5 * time.Second
	defaultSessionEventLimit = 50
	maxSessionEventLimit     = 500
)

// SessionEventService archives session lifecycle transitions for the admin console.
type SessionEventService struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewSessionEventService constructs a SessionEventService using the provided database handle.
func NewSessionEventService(db *gorm.DB) (*SessionEventService, error) {
	if db == nil {
		return nil, errors.New("session event service: db is required")
	}
	return &SessionEventService{db: db, log: logger.WithModule("session_events")}, nil
}

// HandleSessionTransition implements SessionTransitionSink. Expiry warnings are not archived.
func (s *SessionEventService) HandleSessionTransition(t SessionTransition) {
	if t.Event == EventSessionExpiring {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), sessionEventWriteTimeout)
	defer cancel()

	if err := s.Record(ctx, t); err != nil {
		s.log.Warn("failed to archive session event", zap.String("event", t.Event), zap.Error(err))
	}
}

// Record stores a transition.
func (s *SessionEventService) Record(ctx context.Context, t SessionTransition) error {
	ctx = ensureContext(ctx)

	details := datatypes.JSONMap{
		"plan_id":  t.Session.PlanID,
		"end_time": t.Session.EndTime.UTC().Format(time.RFC3339),
		"active":   t.Session.Active,
		"sequence": t.Sequence,
	}
	if t.PreviousDeviceID != "" {
		details["previous_device_id"] = t.PreviousDeviceID
	}

	occurredAt := t.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	event := models.SessionEvent{
		Token:      t.Session.Token,
		Type:       t.Event,
		DeviceID:   t.Session.DeviceID,
		OccurredAt: occurredAt,
		Details:    details,
	}
	if err := s.db.WithContext(ctx).Create(&event).Error; err != nil {
		return fmt.Errorf("session event service: record: %w", err)
	}
	return nil
}

// ListForToken returns the archived events for a token, oldest first.
func (s *SessionEventService) ListForToken(ctx context.Context, token string, limit int) ([]models.SessionEvent, error) {
	ctx = ensureContext(ctx)

	if limit <= 0 {
		limit = defaultSessionEventLimit
	}
	if limit > maxSessionEventLimit {
		limit = maxSessionEventLimit
	}

	var events []models.SessionEvent
	err := s.db.WithContext(ctx).
		Where("token = ?", normaliseToken(token)).
		Order("occurred_at ASC").
		Order("created_at ASC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("session event service: list: %w", err)
	}
	return events, nil
}

// CleanupOlderThan removes events older than the supplied retention window (in days).
func (s *SessionEventService) CleanupOlderThan(ctx context.Context, retentionDays int) (int64, error) {
	ctx = ensureContext(ctx)

	if retentionDays <= 0 {
		return 0, errors.New("session event service: retentionDays must be positive")
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	result := s.db.WithContext(ctx).Where("occurred_at < ?", cutoff).Delete(&models.SessionEvent{})
	if result.Error != nil {
		return 0, fmt.Errorf("session event service: cleanup events: %w", result.Error)
	}

	return result.RowsAffected, nil
}
