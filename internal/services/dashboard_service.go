package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charlesng35/wifipass/internal/models"
)

const dashboardListSize = 5

// DashboardSummary is the admin console overview.
type DashboardSummary struct {
	Sessions       SessionCounts    `json:"sessions"`
	Sales          SalesTotals      `json:"sales"`
	RecentSales    []models.Payment `json:"recent_sales"`
	ActiveSessions []SessionView    `json:"active_sessions"`
	GeneratedAt    time.Time        `json:"generated_at"`
}

// DashboardService assembles the admin overview from the session registry and the sales ledger.
type DashboardService struct {
	sessions *SessionManager
	payments *PaymentService
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(sessions *SessionManager, payments *PaymentService) (*DashboardService, error) {
	if sessions == nil || payments == nil {
		return nil, errors.New("dashboard service: sessions and payments are required")
	}
	return &DashboardService{sessions: sessions, payments: payments}, nil
}

// Summary returns session counts, revenue, the latest sales, and the most recent active sessions.
func (s *DashboardService) Summary(ctx context.Context) (*DashboardSummary, error) {
	totals, err := s.payments.Totals(ctx)
	if err != nil {
		return nil, fmt.Errorf("dashboard service: %w", err)
	}

	recent, err := s.payments.ListRecent(ctx, dashboardListSize)
	if err != nil {
		return nil, fmt.Errorf("dashboard service: %w", err)
	}

	now := s.sessions.Now()
	active := s.sessions.List(ListSessionsOptions{State: SessionStateActive})
	if len(active) > dashboardListSize {
		active = active[:dashboardListSize]
	}

	return &DashboardSummary{
		Sessions:       s.sessions.Counts(),
		Sales:          totals,
		RecentSales:    recent,
		ActiveSessions: NewSessionViews(active, now),
		GeneratedAt:    now,
	}, nil
}
