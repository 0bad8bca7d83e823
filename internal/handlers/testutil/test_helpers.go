package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/wifipass/internal/api"
	"github.com/charlesng35/wifipass/internal/app"
	"github.com/charlesng35/wifipass/internal/cache"
	sharedtestutil "github.com/charlesng35/wifipass/internal/database/testutil"
	"github.com/charlesng35/wifipass/internal/monitoring"
	"github.com/charlesng35/wifipass/internal/monitoring/checks"
	"github.com/charlesng35/wifipass/internal/realtime"
	"github.com/charlesng35/wifipass/internal/services"
	"github.com/charlesng35/wifipass/pkg/response"
)

// Clock is a manually advanced time source shared by the session manager under test.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Env encapsulates a fully-wired API instance backed by an in-memory database for handler tests.
type Env struct {
	T        *testing.T
	DB       *gorm.DB
	Router   *gin.Engine
	Clock    *Clock
	Hub      *realtime.Hub
	Sessions *services.SessionManager
	Plans    *services.PlanCatalogService
	Payments *services.PaymentService
	Events   *services.SessionEventService
}

// EnvOption customises the environment configuration before services are built.
type EnvOption func(cfg *app.Config)

// WithRateLimit overrides the per-client request budget.
func WithRateLimit(requests int, window time.Duration) EnvOption {
	return func(cfg *app.Config) {
		cfg.Server.RateLimit = app.RateLimitConfig{Requests: requests, Window: window}
	}
}

// WithSingleDevice toggles single device enforcement.
func WithSingleDevice(enforce bool) EnvOption {
	return func(cfg *app.Config) {
		cfg.Sessions.EnforceSingleDevice = enforce
	}
}

// NewEnv provisions a fresh handler test environment with migrations and seed plans applied.
func NewEnv(t *testing.T, opts ...EnvOption) *Env {
	t.Helper()

	gin.SetMode(gin.TestMode)

	db := sharedtestutil.MustOpenTestDB(t, sharedtestutil.WithSeedData())

	cfg := &app.Config{
		Server: app.ServerConfig{
			RateLimit: app.RateLimitConfig{Requests: 10_000, Window: time.Minute},
		},
		Sessions: app.SessionsConfig{
			TokenLength:         12,
			TokenMaxAttempts:    5,
			EnforceSingleDevice: true,
			ExpiryWarning:       5 * time.Minute,
		},
		Payments: app.PaymentsConfig{
			Currency:     "XOF",
			Methods:      []string{"mtn", "moov"},
			PhoneHashKey: "handler-test-hash-key",
		},
		Monitoring: app.MonitoringConfig{
			Prometheus: app.PrometheusConfig{Enabled: true, Endpoint: "/metrics"},
			Health:     app.HealthConfig{Enabled: true},
		},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	clock := &Clock{now: time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)}
	store := cache.NewMemoryStore(time.Minute)
	hub := realtime.NewHub()

	plans, err := services.NewPlanCatalogService(db, store, time.Minute)
	require.NoError(t, err)

	events, err := services.NewSessionEventService(db)
	require.NoError(t, err)

	sessions, err := services.NewSessionManager(plans, cfg.Sessions.SessionManagerConfig(),
		services.WithSessionClock(clock.Now),
		services.WithTransitionSinks(events, services.NewSessionBroadcaster(hub)),
	)
	require.NoError(t, err)

	payments, err := services.NewPaymentService(db, plans, sessions, nil, cfg.Payments.PaymentServiceConfig())
	require.NoError(t, err)

	dashboard, err := services.NewDashboardService(sessions, payments)
	require.NoError(t, err)

	health := monitoring.NewHealthManager(time.Second)
	health.RegisterLiveness(checks.Sessions(sessions))
	health.RegisterReadiness(checks.Database(db))
	health.RegisterReadiness(checks.Redis(nil, false))

	router, err := api.NewRouter(api.Dependencies{
		Config:    cfg,
		Cache:     store,
		Health:    health,
		Hub:       hub,
		Sessions:  sessions,
		Plans:     plans,
		Payments:  payments,
		Events:    events,
		Dashboard: dashboard,
	})
	require.NoError(t, err)

	return &Env{
		T:        t,
		DB:       db,
		Router:   router,
		Clock:    clock,
		Hub:      hub,
		Sessions: sessions,
		Plans:    plans,
		Payments: payments,
		Events:   events,
	}
}

// APIResponse represents the canonical API envelope returned by handlers.
type APIResponse struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Error   *response.ErrorInfo `json:"error"`
	Meta    *response.Meta      `json:"meta"`
}

// DecodeResponse parses the standard API response object from a recorder.
func DecodeResponse(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

// DecodeInto unmarshals the data payload into the provided destination.
func DecodeInto[T any](t *testing.T, raw json.RawMessage, dest *T) {
	t.Helper()
	if dest == nil {
		t.Fatal("destination must not be nil")
	}
	require.NoError(t, json.Unmarshal(raw, dest))
}

// Request executes an HTTP request against the test router, JSON encoding body when present.
func (e *Env) Request(method, path string, body any) *httptest.ResponseRecorder {
	e.T.Helper()

	var buf *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(e.T, err)
		buf = bytes.NewBuffer(data)
	} else {
		buf = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, path, buf)
	require.NoError(e.T, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	return w
}

// SessionPayload mirrors the session view returned by the session endpoints.
type SessionPayload struct {
	Token          string     `json:"token"`
	DeviceID       string     `json:"device_id"`
	PlanID         string     `json:"plan_id"`
	PlanName       string     `json:"plan_name"`
	EndTime        time.Time  `json:"end_time"`
	Active         bool       `json:"active"`
	DisconnectedAt *time.Time `json:"disconnected_at"`
	State          string     `json:"state"`
	TimeRemaining  int64      `json:"time_remaining"`
	Countdown      string     `json:"countdown"`
	RemainingLabel string     `json:"remaining_label"`
	Progress       float64    `json:"progress"`
}

// CreateSession issues a session through the API and returns the decoded payload.
func (e *Env) CreateSession(planID, deviceID string) SessionPayload {
	e.T.Helper()

	w := e.Request(http.MethodPost, "/api/sessions", map[string]string{
		"plan_id":   planID,
		"device_id": deviceID,
	})
	require.Equal(e.T, http.StatusCreated, w.Code, w.Body.String())

	resp := DecodeResponse(e.T, w)
	require.True(e.T, resp.Success, w.Body.String())

	var session SessionPayload
	DecodeInto(e.T, resp.Data, &session)
	require.NotEmpty(e.T, session.Token)
	return session
}
