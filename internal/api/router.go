package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/charlesng35/wifipass/internal/app"
	"github.com/charlesng35/wifipass/internal/cache"
	"github.com/charlesng35/wifipass/internal/handlers"
	"github.com/charlesng35/wifipass/internal/middleware"
	"github.com/charlesng35/wifipass/internal/monitoring"
	"github.com/charlesng35/wifipass/internal/realtime"
	"github.com/charlesng35/wifipass/internal/services"
)

const (
	defaultRateLimitRequests = 120
	defaultRateLimitWindow   = time.Minute
)

// Dependencies carries the services the HTTP layer is built on.
type Dependencies struct {
	Config    *app.Config
	Cache     cache.Store
	Health    *monitoring.HealthManager
	Hub       *realtime.Hub
	Sessions  *services.SessionManager
	Plans     *services.PlanCatalogService
	Payments  *services.PaymentService
	Events    *services.SessionEventService
	Dashboard *services.DashboardService
}

func (d Dependencies) validate() error {
	switch {
	case d.Config == nil:
		return fmt.Errorf("config must be provided")
	case d.Sessions == nil:
		return fmt.Errorf("session manager must be provided")
	case d.Plans == nil:
		return fmt.Errorf("plan catalog must be provided")
	case d.Payments == nil:
		return fmt.Errorf("payment service must be provided")
	case d.Dashboard == nil:
		return fmt.Errorf("dashboard service must be provided")
	}
	return nil
}

// NewRouter builds the Gin engine, wires middleware and registers every route.
func NewRouter(deps Dependencies) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	cfg := deps.Config

	r := gin.New()
	r.HandleMethodNotAllowed = true

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowedOrigins))

	requests, window := cfg.Server.RateLimit.Requests, cfg.Server.RateLimit.Window
	if requests <= 0 {
		requests = defaultRateLimitRequests
	}
	if window <= 0 {
		window = defaultRateLimitWindow
	}
	r.Use(middleware.RateLimit(deps.Cache, requests, window))

	r.NoRoute(middleware.NotFoundHandler)

	registerHealthRoutes(r, cfg, deps.Health)
	registerMetricsRoute(r, cfg)

	api := r.Group("/api")
	registerCustomerRoutes(api, deps)
	registerAdminRoutes(api.Group("/admin"), deps)

	if deps.Hub != nil {
		api.GET("/realtime", handlers.NewRealtimeHandler(deps.Hub).Stream)
	}

	return r, nil
}

func registerMetricsRoute(r *gin.Engine, cfg *app.Config) {
	if !cfg.Monitoring.Prometheus.Enabled {
		return
	}
	endpoint := strings.TrimSpace(cfg.Monitoring.Prometheus.Endpoint)
	if endpoint == "" {
		endpoint = "/metrics"
	}
	r.GET(endpoint, gin.WrapH(promhttp.Handler()))
}
