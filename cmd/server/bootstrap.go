package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/wifipass/internal/api"
	"github.com/charlesng35/wifipass/internal/app"
	"github.com/charlesng35/wifipass/internal/app/maintenance"
	"github.com/charlesng35/wifipass/internal/cache"
	"github.com/charlesng35/wifipass/internal/database"
	"github.com/charlesng35/wifipass/internal/monitoring"
	"github.com/charlesng35/wifipass/internal/monitoring/checks"
	"github.com/charlesng35/wifipass/internal/realtime"
	"github.com/charlesng35/wifipass/internal/services"
	"github.com/charlesng35/wifipass/pkg/logger"
)

const demoSeed = 20240301

// runtimeStack bundles long-lived services used by the HTTP server.
type runtimeStack struct {
	DB       *gorm.DB
	Redis    *cache.RedisStore
	Cache    cache.Store
	Hub      *realtime.Hub
	Sessions *services.SessionManager
	Jobs     *monitoring.JobTracker
	Cleaner  *maintenance.Cleaner
	Router   *gin.Engine
}

// bootstrapRuntime initialises the database, caches, services, maintenance jobs and the HTTP router.
func bootstrapRuntime(ctx context.Context, cfg *app.Config, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}
	var err error
	success := false

	defer func() {
		if !success {
			stack.Shutdown(context.Background(), log)
		}
	}()

	// enable gin debug mod
	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	stack.DB, err = initialiseDatabase(cfg)
	if err != nil {
		return nil, err
	}

	stack.Cache = cache.NewMemoryStore(time.Minute)
	if cfg.Cache.Redis.Enabled {
		if stack.Redis, err = cache.NewRedisStore(cfg.Cache.RedisClientConfig()); err != nil {
			log.Warn("redis unavailable; falling back to in-process cache", zap.Error(err))
		} else {
			stack.Cache = stack.Redis
			log.Info("redis connected", zap.String("addr", cfg.Cache.Redis.Address))
		}
	}

	plans, err := services.NewPlanCatalogService(stack.DB, stack.Cache, cfg.Cache.PlanTTL)
	if err != nil {
		return nil, fmt.Errorf("initialise plan catalog: %w", err)
	}

	events, err := services.NewSessionEventService(stack.DB)
	if err != nil {
		return nil, fmt.Errorf("initialise session event service: %w", err)
	}

	stack.Hub = realtime.NewHub(realtime.WithAllowedOrigins(cfg.Server.CORS.AllowedOrigins))

	stack.Sessions, err = services.NewSessionManager(plans, cfg.Sessions.SessionManagerConfig(),
		services.WithTransitionSinks(events, services.NewSessionBroadcaster(stack.Hub)),
	)
	if err != nil {
		return nil, fmt.Errorf("initialise session manager: %w", err)
	}

	payments, err := services.NewPaymentService(stack.DB, plans, stack.Sessions, nil, cfg.Payments.PaymentServiceConfig())
	if err != nil {
		return nil, fmt.Errorf("initialise payment service: %w", err)
	}

	dashboard, err := services.NewDashboardService(stack.Sessions, payments)
	if err != nil {
		return nil, fmt.Errorf("initialise dashboard service: %w", err)
	}

	if cfg.Demo.Enabled {
		if err := seedDemoSales(ctx, plans, payments, cfg.Demo.Sessions, log); err != nil {
			return nil, err
		}
	}

	stack.Jobs = monitoring.NewJobTracker()
	stack.Cleaner, err = maintenance.NewCleaner(stack.Sessions, events,
		maintenance.WithJobTracker(stack.Jobs),
		maintenance.WithSweepSchedule(cfg.Maintenance.SweepSchedule),
		maintenance.WithRetentionSchedule(cfg.Maintenance.RetentionSchedule),
		maintenance.WithSessionRetention(cfg.Sessions.Retention),
		maintenance.WithEventRetentionDays(cfg.Maintenance.EventRetentionDays),
	)
	if err != nil {
		return nil, fmt.Errorf("initialise maintenance jobs: %w", err)
	}
	if err := stack.Cleaner.Start(); err != nil {
		return nil, fmt.Errorf("start maintenance jobs: %w", err)
	}

	health := monitoring.NewHealthManager(0)
	health.RegisterLiveness(checks.Sessions(stack.Sessions))
	health.RegisterReadiness(checks.Database(stack.DB))
	health.RegisterReadiness(checks.Redis(redisPinger(stack.Redis), cfg.Cache.Redis.Enabled))
	health.RegisterReadiness(checks.Maintenance(stack.Jobs, 0, maintenance.JobSessionSweep))

	stack.Router, err = api.NewRouter(api.Dependencies{
		Config:    cfg,
		Cache:     stack.Cache,
		Health:    health,
		Hub:       stack.Hub,
		Sessions:  stack.Sessions,
		Plans:     plans,
		Payments:  payments,
		Events:    events,
		Dashboard: dashboard,
	})
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	success = true
	return stack, nil
}

// Shutdown stops background jobs, runs a final expiry sweep and releases resources.
func (s *runtimeStack) Shutdown(ctx context.Context, log *zap.Logger) {
	if s == nil {
		return
	}

	if s.Cleaner != nil {
		<-s.Cleaner.Stop().Done()
		expired, _ := s.Cleaner.Sweep()
		log.Info("final expiry sweep", zap.Int("expired", expired))
	}

	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			log.Warn("redis shutdown", zap.Error(err))
		}
	}

	if s.DB != nil {
		closeDatabase(s.DB, log)
	}
}

// redisPinger keeps a nil store from becoming a non-nil interface.
func redisPinger(store *cache.RedisStore) checks.Pinger {
	if store == nil {
		return nil
	}
	return store
}

func seedDemoSales(ctx context.Context, plans *services.PlanCatalogService, payments *services.PaymentService, count int, log *zap.Logger) error {
	seeder, err := services.NewDemoSeeder(plans, payments, demoSeed)
	if err != nil {
		return fmt.Errorf("initialise demo seeder: %w", err)
	}

	receipts, err := seeder.Seed(ctx, count)
	if err != nil {
		log.Warn("demo seeding incomplete", zap.Error(err))
	}
	log.Info("demo sales seeded", zap.Int("sessions", len(receipts)))
	return nil
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := convertDatabaseConfig(cfg)
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.AutoMigrateAndSeed(db); err != nil {
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	log := logger.WithModule("database")
	log.Info("database connected", zap.String("driver", dbCfg.Driver))

	return db, nil
}

func convertDatabaseConfig(cfg *app.Config) database.Config {
	dbCfg := database.Config{
		Driver: strings.ToLower(strings.TrimSpace(cfg.Database.Driver)),
		Path:   strings.TrimSpace(cfg.Database.Path),
		DSN:    strings.TrimSpace(cfg.Database.DSN),
	}

	var auth app.DBAuthConfig
	switch dbCfg.Driver {
	case "", "sqlite":
		dbCfg.Driver = "sqlite"
		return dbCfg
	case "postgres", "postgresql":
		dbCfg.Driver = "postgres"
		auth = cfg.Database.Postgres
	case "mysql":
		auth = cfg.Database.MySQL
	default:
		// Unsupported drivers surface an error from database.Open.
		return dbCfg
	}

	dbCfg.Host = strings.TrimSpace(auth.Host)
	dbCfg.Port = auth.Port
	dbCfg.Name = strings.TrimSpace(auth.Database)
	dbCfg.User = strings.TrimSpace(auth.Username)
	dbCfg.Password = auth.Password
	return dbCfg
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("failed to obtain underlying sql DB for closing", zap.Error(err))
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Warn("failed to close database", zap.Error(err))
	}
}
