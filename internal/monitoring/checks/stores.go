package checks

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/charlesng35/wifipass/internal/monitoring"
)

// Pinger is implemented by stores that can verify their connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Database returns a readiness probe that pings the plan and sales database.
func Database(db *gorm.DB) monitoring.Check {
	return monitoring.NewCheck("database", func(ctx context.Context) monitoring.ProbeResult {
		if db == nil {
			return monitoring.ProbeResult{Status: monitoring.StatusDown, Details: "database not configured"}
		}
		sqlDB, err := db.DB()
		if err != nil {
			return monitoring.ResultFromError("database", err, 0)
		}
		return ping(ctx, "database", sqlDB.PingContext)
	})
}

// Redis returns a readiness probe for the shared cache. When Redis is disabled the in-process cache
// is in use and the probe reports up.
func Redis(client Pinger, enabled bool) monitoring.Check {
	return monitoring.NewCheck("redis", func(ctx context.Context) monitoring.ProbeResult {
		if !enabled {
			return monitoring.ProbeResult{Status: monitoring.StatusUp, Details: "redis disabled, using in-process cache"}
		}
		if client == nil {
			return monitoring.ResultFromError("redis", errors.New("redis client unavailable"), 0)
		}
		return ping(ctx, "redis", client.Ping)
	})
}

func ping(ctx context.Context, component string, fn func(context.Context) error) monitoring.ProbeResult {
	start := time.Now()
	return monitoring.ResultFromError(component, fn(ctx), time.Since(start))
}
