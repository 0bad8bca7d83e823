package checks

import (
	"context"
	"fmt"

	"github.com/charlesng35/wifipass/internal/monitoring"
	"github.com/charlesng35/wifipass/internal/services"
)

// SessionCounter exposes registry totals.
type SessionCounter interface {
	Counts() services.SessionCounts
}

// Sessions is a liveness probe confirming the in-memory session registry answers.
func Sessions(registry SessionCounter) monitoring.Check {
	return monitoring.NewCheck("sessions", func(ctx context.Context) monitoring.ProbeResult {
		if registry == nil {
			return monitoring.ProbeResult{Status: monitoring.StatusDown, Details: "session registry not configured"}
		}
		counts := registry.Counts()
		return monitoring.ProbeResult{
			Status:  monitoring.StatusUp,
			Details: fmt.Sprintf("%d active of %d", counts.Active, counts.Total),
		}
	})
}
