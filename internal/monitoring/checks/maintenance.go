package checks

import (
	"context"
	"strings"
	"time"

	"github.com/charlesng35/wifipass/internal/monitoring"
)

const defaultMaintenanceMaxAge = 10 * time.Minute

// MaintenanceJobs exposes recorded job runs.
type MaintenanceJobs interface {
	Jobs() []monitoring.JobSummary
}

// Maintenance verifies that background jobs keep succeeding. A stalled expiry sweep leaves sessions
// granting access past their end time, so failures report down. Runs older than maxAge degrade the
// probe; when watched is non-empty only those jobs are checked for staleness.
func Maintenance(jobs MaintenanceJobs, maxAge time.Duration, watched ...string) monitoring.Check {
	if maxAge <= 0 {
		maxAge = defaultMaintenanceMaxAge
	}
	stale := make(map[string]bool, len(watched))
	for _, job := range watched {
		stale[job] = true
	}

	return monitoring.NewCheck("maintenance", func(ctx context.Context) monitoring.ProbeResult {
		if jobs == nil {
			return monitoring.ProbeResult{Status: monitoring.StatusUp, Details: "maintenance disabled"}
		}

		summaries := jobs.Jobs()
		if len(summaries) == 0 {
			return monitoring.ProbeResult{Status: monitoring.StatusUp, Details: "no maintenance jobs recorded"}
		}

		now := time.Now()
		status := monitoring.StatusUp
		var problems []string

		for _, job := range summaries {
			if job.ConsecutiveFailures > 0 {
				status = monitoring.StatusDown
				problems = append(problems, job.Job+": "+job.LastError)
				continue
			}
			if len(stale) > 0 && !stale[job.Job] {
				continue
			}
			if !job.LastRunAt.IsZero() && now.Sub(job.LastRunAt) > maxAge && status != monitoring.StatusDown {
				status = monitoring.StatusDegraded
				problems = append(problems, job.Job+": stale run "+job.LastRunAt.UTC().Format(time.RFC3339))
			}
		}

		return monitoring.ProbeResult{Status: status, Details: strings.Join(problems, "; ")}
	})
}
