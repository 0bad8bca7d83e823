package monitoring

import (
	"sort"
	"sync"
	"time"

	"github.com/charlesng35/wifipass/pkg/metrics"
)

// Maintenance job results.
const (
	JobResultSuccess = "success"
	JobResultFailure = "failure"
)

// JobSummary describes the recent history of one background job.
type JobSummary struct {
	Job                 string        `json:"job"`
	LastStatus          string        `json:"last_status"`
	LastRunAt           time.Time     `json:"last_run_at"`
	LastDuration        time.Duration `json:"last_duration"`
	LastError           string        `json:"last_error,omitempty"`
	LastSuccessAt       time.Time     `json:"last_success_at"`
	ConsecutiveFailures uint64        `json:"consecutive_failures"`
	TotalRuns           uint64        `json:"total_runs"`
}

// JobTracker records maintenance job runs for health probes and exports them as metrics.
type JobTracker struct {
	mu   sync.Mutex
	jobs map[string]*JobSummary
	now  func() time.Time
}

// NewJobTracker constructs an empty tracker.
func NewJobTracker() *JobTracker {
	return &JobTracker{jobs: make(map[string]*JobSummary), now: time.Now}
}

// Record stores the outcome of a single job run. A nil runErr is a success.
func (t *JobTracker) Record(job string, runErr error, duration time.Duration) {
	if t == nil || job == "" {
		return
	}

	result := JobResultSuccess
	if runErr != nil {
		result = JobResultFailure
	}
	metrics.MaintenanceRuns.WithLabelValues(job, result).Inc()
	metrics.MaintenanceDuration.WithLabelValues(job).Observe(duration.Seconds())

	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.jobs[job]
	if !ok {
		entry = &JobSummary{Job: job}
		t.jobs[job] = entry
	}
	entry.TotalRuns++
	entry.LastStatus = result
	entry.LastRunAt = now
	entry.LastDuration = duration
	if runErr != nil {
		entry.LastError = runErr.Error()
		entry.ConsecutiveFailures++
		return
	}
	entry.LastError = ""
	entry.LastSuccessAt = now
	entry.ConsecutiveFailures = 0
}

// Jobs returns a snapshot of every tracked job, ordered by name.
func (t *JobTracker) Jobs() []JobSummary {
	if t == nil {
		return nil
	}

	t.mu.Lock()
	out := make([]JobSummary, 0, len(t.jobs))
	for _, entry := range t.jobs {
		out = append(out, *entry)
	}
	t.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Job < out[j].Job })
	return out
}
