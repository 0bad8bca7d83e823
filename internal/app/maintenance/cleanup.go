package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/charlesng35/wifipass/internal/monitoring"
	"github.com/charlesng35/wifipass/internal/services"
	"github.com/charlesng35/wifipass/pkg/logger"
)

// Job names reported to the job tracker.
const (
	JobSessionSweep     = "session_sweep"
	JobSessionRetention = "session_retention"
)

const (
	defaultSweepSpec          = "@every 5s"
	defaultRetentionSpec      = "@hourly"
	defaultSessionRetention   = 24 * time.Hour
	defaultEventRetentionDays = 90
)

// Cleaner schedules the session expiry sweep, expiry warnings and retention purges.
type Cleaner struct {
	sessions *services.SessionManager
	events   *services.SessionEventService
	jobs     *monitoring.JobTracker
	cron     *cron.Cron
	now      func() time.Time
	log      *zap.Logger

	sweepSchedule      string
	retentionSchedule  string
	sessionRetention   time.Duration
	eventRetentionDays int
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithNow overrides the clock used for sweeps and retention cut-offs.
func WithNow(now func() time.Time) Option {
	return func(cleaner *Cleaner) {
		if now != nil {
			cleaner.now = now
		}
	}
}

// WithJobTracker records every run for the maintenance health probe.
func WithJobTracker(jobs *monitoring.JobTracker) Option {
	return func(cleaner *Cleaner) {
		cleaner.jobs = jobs
	}
}

// WithSweepSchedule overrides the cron schedule of the expiry sweep.
func WithSweepSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.sweepSchedule = spec
		}
	}
}

// WithRetentionSchedule overrides the cron schedule of the retention purge.
func WithRetentionSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.retentionSchedule = spec
		}
	}
}

// WithSessionRetention sets how long ended sessions stay in the registry.
func WithSessionRetention(d time.Duration) Option {
	return func(cleaner *Cleaner) {
		if d > 0 {
			cleaner.sessionRetention = d
		}
	}
}

// WithEventRetentionDays sets how long archived session events are kept.
func WithEventRetentionDays(days int) Option {
	return func(cleaner *Cleaner) {
		if days > 0 {
			cleaner.eventRetentionDays = days
		}
	}
}

// NewCleaner constructs a Cleaner. A nil event service skips event retention.
func NewCleaner(sessions *services.SessionManager, events *services.SessionEventService, opts ...Option) (*Cleaner, error) {
	if sessions == nil {
		return nil, fmt.Errorf("maintenance: session manager is required")
	}

	cleaner := &Cleaner{
		sessions:           sessions,
		events:             events,
		now:                sessions.Now,
		sweepSchedule:      defaultSweepSpec,
		retentionSchedule:  defaultRetentionSpec,
		sessionRetention:   defaultSessionRetention,
		eventRetentionDays: defaultEventRetentionDays,
		log:                logger.WithModule("maintenance"),
		cron:               cron.New(cron.WithLogger(cron.DiscardLogger), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
	}

	for _, opt := range opts {
		opt(cleaner)
	}
	return cleaner, nil
}

// Start registers the jobs with the cron scheduler and launches it.
func (c *Cleaner) Start() error {
	if _, err := c.cron.AddFunc(c.sweepSchedule, func() {
		c.run(JobSessionSweep, func(ctx context.Context) error {
			c.Sweep()
			return nil
		})
	}); err != nil {
		return fmt.Errorf("maintenance: schedule sweep: %w", err)
	}

	if _, err := c.cron.AddFunc(c.retentionSchedule, func() {
		c.run(JobSessionRetention, c.enforceRetention)
	}); err != nil {
		return fmt.Errorf("maintenance: schedule retention: %w", err)
	}

	c.cron.Start()
	return nil
}

// Stop halts the scheduler. The returned context is done once running jobs complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// Sweep deactivates sessions that reached their end time and emits expiry warnings.
func (c *Cleaner) Sweep() (expired, warned int) {
	now := c.now()
	expired = c.sessions.SweepExpired(now)
	if window := c.sessions.ExpiryWarning(); window > 0 {
		warned = len(c.sessions.NotifyExpiring(now, window))
	}
	if expired > 0 || warned > 0 {
		c.log.Debug("sweep completed", zap.Int("expired", expired), zap.Int("warned", warned))
	}
	return expired, warned
}

// RunOnce executes every job sequentially. Used in tests and during graceful shutdown.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	c.Sweep()

	var errs error
	if err := c.enforceRetention(ctx); err != nil {
		errs = multierr.Append(errs, err)
	}
	return errs
}

func (c *Cleaner) enforceRetention(ctx context.Context) error {
	now := c.now()
	var errs error

	purged := c.sessions.PurgeInactive(now.Add(-c.sessionRetention))

	var removed int64
	if c.events != nil {
		n, err := c.events.CleanupOlderThan(ctx, c.eventRetentionDays)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("maintenance: session events: %w", err))
		}
		removed = n
	}

	if purged > 0 || removed > 0 {
		c.log.Info("retention enforced", zap.Int("sessions_purged", purged), zap.Int64("events_removed", removed))
	}
	return errs
}

func (c *Cleaner) run(job string, fn func(ctx context.Context) error) {
	started := time.Now()
	err := fn(context.Background())
	if err != nil {
		c.log.Warn("maintenance job failed", zap.String("job", job), zap.Error(err))
	}
	c.jobs.Record(job, err, time.Since(started))
}
