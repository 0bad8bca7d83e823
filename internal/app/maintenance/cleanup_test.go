package maintenance

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	testutil "github.com/charlesng35/wifipass/internal/database/testutil"
	"github.com/charlesng35/wifipass/internal/app"
	"github.com/charlesng35/wifipass/internal/models"
	"github.com/charlesng35/wifipass/internal/monitoring"
	"github.com/charlesng35/wifipass/internal/services"
)

type testClock struct {
	mu      sync.Mutex
	current time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.current = c.current.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	clock    *testClock
	sessions *services.SessionManager
	events   *services.SessionEventService
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())
	plans, err := services.NewPlanCatalogService(db, nil, 0)
	require.NoError(t, err)
	events, err := services.NewSessionEventService(db)
	require.NoError(t, err)

	clock := &testClock{current: time.Date(2024, 5, 20, 9, 0, 0, 0, time.UTC)}
	sessions, err := services.NewSessionManager(plans, services.SessionManagerConfig{ExpiryWarning: 5 * time.Minute},
		services.WithSessionClock(clock.Now),
		services.WithTransitionSinks(events),
	)
	require.NoError(t, err)

	return fixture{clock: clock, sessions: sessions, events: events}
}

func TestNewCleanerRequiresSessions(t *testing.T) {
	_, err := NewCleaner(nil, nil)
	require.Error(t, err)
}

func TestCleanerSweepWarnsOnce(t *testing.T) {
	f := newFixture(t)
	c, err := NewCleaner(f.sessions, f.events)
	require.NoError(t, err)

	session, err := f.sessions.CreateSession(context.Background(), "basic", "phone")
	require.NoError(t, err)

	f.clock.Advance(56 * time.Minute)
	expired, warned := c.Sweep()
	require.Zero(t, expired)
	require.Equal(t, 1, warned)

	_, warned = c.Sweep()
	require.Zero(t, warned)

	f.clock.Advance(5 * time.Minute)
	expired, _ = c.Sweep()
	require.Equal(t, 1, expired)

	current, err := f.sessions.Lookup(session.Token)
	require.NoError(t, err)
	require.False(t, current.Active)
	require.NotNil(t, current.ExpiredAt)
}

func TestCleanerRunOnce(t *testing.T) {
	f := newFixture(t)
	c, err := NewCleaner(f.sessions, f.events,
		WithSessionRetention(24*time.Hour),
		WithEventRetentionDays(30),
	)
	require.NoError(t, err)

	ctx := context.Background()
	ended, err := f.sessions.CreateSession(ctx, "basic", "old-phone")
	require.NoError(t, err)
	f.clock.Advance(2 * time.Hour)
	live, err := f.sessions.CreateSession(ctx, "premium", "new-phone")
	require.NoError(t, err)

	stale := models.SessionEvent{
		Token:      "oldtoken",
		Type:       services.EventSessionCreated,
		OccurredAt: time.Now().AddDate(0, 0, -45),
	}
	require.NoError(t, f.events.Record(ctx, services.SessionTransition{
		Event:      stale.Type,
		Session:    services.Session{Token: stale.Token},
		OccurredAt: stale.OccurredAt,
	}))

	require.NoError(t, c.RunOnce(ctx))

	current, err := f.sessions.Lookup(ended.Token)
	require.NoError(t, err)
	require.False(t, current.Active)

	f.clock.Advance(24 * time.Hour)
	require.NoError(t, c.RunOnce(ctx))

	_, err = f.sessions.Lookup(ended.Token)
	require.ErrorIs(t, err, services.ErrSessionNotFound)

	current, err = f.sessions.Lookup(live.Token)
	require.NoError(t, err)
	require.True(t, current.Active)

	remaining, err := f.events.ListForToken(ctx, stale.Token, 10)
	require.NoError(t, err)
	require.Empty(t, remaining)
}

func TestCleanerDefaultsMatchConfig(t *testing.T) {
	cfg, err := app.LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, cfg.Sessions.Retention, defaultSessionRetention)
	require.Equal(t, cfg.Maintenance.SweepSchedule, defaultSweepSpec)
	require.Equal(t, cfg.Maintenance.RetentionSchedule, defaultRetentionSpec)
	require.Equal(t, cfg.Maintenance.EventRetentionDays, defaultEventRetentionDays)
}

func TestCleanerDefaultRetentionPurgesAfterOneDay(t *testing.T) {
	f := newFixture(t)
	c, err := NewCleaner(f.sessions, f.events)
	require.NoError(t, err)

	ctx := context.Background()
	ended, err := f.sessions.CreateSession(ctx, "basic", "phone")
	require.NoError(t, err)

	f.clock.Advance(23 * time.Hour)
	require.NoError(t, c.RunOnce(ctx))
	_, err = f.sessions.Lookup(ended.Token)
	require.NoError(t, err)

	f.clock.Advance(3 * time.Hour)
	require.NoError(t, c.RunOnce(ctx))
	_, err = f.sessions.Lookup(ended.Token)
	require.ErrorIs(t, err, services.ErrSessionNotFound)
}

func TestCleanerScheduledJobsAreTracked(t *testing.T) {
	f := newFixture(t)
	jobs := monitoring.NewJobTracker()
	c, err := NewCleaner(f.sessions, f.events,
		WithJobTracker(jobs),
		WithSweepSchedule("@every 1s"),
		WithRetentionSchedule("@every 1s"),
	)
	require.NoError(t, err)
	require.NoError(t, c.Start())
	t.Cleanup(func() { <-c.Stop().Done() })

	require.Eventually(t, func() bool {
		return len(jobs.Jobs()) == 2
	}, 5*time.Second, 50*time.Millisecond)

	for _, job := range jobs.Jobs() {
		require.Equal(t, monitoring.JobResultSuccess, job.LastStatus, job.Job)
	}
}

func TestCleanerRejectsInvalidSchedule(t *testing.T) {
	f := newFixture(t)
	c, err := NewCleaner(f.sessions, nil, WithSweepSchedule("every now and then"))
	require.NoError(t, err)
	require.Error(t, c.Start())
}
