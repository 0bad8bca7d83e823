package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/charlesng35/wifipass/internal/models"
	"github.com/charlesng35/wifipass/pkg/crypto"
	"github.com/charlesng35/wifipass/pkg/logger"
	"github.com/charlesng35/wifipass/pkg/metrics"
)

// Session lifecycle events emitted to transition sinks.
const (
	EventSessionCreated        = "session.created"
	EventSessionDisconnected   = "session.disconnected"
	EventSessionRefreshed      = "session.refreshed"
	EventSessionExpired        = "session.expired"
	EventSessionExpiring       = "session.expiring"
	EventSessionDeviceReplaced = "session.device_replaced"
	EventSessionPurged         = "session.purged"
)

const (
	defaultSessionTokenLength = 12
	defaultSessionTokenTries  = 5
)

// Session is a snapshot of an access session. Active reflects the state at the time the snapshot was taken.
type Session struct {
	Token          string     `json:"token"`
	DeviceID       string     `json:"device_id"`
	PlanID         string     `json:"plan_id"`
	PlanName       string     `json:"plan_name"`
	SpeedMbps      int        `json:"speed_mbps"`
	StartTime      time.Time  `json:"start_time"`
	EndTime        time.Time  `json:"end_time"`
	Active         bool       `json:"active"`
	DisconnectedAt *time.Time `json:"disconnected_at,omitempty"`
	ExpiredAt      *time.Time `json:"expired_at,omitempty"`
}

// State derives the lifecycle state of the snapshot at now.
func (s Session) State(now time.Time) SessionState {
	switch {
	case !now.Before(s.EndTime):
		return SessionStateExpired
	case s.Active:
		return SessionStateActive
	default:
		return SessionStateDisconnected
	}
}

// SessionTransition describes a lifecycle change delivered to sinks after the registry lock is released.
// Sequence is assigned under the registry lock; sinks receive transitions in Sequence order.
type SessionTransition struct {
	Sequence         uint64
	Event            string
	Session          Session
	PreviousDeviceID string
	OccurredAt       time.Time
}

// SessionTransitionSink consumes session lifecycle transitions. Sinks must not call mutating
// SessionManager methods.
type SessionTransitionSink interface {
	HandleSessionTransition(SessionTransition)
}

// SessionTransitionFunc adapts a function into a SessionTransitionSink.
type SessionTransitionFunc func(SessionTransition)

// HandleSessionTransition implements SessionTransitionSink.
func (f SessionTransitionFunc) HandleSessionTransition(t SessionTransition) { f(t) }

// PlanLookup resolves plans for session creation.
type PlanLookup interface {
	Get(ctx context.Context, id string) (*models.Plan, error)
}

// SessionManagerConfig tunes access code generation and device binding.
type SessionManagerConfig struct {
	TokenLength         int
	TokenMaxAttempts    int
	EnforceSingleDevice bool
	ExpiryWarning       time.Duration
}

// SessionManagerOption customises a SessionManager.
type SessionManagerOption func(*SessionManager)

// WithSessionClock overrides the clock used for lifecycle decisions.
func WithSessionClock(now func() time.Time) SessionManagerOption {
	return func(m *SessionManager) {
		if now != nil {
			m.timeNow = now
		}
	}
}

// WithTokenGenerator overrides access code generation.
func WithTokenGenerator(generate func() (string, error)) SessionManagerOption {
	return func(m *SessionManager) {
		if generate != nil {
			m.generateToken = generate
		}
	}
}

// WithTransitionSinks registers sinks notified of every lifecycle transition.
func WithTransitionSinks(sinks ...SessionTransitionSink) SessionManagerOption {
	return func(m *SessionManager) {
		for _, sink := range sinks {
			if sink != nil {
				m.sinks = append(m.sinks, sink)
			}
		}
	}
}

// ListSessionsOptions filters the admin session table.
type ListSessionsOptions struct {
	Search string
	State  SessionState
}

// SessionCounts summarises the registry by state.
type SessionCounts struct {
	Active       int `json:"active"`
	Disconnected int `json:"disconnected"`
	Expired      int `json:"expired"`
	Total        int `json:"total"`
}

type sessionRecord struct {
	session Session
	// queued is true while an expiry entry for the session sits in the heap.
	queued bool
	warned bool
}

func (r *sessionRecord) snapshot(now time.Time) Session {
	out := r.session
	out.Active = r.session.Active && now.Before(r.session.EndTime)
	if r.session.DisconnectedAt != nil {
		at := *r.session.DisconnectedAt
		out.DisconnectedAt = &at
	}
	if r.session.ExpiredAt != nil {
		at := *r.session.ExpiredAt
		out.ExpiredAt = &at
	}
	return out
}

// SessionManager owns the in-memory registry of access sessions keyed by token.
type SessionManager struct {
	mu          sync.RWMutex
	sessions    map[string]*sessionRecord
	queue       expiryQueue
	activeCount int
	sequence    uint64

	deliverMu   sync.Mutex
	deliverCond *sync.Cond
	delivered   uint64

	plans         PlanLookup
	cfg           SessionManagerConfig
	sinks         []SessionTransitionSink
	timeNow       func() time.Time
	generateToken func() (string, error)
	log           *zap.Logger
}

// NewSessionManager constructs a SessionManager that validates plans against the supplied catalog.
func NewSessionManager(plans PlanLookup, cfg SessionManagerConfig, opts ...SessionManagerOption) (*SessionManager, error) {
	if plans == nil {
		return nil, errors.New("session manager: plan lookup is required")
	}
	if cfg.TokenLength <= 0 {
		cfg.TokenLength = defaultSessionTokenLength
	}
	if cfg.TokenMaxAttempts <= 0 {
		cfg.TokenMaxAttempts = defaultSessionTokenTries
	}

	m := &SessionManager{
		sessions: make(map[string]*sessionRecord),
		plans:    plans,
		cfg:      cfg,
		timeNow:  time.Now,
		log:      logger.WithModule("sessions"),
	}
	m.deliverCond = sync.NewCond(&m.deliverMu)
	m.generateToken = func() (string, error) {
		return crypto.GenerateCode(m.cfg.TokenLength, crypto.CodeAlphabet)
	}

	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Subscribe registers an additional transition sink. It must be called before the manager is shared.
func (m *SessionManager) Subscribe(sink SessionTransitionSink) {
	if sink != nil {
		m.sinks = append(m.sinks, sink)
	}
}

// Now returns the manager clock reading.
func (m *SessionManager) Now() time.Time {
	return m.timeNow()
}

// ExpiryWarning returns the configured warning window.
func (m *SessionManager) ExpiryWarning() time.Duration {
	return m.cfg.ExpiryWarning
}

// CreateSession issues a new access code bound to deviceID for the duration of the plan.
func (m *SessionManager) CreateSession(ctx context.Context, planID, deviceID string) (Session, error) {
	planID = strings.TrimSpace(planID)
	if planID == "" {
		return Session{}, fmt.Errorf("%w: plan id is required", ErrInvalidPlan)
	}

	plan, err := m.plans.Get(ctx, planID)
	if err != nil {
		if errors.Is(err, ErrPlanNotFound) {
			return Session{}, fmt.Errorf("%w: %s", ErrInvalidPlan, planID)
		}
		return Session{}, fmt.Errorf("session manager: load plan: %w", err)
	}
	if !plan.Enabled || plan.DurationSeconds <= 0 {
		return Session{}, fmt.Errorf("%w: %s", ErrInvalidPlan, planID)
	}

	m.mu.Lock()
	token, err := m.issueTokenLocked()
	if err != nil {
		m.mu.Unlock()
		m.log.Error("access code generation failed",
			zap.String("plan_id", planID),
			zap.Int("attempts", m.cfg.TokenMaxAttempts),
			zap.Error(err),
		)
		return Session{}, err
	}

	now := m.timeNow()
	record := &sessionRecord{
		session: Session{
			Token:     token,
			DeviceID:  strings.TrimSpace(deviceID),
			PlanID:    plan.ID,
			PlanName:  plan.Name,
			SpeedMbps: plan.SpeedMbps,
			StartTime: now,
			EndTime:   now.Add(plan.Duration()),
			Active:    true,
		},
		queued: true,
	}
	m.sessions[token] = record
	m.queue.schedule(token, record.session.EndTime)
	m.activeCount++
	created := record.snapshot(now)
	active := m.activeCount
	seq := m.reserveLocked(1)
	m.mu.Unlock()

	m.dispatch(seq, active, SessionTransition{Event: EventSessionCreated, Session: created, OccurredAt: now})
	return created, nil
}

func (m *SessionManager) issueTokenLocked() (string, error) {
	for attempt := 0; attempt < m.cfg.TokenMaxAttempts; attempt++ {
		token, err := m.generateToken()
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrTokenGenerationFailed, err)
		}
		token = normaliseToken(token)
		if token == "" {
			continue
		}
		if _, exists := m.sessions[token]; exists {
			metrics.TokenCollisions.Inc()
			continue
		}
		return token, nil
	}
	return "", fmt.Errorf("%w: exhausted %d attempts", ErrTokenGenerationFailed, m.cfg.TokenMaxAttempts)
}

// Lookup returns the session registered under token.
func (m *SessionManager) Lookup(token string) (Session, error) {
	token = normaliseToken(token)

	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.sessions[token]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return record.snapshot(m.timeNow()), nil
}

// Disconnect revokes access for token. A session that no longer grants access is returned
// together with ErrSessionAlreadyInactive and left unchanged.
func (m *SessionManager) Disconnect(token string) (Session, error) {
	token = normaliseToken(token)

	m.mu.Lock()
	record, ok := m.sessions[token]
	if !ok {
		m.mu.Unlock()
		return Session{}, ErrSessionNotFound
	}

	now := m.timeNow()
	if !record.session.Active || !now.Before(record.session.EndTime) {
		current := record.snapshot(now)
		m.mu.Unlock()
		return current, ErrSessionAlreadyInactive
	}

	record.session.Active = false
	disconnectedAt := now
	record.session.DisconnectedAt = &disconnectedAt
	m.activeCount--
	current := record.snapshot(now)
	active := m.activeCount
	seq := m.reserveLocked(1)
	m.mu.Unlock()

	m.dispatch(seq, active, SessionTransition{Event: EventSessionDisconnected, Session: current, OccurredAt: now})
	return current, nil
}

// Refresh restores access for a disconnected session that has not reached its end time.
// The end time is never extended.
func (m *SessionManager) Refresh(token string) (Session, error) {
	token = normaliseToken(token)

	m.mu.Lock()
	record, ok := m.sessions[token]
	if !ok {
		m.mu.Unlock()
		return Session{}, ErrSessionNotFound
	}

	now := m.timeNow()
	if !now.Before(record.session.EndTime) {
		current := record.snapshot(now)
		m.mu.Unlock()
		return current, ErrSessionExpired
	}

	if record.session.Active {
		current := record.snapshot(now)
		m.mu.Unlock()
		return current, nil
	}

	record.session.Active = true
	record.session.DisconnectedAt = nil
	record.session.ExpiredAt = nil
	m.activeCount++
	if !record.queued {
		m.queue.schedule(token, record.session.EndTime)
		record.queued = true
	}
	current := record.snapshot(now)
	active := m.activeCount
	seq := m.reserveLocked(1)
	m.mu.Unlock()

	m.dispatch(seq, active, SessionTransition{Event: EventSessionRefreshed, Session: current, OccurredAt: now})
	return current, nil
}

// BindDevice is the login flow: it validates that token still grants access and, when single device
// enforcement is enabled, moves the session to deviceID. The previous device loses access.
func (m *SessionManager) BindDevice(token, deviceID string) (Session, error) {
	token = normaliseToken(token)
	deviceID = strings.TrimSpace(deviceID)

	m.mu.Lock()
	record, ok := m.sessions[token]
	if !ok {
		m.mu.Unlock()
		return Session{}, ErrSessionNotFound
	}

	now := m.timeNow()
	if !now.Before(record.session.EndTime) {
		current := record.snapshot(now)
		m.mu.Unlock()
		return current, ErrSessionExpired
	}
	if !record.session.Active {
		current := record.snapshot(now)
		m.mu.Unlock()
		return current, ErrSessionInactive
	}

	previous := record.session.DeviceID
	if !m.cfg.EnforceSingleDevice || deviceID == "" || deviceID == previous {
		current := record.snapshot(now)
		m.mu.Unlock()
		return current, nil
	}

	record.session.DeviceID = deviceID
	current := record.snapshot(now)
	active := m.activeCount
	seq := m.reserveLocked(1)
	m.mu.Unlock()

	m.dispatch(seq, active, SessionTransition{
		Event:            EventSessionDeviceReplaced,
		Session:          current,
		PreviousDeviceID: previous,
		OccurredAt:       now,
	})
	return current, nil
}

// SweepExpired deactivates every active session whose end time is at or before now and returns
// how many were deactivated. Only due heap entries are visited.
func (m *SessionManager) SweepExpired(now time.Time) int {
	started := time.Now()

	m.mu.Lock()
	var expired []Session
	for {
		entry, ok := m.queue.popDue(now)
		if !ok {
			break
		}
		record, exists := m.sessions[entry.token]
		if !exists || !record.session.EndTime.Equal(entry.end) {
			continue
		}
		record.queued = false
		if record.session.ExpiredAt == nil {
			expiredAt := record.session.EndTime
			record.session.ExpiredAt = &expiredAt
		}
		if !record.session.Active {
			continue
		}
		record.session.Active = false
		m.activeCount--
		expired = append(expired, record.snapshot(now))
	}
	active := m.activeCount
	seq := m.reserveLocked(len(expired))
	m.mu.Unlock()

	metrics.SweepDuration.Observe(time.Since(started).Seconds())

	transitions := make([]SessionTransition, 0, len(expired))
	for _, session := range expired {
		transitions = append(transitions, SessionTransition{Event: EventSessionExpired, Session: session, OccurredAt: now})
	}
	m.dispatch(seq, active, transitions...)
	if len(expired) > 0 {
		m.log.Debug("expired sessions swept", zap.Int("count", len(expired)))
	}
	return len(expired)
}

// NotifyExpiring returns active sessions whose remaining time at now is within window. Each session
// is reported at most once.
func (m *SessionManager) NotifyExpiring(now time.Time, window time.Duration) []Session {
	if window <= 0 {
		return nil
	}

	m.mu.Lock()
	var expiring []Session
	for _, record := range m.sessions {
		if record.warned || !record.session.Active || !now.Before(record.session.EndTime) {
			continue
		}
		if record.session.EndTime.Sub(now) > window {
			continue
		}
		record.warned = true
		expiring = append(expiring, record.snapshot(now))
	}
	active := m.activeCount
	seq := m.reserveLocked(len(expiring))
	m.mu.Unlock()

	sort.Slice(expiring, func(i, j int) bool {
		return expiring[i].EndTime.Before(expiring[j].EndTime)
	})
	transitions := make([]SessionTransition, 0, len(expiring))
	for _, session := range expiring {
		transitions = append(transitions, SessionTransition{Event: EventSessionExpiring, Session: session, OccurredAt: now})
	}
	m.dispatch(seq, active, transitions...)
	return expiring
}

// PurgeInactive removes sessions that no longer grant access and ended before the cutoff.
func (m *SessionManager) PurgeInactive(before time.Time) int {
	now := m.timeNow()
	m.SweepExpired(now)

	m.mu.Lock()
	var purged []Session
	for token, record := range m.sessions {
		if record.session.Active && now.Before(record.session.EndTime) {
			continue
		}
		if !record.session.EndTime.Before(before) {
			continue
		}
		purged = append(purged, record.snapshot(now))
		delete(m.sessions, token)
	}
	active := m.activeCount
	seq := m.reserveLocked(len(purged))
	m.mu.Unlock()

	transitions := make([]SessionTransition, 0, len(purged))
	for _, session := range purged {
		transitions = append(transitions, SessionTransition{Event: EventSessionPurged, Session: session, OccurredAt: now})
	}
	m.dispatch(seq, active, transitions...)
	return len(purged)
}

// List returns sessions matching opts, newest first.
func (m *SessionManager) List(opts ListSessionsOptions) []Session {
	search := strings.ToLower(strings.TrimSpace(opts.Search))

	m.mu.RLock()
	now := m.timeNow()
	results := make([]Session, 0, len(m.sessions))
	for _, record := range m.sessions {
		session := record.snapshot(now)
		if opts.State != "" && session.State(now) != opts.State {
			continue
		}
		if search != "" && !matchesSearch(session, search) {
			continue
		}
		results = append(results, session)
	}
	m.mu.RUnlock()

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].StartTime.Equal(results[j].StartTime) {
			return results[i].Token < results[j].Token
		}
		return results[i].StartTime.After(results[j].StartTime)
	})
	return results
}

// Counts summarises the registry by state at the current time.
func (m *SessionManager) Counts() SessionCounts {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := m.timeNow()
	var counts SessionCounts
	for _, record := range m.sessions {
		switch record.snapshot(now).State(now) {
		case SessionStateActive:
			counts.Active++
		case SessionStateDisconnected:
			counts.Disconnected++
		case SessionStateExpired:
			counts.Expired++
		}
		counts.Total++
	}
	return counts
}

// reserveLocked claims n consecutive sequence numbers and returns the first. Callers must hold mu
// and pass the same n transitions to dispatch.
func (m *SessionManager) reserveLocked(n int) uint64 {
	if n <= 0 {
		return 0
	}
	first := m.sequence + 1
	m.sequence += uint64(n)
	return first
}

// dispatch delivers transitions numbered from first once every earlier reservation was delivered,
// so the active gauge and sinks observe registry order.
func (m *SessionManager) dispatch(first uint64, active int, transitions ...SessionTransition) {
	if first == 0 || len(transitions) == 0 {
		return
	}

	m.deliverMu.Lock()
	defer m.deliverMu.Unlock()
	for m.delivered+1 != first {
		m.deliverCond.Wait()
	}
	defer func() {
		m.delivered = first + uint64(len(transitions)) - 1
		m.deliverCond.Broadcast()
	}()

	metrics.ActiveSessions.Set(float64(active))
	for i, transition := range transitions {
		transition.Sequence = first + uint64(i)
		metrics.SessionTransitions.WithLabelValues(strings.TrimPrefix(transition.Event, "session.")).Inc()
		for _, sink := range m.sinks {
			sink.HandleSessionTransition(transition)
		}
	}
}

func matchesSearch(session Session, search string) bool {
	return strings.Contains(session.Token, search) ||
		strings.Contains(strings.ToLower(session.DeviceID), search) ||
		strings.Contains(strings.ToLower(session.PlanName), search)
}

func normaliseToken(token string) string {
	return strings.ToLower(strings.TrimSpace(token))
}
