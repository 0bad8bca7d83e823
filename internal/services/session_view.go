package services

import (
	"fmt"
	"time"
)

// SessionState is the lifecycle state of an access session.
type SessionState string

const (
	// SessionStatePending is reserved for a pre-payment reservation stage; sessions are never stored in it.
	SessionStatePending      SessionState = "pending"
	SessionStateActive       SessionState = "active"
	SessionStateExpired      SessionState = "expired"
	SessionStateDisconnected SessionState = "disconnected"
)

// ParseSessionState converts a query value into a SessionState.
func ParseSessionState(value string) (SessionState, bool) {
	switch SessionState(value) {
	case SessionStateActive, SessionStateExpired, SessionStateDisconnected, SessionStatePending:
		return SessionState(value), true
	default:
		return "", false
	}
}

// TimeRemaining returns how long the session still grants access at now, floored at zero.
func TimeRemaining(session Session, now time.Time) time.Duration {
	remaining := session.EndTime.Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ProgressFraction returns the remaining share of the session window in [0, 1].
// It is 1 at the start time and 0 from the end time onward.
func ProgressFraction(session Session, now time.Time) float64 {
	total := session.EndTime.Sub(session.StartTime)
	if total <= 0 {
		return 0
	}
	fraction := float64(session.EndTime.Sub(now)) / float64(total)
	switch {
	case fraction < 0:
		return 0
	case fraction > 1:
		return 1
	default:
		return fraction
	}
}

// FormatCountdown renders d as HH:MM:SS. Hours are not capped at 99.
func FormatCountdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}

// FormatRemaining renders the admin table label for the time left on a session.
func FormatRemaining(d time.Duration) string {
	if d <= 0 {
		return "Expired"
	}

	hours := int64(d / time.Hour)
	minutes := int64((d % time.Hour) / time.Minute)

	if hours > 24 {
		days := hours / 24
		if days > 1 {
			return fmt.Sprintf("%d days remaining", days)
		}
		return "1 day remaining"
	}

	return fmt.Sprintf("%dh %dm remaining", hours, minutes)
}

// FormatPlanDuration renders a plan length for the plan cards, e.g. "1 hour", "24 hours", "7 days".
func FormatPlanDuration(seconds int64) string {
	switch {
	case seconds <= 0:
		return "0 minutes"
	case seconds%86400 == 0 && seconds/86400 > 1:
		return fmt.Sprintf("%d days", seconds/86400)
	case seconds%3600 == 0:
		return pluralise(seconds/3600, "hour")
	case seconds%60 == 0 && seconds < 3600:
		return pluralise(seconds/60, "minute")
	default:
		return fmt.Sprintf("%dh %dm", seconds/3600, (seconds%3600)/60)
	}
}

func pluralise(n int64, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// SessionView is the display representation of a session at a given instant.
type SessionView struct {
	Session
	State                SessionState `json:"state"`
	TimeRemainingSeconds int64        `json:"time_remaining"`
	Countdown            string       `json:"countdown"`
	RemainingLabel       string       `json:"remaining_label"`
	Progress             float64      `json:"progress"`
}

// NewSessionView derives the countdown fields for session at now.
func NewSessionView(session Session, now time.Time) SessionView {
	remaining := TimeRemaining(session, now)
	return SessionView{
		Session:              session,
		State:                session.State(now),
		TimeRemainingSeconds: int64(remaining / time.Second),
		Countdown:            FormatCountdown(remaining),
		RemainingLabel:       FormatRemaining(remaining),
		Progress:             ProgressFraction(session, now),
	}
}

// NewSessionViews derives views for a slice of sessions.
func NewSessionViews(sessions []Session, now time.Time) []SessionView {
	views := make([]SessionView, 0, len(sessions))
	for _, session := range sessions {
		views = append(views, NewSessionView(session, now))
	}
	return views
}
