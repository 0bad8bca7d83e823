package services

import "github.com/charlesng35/wifipass/internal/realtime"

// SessionBroadcaster pushes session transitions to realtime subscribers: the admin stream receives
// every transition and the confirmation screen receives the transitions of its own token.
type SessionBroadcaster struct {
	hub *realtime.Hub
}

// NewSessionBroadcaster constructs a SessionBroadcaster. A nil hub disables broadcasting.
func NewSessionBroadcaster(hub *realtime.Hub) *SessionBroadcaster {
	return &SessionBroadcaster{hub: hub}
}

// HandleSessionTransition implements SessionTransitionSink.
func (b *SessionBroadcaster) HandleSessionTransition(t SessionTransition) {
	if b == nil || b.hub == nil {
		return
	}

	message := realtime.Message{
		Event: t.Event,
		Data:  NewSessionView(t.Session, t.OccurredAt),
		Meta:  map[string]any{"sequence": t.Sequence},
	}
	if t.PreviousDeviceID != "" {
		message.Meta["previous_device_id"] = t.PreviousDeviceID
	}

	b.hub.BroadcastStream(realtime.StreamAccessSessions, message)
	b.hub.BroadcastStream(realtime.SessionStream(t.Session.Token), message)
}
