package realtime

import "strings"

// Named realtime streams used across the portal.
const (
	// StreamAccessSessions carries every session lifecycle event for the admin console.
	StreamAccessSessions = "access.sessions"

	sessionStreamPrefix = "session."
)

// SessionStream returns the per-token stream a confirmation screen subscribes to.
func SessionStream(token string) string {
	return sessionStreamPrefix + normalizeStream(token)
}

// IsKnownStream reports whether stream is one of the streams the portal publishes.
func IsKnownStream(stream string) bool {
	stream = normalizeStream(stream)
	if stream == StreamAccessSessions {
		return true
	}
	return strings.HasPrefix(stream, sessionStreamPrefix) && len(stream) > len(sessionStreamPrefix)
}
