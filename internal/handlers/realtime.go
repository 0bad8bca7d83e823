package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/wifipass/internal/realtime"
	"github.com/charlesng35/wifipass/pkg/errors"
	"github.com/charlesng35/wifipass/pkg/response"
)

// RealtimeHandler upgrades HTTP connections into websocket streams of session events.
type RealtimeHandler struct {
	hub *realtime.Hub
}

// NewRealtimeHandler constructs a realtime handler.
func NewRealtimeHandler(hub *realtime.Hub) *RealtimeHandler {
	return &RealtimeHandler{hub: hub}
}

// Stream subscribes the caller to the requested streams. Without a streams query the admin
// stream of every session event is used.
func (h *RealtimeHandler) Stream(c *gin.Context) {
	if h.hub == nil {
		response.Error(c, errors.ErrNotFound)
		return
	}

	streams := gatherStreams(c)
	if len(streams) == 0 {
		streams = []string{realtime.StreamAccessSessions}
	}
	for _, stream := range streams {
		if !realtime.IsKnownStream(stream) {
			response.Error(c, errors.NewBadRequest("unknown stream "+stream))
			return
		}
	}

	h.hub.Serve(streams, c.Writer, c.Request)
}

func gatherStreams(c *gin.Context) []string {
	var streams []string

	for _, queryStream := range c.QueryArray("stream") {
		streams = append(streams, queryStream)
	}
	if raw := c.Query("streams"); raw != "" {
		streams = append(streams, strings.Split(raw, ",")...)
	}

	out := make([]string, 0, len(streams))
	seen := make(map[string]struct{}, len(streams))
	for _, stream := range streams {
		stream = strings.ToLower(strings.TrimSpace(stream))
		if stream == "" {
			continue
		}
		if _, ok := seen[stream]; ok {
			continue
		}
		seen[stream] = struct{}{}
		out = append(out, stream)
	}
	return out
}
