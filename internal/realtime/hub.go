package realtime

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/charlesng35/wifipass/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 << 10

	defaultBufferSize = 64
)

// Message represents a JSON payload delivered to realtime subscribers.
type Message struct {
	Stream string         `json:"stream"`
	Event  string         `json:"event"`
	Data   any            `json:"data,omitempty"`
	Meta   map[string]any `json:"meta,omitempty"`
}

type controlMessage struct {
	Action  string   `json:"action"`
	Streams []string `json:"streams"`
}

// Hub coordinates multiplexed realtime streams for connected portal and admin clients.
type Hub struct {
	mu            sync.RWMutex
	subscriptions map[string]map[*connection]struct{}
	upgrader      websocket.Upgrader
	allowStream   func(string) bool
	log           *zap.Logger
}

// HubOption customises a Hub.
type HubOption func(*Hub)

// WithAllowedOrigins permits cross-origin upgrades from the listed browser origins in
// addition to same-origin and loopback requests.
func WithAllowedOrigins(origins []string) HubOption {
	return func(h *Hub) {
		allowed := make(map[string]struct{}, len(origins))
		for _, origin := range origins {
			if host := hostWithoutPort(origin); host != "" {
				allowed[strings.ToLower(host)] = struct{}{}
			}
		}
		h.upgrader.CheckOrigin = func(r *http.Request) bool {
			return checkOrigin(r, allowed)
		}
	}
}

// NewHub constructs a realtime hub.
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		subscriptions: make(map[string]map[*connection]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return checkOrigin(r, nil)
			},
		},
		allowStream: IsKnownStream,
		log:         logger.WithModule("realtime"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Serve upgrades the HTTP connection to a WebSocket and registers the client with the provided streams.
func (h *Hub) Serve(streams []string, w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("upgrade failed", zap.Error(err))
		return
	}

	client := newConnection(h, conn)
	h.subscribe(client, streams)

	go client.writeLoop()
	client.readLoop()
}

// BroadcastStream delivers a message to every subscriber listening on the provided stream.
func (h *Hub) BroadcastStream(stream string, message Message) {
	stream = normalizeStream(stream)
	if stream == "" {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	clients := h.subscriptions[stream]
	if len(clients) == 0 {
		return
	}

	message.Stream = stream
	for client := range clients {
		h.enqueue(client, message)
	}
}

// Subscribers returns the number of connections listening on stream.
func (h *Hub) Subscribers(stream string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscriptions[normalizeStream(stream)])
}

func (h *Hub) subscribe(client *connection, streams []string) {
	if len(streams) == 0 {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, stream := range uniqueStreams(streams) {
		if h.allowStream != nil && !h.allowStream(stream) {
			h.log.Debug("ignoring unknown stream", zap.String("stream", stream))
			continue
		}
		if _, exists := client.streams[stream]; exists {
			continue
		}
		if h.subscriptions[stream] == nil {
			h.subscriptions[stream] = make(map[*connection]struct{})
		}

		client.streams[stream] = struct{}{}
		h.subscriptions[stream][client] = struct{}{}
	}
}

func (h *Hub) unsubscribe(client *connection, streams []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, stream := range uniqueStreams(streams) {
		h.removeSubscriptionLocked(client, stream)
	}
}

func (h *Hub) unregister(client *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for stream := range client.streams {
		h.removeSubscriptionLocked(client, stream)
	}
}

func (h *Hub) removeSubscriptionLocked(client *connection, stream string) {
	clients, ok := h.subscriptions[stream]
	if !ok {
		return
	}

	delete(clients, client)
	if len(clients) == 0 {
		delete(h.subscriptions, stream)
	}
	delete(client.streams, stream)
}

// enqueue is called with h.mu held for reading; slow clients are dropped asynchronously.
func (h *Hub) enqueue(client *connection, message Message) {
	select {
	case <-client.done:
	case client.send <- message:
	default:
		h.log.Warn("dropping backpressure client", zap.String("remote", client.remote))
		go client.close()
	}
}

type connection struct {
	hub     *Hub
	socket  *websocket.Conn
	remote  string
	streams map[string]struct{}
	send    chan Message
	done    chan struct{}
	once    sync.Once
}

func newConnection(hub *Hub, conn *websocket.Conn) *connection {
	return &connection{
		hub:     hub,
		socket:  conn,
		remote:  conn.RemoteAddr().String(),
		streams: make(map[string]struct{}),
		send:    make(chan Message, defaultBufferSize),
		done:    make(chan struct{}),
	}
}

func (c *connection) readLoop() {
	defer c.close()

	c.socket.SetReadLimit(maxMessageSize)
	_ = c.socket.SetReadDeadline(time.Now().Add(pongWait))
	c.socket.SetPongHandler(func(string) error {
		_ = c.socket.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, payload, err := c.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Debug("unexpected close", zap.String("remote", c.remote), zap.Error(err))
			}
			return
		}

		if len(payload) == 0 {
			continue
		}

		var ctrl controlMessage
		if err := json.Unmarshal(payload, &ctrl); err != nil {
			c.hub.log.Debug("invalid control payload", zap.String("remote", c.remote), zap.Error(err))
			continue
		}

		switch strings.ToLower(strings.TrimSpace(ctrl.Action)) {
		case "subscribe":
			c.hub.subscribe(c, ctrl.Streams)
		case "unsubscribe":
			c.hub.unsubscribe(c, ctrl.Streams)
		case "ping":
			select {
			case c.send <- Message{Event: "pong"}:
			case <-c.done:
				return
			default:
			}
		default:
			c.hub.log.Debug("unsupported control action", zap.String("action", ctrl.Action))
		}
	}
}

func (c *connection) writeLoop() {
	defer c.close()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.socket.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case message := <-c.send:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteJSON(message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *connection) close() {
	c.once.Do(func() {
		c.hub.unregister(c)
		close(c.done)
		_ = c.socket.Close()
	})
}

func checkOrigin(r *http.Request, allowed map[string]struct{}) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	originHost := strings.ToLower(hostWithoutPort(origin))
	if _, ok := allowed[originHost]; ok {
		return true
	}
	return originHost == strings.ToLower(hostWithoutPort(r.Host)) || isLoopback(originHost)
}

func hostWithoutPort(host string) string {
	host = strings.TrimSpace(host)
	if host == "" {
		return ""
	}

	if strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		parsed, err := http.NewRequest(http.MethodGet, host, nil)
		if err == nil {
			return hostWithoutPort(parsed.URL.Host)
		}
	}

	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}

func isLoopback(host string) bool {
	ip := net.ParseIP(host)
	if ip != nil {
		return ip.IsLoopback()
	}
	return strings.EqualFold(host, "localhost")
}

func normalizeStream(stream string) string {
	return strings.ToLower(strings.TrimSpace(stream))
}

func uniqueStreams(streams []string) []string {
	unique := make(map[string]struct{}, len(streams))
	var result []string
	for _, stream := range streams {
		if stream = normalizeStream(stream); stream != "" {
			if _, exists := unique[stream]; !exists {
				unique[stream] = struct{}{}
				result = append(result, stream)
			}
		}
	}
	return result
}
