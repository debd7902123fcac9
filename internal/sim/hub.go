package sim

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"robofleet-sim/internal/telemetry"
)

const (
	clientBuffer = 256
	writeWait    = 5 * time.Second
)

// Hub streams updates to websocket subscribers. A subscriber may restrict
// the stream to one fleet with ?fleet=. Slow subscribers are disconnected
// instead of blocking the simulation.
type Hub struct {
	mu       sync.Mutex
	clients  map[*wsClient]struct{}
	log      *slog.Logger
	upgrader websocket.Upgrader
}

type wsClient struct {
	conn  *websocket.Conn
	fleet string
	send  chan []byte
}

// NewHub creates an empty hub.
func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		clients:  make(map[*wsClient]struct{}),
		log:      log.With("component", "hub"),
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
	}
}

// ServeHTTP upgrades the request and registers the subscriber.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", "err", err)
		return
	}
	c := &wsClient{conn: conn, fleet: r.URL.Query().Get("fleet"), send: make(chan []byte, clientBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.log.Debug("subscriber connected", "fleet_id", c.fleet, "remote", r.RemoteAddr)

	go h.writePump(c)
	go h.readPump(c)
}

// readPump discards client messages and notices disconnects.
func (h *Hub) readPump(c *wsClient) {
	defer h.drop(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *wsClient) {
	defer c.conn.Close()
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.drop(c)
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (h *Hub) drop(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// Clients returns the number of connected subscribers.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Write broadcasts an update to every matching subscriber.
func (h *Hub) Write(u telemetry.Update) error {
	b, err := json.Marshal(u)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if c.fleet != "" && c.fleet != u.Fleet() {
			continue
		}
		select {
		case c.send <- b:
		default:
			h.log.Warn("dropping slow subscriber", "fleet_id", c.fleet)
			delete(h.clients, c)
			close(c.send)
		}
	}
	return nil
}

// Close disconnects every subscriber.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
	return nil
}
