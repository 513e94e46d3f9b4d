package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/princepal-dev/Prompt-Wars-Snow-Bros/internal/hud"
)

const (
	// MaxWSConnectionsTotal is the maximum number of WebSocket connections allowed.
	MaxWSConnectionsTotal = 200
	// MaxWSConnectionsPerIP is the maximum WebSocket connections per IP.
	MaxWSConnectionsPerIP = 5

	sendBuffer = 64
	writeWait  = 5 * time.Second
	pingPeriod = 30 * time.Second
)

// Hub event names.
const (
	EventState = "hud:state"
	EventPatch = "hud:patch"
)

// Envelope is one message to overlay clients.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type wsClient struct {
	conn *websocket.Conn
	ip   string
	send chan []byte
}

// Hub fans HUD patches out to WebSocket clients. New clients first receive
// the merged overlay state, then every later patch in order.
type Hub struct {
	mu      sync.Mutex
	state   hud.State
	clients map[*wsClient]struct{}
	perIP   map[string]int
	closed  bool

	upgrader websocket.Upgrader
	metrics  *Metrics
	logger   *log.Logger
}

// NewHub creates a hub accepting browser origins that match origins.
func NewHub(origins []string, metrics *Metrics, logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	h := &Hub{
		clients: make(map[*wsClient]struct{}),
		perIP:   make(map[string]int),
		metrics: metrics,
		logger:  logger,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || originAllowed(origins, origin) {
				return true
			}
			h.logger.Warn("websocket origin rejected", "origin", origin)
			h.reject("origin")
			return false
		},
	}
	return h
}

// originAllowed matches exact origins, "*" and "scheme://host:*" patterns.
func originAllowed(origins []string, origin string) bool {
	for _, o := range origins {
		switch {
		case o == "*" || o == origin:
			return true
		case strings.HasSuffix(o, ":*") && strings.HasPrefix(origin, strings.TrimSuffix(o, "*")):
			return true
		}
	}
	return false
}

func (h *Hub) reject(reason string) {
	if h.metrics != nil {
		h.metrics.RecordRejected(reason)
	}
}

// Publish merges a patch into the overlay state and queues it for every
// client. Clients too slow to keep up are dropped. Publish never blocks, so
// it can be used directly as an engine observer.
func (h *Hub) Publish(p hud.Patch) {
	data, err := json.Marshal(Envelope{Event: EventPatch, Data: p})
	if err != nil {
		h.logger.Error("cannot encode hud patch", "err", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.state.Apply(p)
	for c := range h.clients {
		select {
		case c.send <- data:
			if h.metrics != nil {
				h.metrics.wsMessages.Inc()
			}
		default:
			h.logger.Warn("dropping slow hud client", "ip", c.ip)
			h.removeLocked(c)
		}
	}
}

// State returns the merged overlay state.
func (h *Hub) State() hud.State {
	h.mu.Lock()
	defer h.mu.Unlock()
	s := h.state
	if s.Boss != nil {
		b := *s.Boss
		s.Boss = &b
	}
	if s.Theme != nil {
		t := *s.Theme
		s.Theme = &t
	}
	return s
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// HandleWebSocket upgrades the request and streams HUD events to it.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ip := ClientIP(r)

	h.mu.Lock()
	switch {
	case h.closed:
		h.mu.Unlock()
		http.Error(w, "Server shutting down", http.StatusServiceUnavailable)
		return
	case len(h.clients) >= MaxWSConnectionsTotal:
		h.mu.Unlock()
		h.reject("ws_total_limit")
		http.Error(w, "Too many connections", http.StatusServiceUnavailable)
		return
	case h.perIP[ip] >= MaxWSConnectionsPerIP:
		h.mu.Unlock()
		h.reject("ws_ip_limit")
		http.Error(w, "Too many connections from your IP", http.StatusTooManyRequests)
		return
	}
	// Reserve the slot before the upgrade.
	h.perIP[ip]++
	h.mu.Unlock()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", "ip", ip, "err", err)
		h.mu.Lock()
		h.releaseLocked(ip)
		h.mu.Unlock()
		return
	}

	c := &wsClient{conn: conn, ip: ip, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	snapshot, _ := json.Marshal(Envelope{Event: EventState, Data: h.state})
	c.send <- snapshot
	h.clients[c] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("hud client connected", "ip", ip, "clients", count)
	if h.metrics != nil {
		h.metrics.wsConnections.Set(float64(count))
	}

	go h.writePump(c)
	go h.readPump(c)
}

// readPump discards client messages and unregisters on disconnect.
func (h *Hub) readPump(c *wsClient) {
	defer h.remove(c)
	c.conn.SetReadLimit(1024)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *wsClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) remove(c *wsClient) {
	h.mu.Lock()
	h.removeLocked(c)
	count := len(h.clients)
	h.mu.Unlock()
	if h.metrics != nil {
		h.metrics.wsConnections.Set(float64(count))
	}
}

func (h *Hub) removeLocked(c *wsClient) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	h.releaseLocked(c.ip)
}

func (h *Hub) releaseLocked(ip string) {
	if h.perIP[ip] <= 1 {
		delete(h.perIP, ip)
		return
	}
	h.perIP[ip]--
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		h.removeLocked(c)
	}
}
