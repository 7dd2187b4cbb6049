// Package feed broadcasts watcher events to WebSocket subscribers.
package feed

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/fglog/fglog-go/pkg/fglog/event"
)

const (
	broadcastBuffer = 256
	clientBuffer    = 64
)

// command is a message sent by a subscriber.
type command struct {
	Type  string   `json:"type"`
	Types []string `json:"types,omitempty"`
}

type message struct {
	typ  event.Type
	data []byte
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	mu    sync.RWMutex
	types map[event.Type]bool // nil = all types
}

// Hub fans events out to connected clients. New clients receive the last
// completed show first.
type Hub struct {
	// Token, when set, must be presented as a bearer token or a token
	// query parameter.
	Token string

	// AllowedOrigins lists browser origins, such as
	// "https://overlay.example.com", accepted besides the feed's own host.
	// Requests without an Origin header are always accepted.
	AllowedOrigins []string

	log        *slog.Logger
	broadcast  chan message
	register   chan *client
	unregister chan *client
	done       chan struct{}

	mu      sync.RWMutex
	clients map[*client]struct{}
	last    []byte
}

// NewHub creates a hub. Call Run to start it.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Hub{
		log:        logger,
		broadcast:  make(chan message, broadcastBuffer),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
		clients:    make(map[*client]struct{}),
	}
}

// Run serves the hub until ctx is done, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	defer h.dropAll()

	for {
		select {
		case <-ctx.Done():
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			last := h.last
			h.mu.Unlock()
			h.log.Debug("feed client connected", "clients", h.ClientCount())
			if last != nil {
				c.offer(last)
			}

		case c := <-h.unregister:
			h.drop(c)
			h.log.Debug("feed client disconnected", "clients", h.ClientCount())

		case m := <-h.broadcast:
			h.mu.Lock()
			if m.typ == event.RoundsParsed {
				h.last = m.data
			}
			for c := range h.clients {
				if !c.wants(m.typ) {
					continue
				}
				select {
				case c.send <- m.data:
				default:
					// Slow client.
					close(c.send)
					delete(h.clients, c)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Publish queues ev for every interested client. Events are dropped when
// the hub falls behind.
func (h *Hub) Publish(ev event.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	select {
	case h.broadcast <- message{typ: ev.Type, data: data}:
	case <-h.done:
	default:
		h.log.Warn("feed backlog full, dropping event", "type", ev.Type)
	}
	return nil
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the connection and registers the client.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	upgrader := websocket.Upgrader{CheckOrigin: h.checkOrigin}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("feed upgrade failed", "error", err)
		return
	}

	c := &client{hub: h, conn: conn, send: make(chan []byte, clientBuffer)}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

func (h *Hub) authorized(r *http.Request) bool {
	if h.Token == "" {
		return true
	}
	if bearer, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok && tokenEqual(bearer, h.Token) {
		return true
	}
	return tokenEqual(r.URL.Query().Get("token"), h.Token)
}

func tokenEqual(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

// checkOrigin accepts non-browser clients, pages served from the feed's
// own host and the configured origins.
func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	return slices.ContainsFunc(h.AllowedOrigins, func(o string) bool {
		return strings.EqualFold(strings.TrimSuffix(o, "/"), origin)
	})
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) dropAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

func (c *client) wants(t event.Type) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.types == nil || c.types[t]
}

func (c *client) offer(data []byte) {
	select {
	case c.send <- data:
	default:
	}
}

func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Debug("feed read failed", "error", err)
			}
			return
		}
		c.handle(msg)
	}
}

func (c *client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// handle applies a subscribe or unsubscribe command. Unknown type names are
// ignored.
func (c *client) handle(msg []byte) {
	var cmd command
	if err := json.Unmarshal(msg, &cmd); err != nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	switch cmd.Type {
	case "subscribe":
		if c.types == nil {
			c.types = make(map[event.Type]bool)
		}
		for _, name := range cmd.Types {
			if t, ok := event.ParseType(name); ok {
				c.types[t] = true
			}
		}
	case "unsubscribe":
		if c.types == nil {
			c.types = make(map[event.Type]bool)
			for _, name := range event.TypeNames() {
				c.types[event.Type(name)] = true
			}
		}
		for _, name := range cmd.Types {
			if t, ok := event.ParseType(name); ok {
				delete(c.types, t)
			}
		}
	}
}
