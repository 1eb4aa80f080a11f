package gateway

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/brandon-schabel/td-engine-sub006/internal/sim"
)

// Hub fans engine events out to websocket clients. Broadcast is called from
// the tick goroutine and must never block on a slow client, so each client
// gets a buffered queue and its own write pump; a client that falls behind
// its buffer is dropped.
type Hub struct {
	log         *zap.Logger
	writeWait   time.Duration
	eventBuffer int

	mu      sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan sim.Envelope
}

func NewHub(writeWait time.Duration, eventBuffer int, log *zap.Logger) *Hub {
	return &Hub{
		log:         log,
		writeWait:   writeWait,
		eventBuffer: eventBuffer,
		clients:     make(map[*client]struct{}),
	}
}

// Register adds a connection and starts its write pump. The first message a
// client receives is the snapshot it joined on.
func (h *Hub) Register(conn *websocket.Conn, snapshot sim.Snapshot) {
	c := &client{
		conn: conn,
		send: make(chan sim.Envelope, h.eventBuffer),
	}
	c.send <- sim.Envelope{Type: "snapshot", Data: snapshot}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go h.writePump(c)
	go h.readPump(c)
}

// Broadcast queues ev on every client. Non-blocking; a full queue drops the
// client.
func (h *Hub) Broadcast(ev sim.Envelope) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- ev:
		default:
			h.log.Warn("dropping slow websocket client",
				zap.String("remote", c.conn.RemoteAddr().String()))
			delete(h.clients, c)
			close(c.send)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close drops every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) writePump(c *client) {
	defer c.conn.Close()
	for ev := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(h.writeWait))
		if err := c.conn.WriteJSON(ev); err != nil {
			h.unregister(c)
			return
		}
	}
}

// readPump discards inbound frames; commands arrive over HTTP. Reading is
// still required to notice closes and answer pings.
func (h *Hub) readPump(c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.unregister(c)
			return
		}
	}
}
