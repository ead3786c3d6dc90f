package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin checking is delegated to the CORS middleware in front.
		return true
	},
}

// envelope is the wire format pushed to clients.
type envelope struct {
	Channel   string    `json:"channel"`
	Payload   any       `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

// Hub fans websocket messages out to connected clients. A user may hold
// several connections (phone and browser); private sends reach all of them.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	byUser  map[string]map[*client]struct{}
	logger  *zap.SugaredLogger
}

type client struct {
	userID string
	conn   *websocket.Conn
	send   chan []byte
}

func NewHub(logger *zap.SugaredLogger) *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		byUser:  make(map[string]map[*client]struct{}),
		logger:  logger,
	}
}

// SendToUser delivers a payload to every live connection of one user. A user
// with no connections is not an error: push notification is best-effort and
// offline users simply miss the message.
func (h *Hub) SendToUser(_ context.Context, userID, channel string, payload any) error {
	data, err := marshalEnvelope(channel, payload)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.byUser[userID] {
		h.offer(c, data)
	}
	return nil
}

// Broadcast delivers a payload to every connected client.
func (h *Hub) Broadcast(_ context.Context, channel string, payload any) error {
	data, err := marshalEnvelope(channel, payload)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		h.offer(c, data)
	}
	return nil
}

// offer enqueues without blocking; a full buffer drops the message for that
// connection rather than stalling the sender.
func (h *Hub) offer(c *client, data []byte) {
	select {
	case c.send <- data:
	default:
		h.logger.Warnw("Dropping notification for slow client", "user_id", c.userID)
	}
}

func marshalEnvelope(channel string, payload any) ([]byte, error) {
	data, err := json.Marshal(envelope{Channel: channel, Payload: payload, Timestamp: time.Now()})
	if err != nil {
		return nil, fmt.Errorf("marshal notification: %w", err)
	}
	return data, nil
}

// ServeWS upgrades an HTTP request to a websocket connection bound to userID.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Errorw("Websocket upgrade failed", "error", err)
		return
	}

	c := &client{userID: userID, conn: conn, send: make(chan []byte, sendBufferSize)}
	h.register(c)

	go c.writePump(h)
	go c.readPump(h)
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
	if h.byUser[c.userID] == nil {
		h.byUser[c.userID] = make(map[*client]struct{})
	}
	h.byUser[c.userID][c] = struct{}{}
	h.logger.Infow("Client connected", "user_id", c.userID)
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	delete(h.byUser[c.userID], c)
	if len(h.byUser[c.userID]) == 0 {
		delete(h.byUser, c.userID)
	}
	close(c.send)
	h.logger.Infow("Client disconnected", "user_id", c.userID)
}

// ConnectedUsers returns how many distinct users hold live connections.
func (h *Hub) ConnectedUsers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byUser)
}

func (c *client) writePump(h *Hub) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
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

// readPump discards inbound frames; the hub is push-only. It exists to
// process control frames and to notice the peer going away.
func (c *client) readPump(h *Hub) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
