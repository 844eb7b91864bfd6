package ws

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lockforge/backend/internal/protocol"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 65536
	sendBufferSize = 256
)

// Client represents one connected WebSocket peer. playerID and matchID are
// bound lazily: a fresh connection is anonymous until it queues or
// reconnects into a match.
type Client struct {
	conn *websocket.Conn
	send chan []byte

	authenticated bool
	userID        string
	playerID      string
	matchID       string

	closeOnce sync.Once
	closed    chan struct{}
}

func newClient(conn *websocket.Conn, userID string, authenticated bool) *Client {
	return &Client{
		conn:          conn,
		send:          make(chan []byte, sendBufferSize),
		userID:        userID,
		authenticated: authenticated,
		closed:        make(chan struct{}),
	}
}

// close tears the connection down once; safe from any goroutine.
func (c *Client) close(reason string) {
	c.closeOnce.Do(func() {
		if c.conn != nil {
			if reason != "" {
				c.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason),
					time.Now().Add(writeWait))
			}
			c.conn.Close()
		}
		close(c.closed)
	})
}

// sendEvent queues one encoded event frame, dropping it if the peer's
// buffer is full. One slow recipient never stalls the rest of a room.
func (c *Client) sendEvent(eventType string, payload interface{}) {
	data, err := protocol.Encode(eventType, payload)
	if err != nil {
		log.Printf("[WS] encode %s failed: %v", eventType, err)
		return
	}
	c.enqueue(data)
}

func (c *Client) enqueue(data []byte) {
	select {
	case c.send <- data:
	default:
		log.Printf("[WS] send buffer full for player %q, dropping frame", c.playerID)
	}
}

func (c *Client) sendError(message string) {
	c.sendEvent(protocol.EventError, protocol.ErrorMessage{Message: message})
}

// Hub maps bound playerIDs to live connections and implements game.Sender.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client // playerID -> client
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]*Client)}
}

// Bind associates a player id with a connection, replacing and closing any
// previous connection for the same player (reconnect semantics).
func (h *Hub) Bind(playerID string, c *Client) {
	h.mu.Lock()
	old, exists := h.clients[playerID]
	h.clients[playerID] = c
	c.playerID = playerID
	h.mu.Unlock()

	if exists && old != c {
		log.Printf("[WS] player %s rebinding - closing old connection", playerID)
		old.close("replaced by new connection")
	}
}

// Unbind removes a connection's binding if it is still the current one.
// Returns false when the player already rebound elsewhere, in which case
// the caller must not treat the player as disconnected.
func (h *Hub) Unbind(c *Client) bool {
	if c.playerID == "" {
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if cur, ok := h.clients[c.playerID]; ok && cur == c {
		delete(h.clients, c.playerID)
		return true
	}
	return false
}

// SendToPlayer implements game.Sender. Unbound players are dropped
// silently: a disconnected room member simply misses frames.
func (h *Hub) SendToPlayer(playerID, eventType string, payload interface{}) {
	data, err := protocol.Encode(eventType, payload)
	if err != nil {
		log.Printf("[WS] encode %s failed: %v", eventType, err)
		return
	}

	h.mu.RLock()
	client, ok := h.clients[playerID]
	h.mu.RUnlock()
	if ok {
		client.enqueue(data)
	}
}

// Broadcast implements game.Sender: the payload is encoded exactly once so
// every recipient receives a byte-equal frame.
func (h *Hub) Broadcast(playerIDs []string, eventType string, payload interface{}) {
	data, err := protocol.Encode(eventType, payload)
	if err != nil {
		log.Printf("[WS] encode %s failed: %v", eventType, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, playerID := range playerIDs {
		if client, ok := h.clients[playerID]; ok {
			client.enqueue(data)
		}
	}
}

// ConnectedCount reports how many bound connections exist.
func (h *Hub) ConnectedCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// writePump drains the send channel onto the wire and keeps the connection
// alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.closed:
			return
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("[WS] write error for player %q: %v", c.playerID, err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("[WS] ping error for player %q: %v", c.playerID, err)
				return
			}
		}
	}
}

// readPump reads inbound frames and hands them to the gateway. Pongs count
// as activity: no explicit heartbeat message is required of clients.
func (c *Client) readPump(g *Gateway) {
	defer func() {
		g.handleDisconnect(c)
		c.close("")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		g.touch(c)
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Printf("[WS] unexpected close for player %q: %v", c.playerID, err)
			}
			return
		}
		g.dispatch(c, message)
	}
}
