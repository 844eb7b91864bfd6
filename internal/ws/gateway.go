package ws

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/lockforge/backend/internal/auth"
	"github.com/lockforge/backend/internal/config"
	"github.com/lockforge/backend/internal/game"
	"github.com/lockforge/backend/internal/protocol"
)

// Gateway translates wire events into calls on the matchmaker and match
// rooms. It owns no game state: per-connection it tracks only the binding
// {authenticated, userId, playerId, matchId}.
type Gateway struct {
	cfg        *config.Config
	hub        *Hub
	matchmaker *game.Matchmaker
	registry   *game.Registry
	upgrader   websocket.Upgrader
}

func NewGateway(cfg *config.Config, hub *Hub, matchmaker *game.Matchmaker, registry *game.Registry) *Gateway {
	g := &Gateway{
		cfg:        cfg,
		hub:        hub,
		matchmaker: matchmaker,
		registry:   registry,
	}
	g.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     g.checkOrigin,
	}
	return g
}

func (g *Gateway) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true // non-browser clients
	}
	for _, allowed := range g.cfg.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// HandleWebSocket upgrades a client connection. When an auth secret is
// configured, the `token` query parameter must carry a valid JWT; its
// subject becomes the connection's user id. Without a secret the server
// runs open (development mode).
func (g *Gateway) HandleWebSocket(c *gin.Context) {
	userID := ""
	authenticated := false
	if g.cfg.AuthJWTSecret != "" {
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "token required"})
			return
		}
		uid, err := auth.Validate(g.cfg.AuthJWTSecret, token)
		if err != nil {
			c.JSON(http.StatusForbidden, gin.H{"error": "invalid token"})
			return
		}
		userID = uid
		authenticated = true
	}

	conn, err := g.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WS] upgrade error: %v", err)
		return
	}

	client := newClient(conn, userID, authenticated)
	go client.writePump()
	go client.readPump(g)
}

// dispatch routes one inbound frame. Any frame from a player bound to a
// room counts as activity before the event itself is handled.
func (g *Gateway) dispatch(c *Client, raw []byte) {
	var env protocol.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.sendError("invalid message")
		return
	}

	g.touch(c)

	switch env.Type {
	case protocol.EventQueueJoin:
		g.handleQueueJoin(c, env.Data)
	case protocol.EventQueueLeave:
		g.handleQueueLeave(c, env.Data)
	case protocol.EventSubmitCommands:
		g.handleSubmitCommands(c, env.Data)
	case protocol.EventStateHash:
		g.handleStateHash(c, env.Data)
	case protocol.EventReconnectMatch:
		g.handleReconnectMatch(c, env.Data)
	default:
		c.sendError("unknown message type")
	}
}

// touch forwards liveness to the room the connection is bound to.
func (g *Gateway) touch(c *Client) {
	if c.playerID == "" {
		return
	}
	if room := g.roomFor(c); room != nil && !room.Finished() {
		room.UpdateActivity(c.playerID)
	}
}

// roomFor resolves the connection's room, caching the match id binding.
func (g *Gateway) roomFor(c *Client) *game.Room {
	if c.matchID != "" {
		if room := g.registry.RoomForMatch(c.matchID); room != nil {
			return room
		}
		c.matchID = ""
	}
	room := g.registry.RoomForPlayer(c.playerID)
	if room != nil {
		c.matchID = room.ID
	}
	return room
}

// identityAllowed enforces that an authenticated connection only acts for
// the player id its token named.
func (g *Gateway) identityAllowed(c *Client, playerID string) bool {
	return !c.authenticated || c.userID == playerID
}

func (g *Gateway) handleQueueJoin(c *Client, data json.RawMessage) {
	var req protocol.QueueJoin
	if err := json.Unmarshal(data, &req); err != nil || req.PlayerID == "" {
		c.sendError("queue-join requires playerId")
		return
	}
	if !g.identityAllowed(c, req.PlayerID) {
		c.sendError("playerId does not match auth token")
		return
	}

	username := req.Username
	if username == "" {
		username = req.PlayerID
	}

	// Bind before joining so a match formed in the same matchmaking
	// interval can already reach this connection.
	g.hub.Bind(req.PlayerID, c)

	position, waitMs, err := g.matchmaker.JoinQueue(req.PlayerID, username)
	if err != nil {
		c.sendError(err.Error())
		return
	}

	c.sendEvent(protocol.EventQueueStatus, protocol.QueueStatus{
		Position: position,
		WaitTime: waitMs,
	})
}

func (g *Gateway) handleQueueLeave(c *Client, data json.RawMessage) {
	var req protocol.QueueLeave
	if err := json.Unmarshal(data, &req); err != nil || req.PlayerID == "" {
		c.sendError("queue-leave requires playerId")
		return
	}
	if !g.identityAllowed(c, req.PlayerID) {
		c.sendError("playerId does not match auth token")
		return
	}

	// Removal is silent when absent; the ack is unconditional.
	g.matchmaker.LeaveQueue(req.PlayerID)
	c.sendEvent(protocol.EventQueueLeft, protocol.QueueLeft{PlayerID: req.PlayerID})
}

func (g *Gateway) handleSubmitCommands(c *Client, data json.RawMessage) {
	var req protocol.SubmitCommands
	if err := json.Unmarshal(data, &req); err != nil {
		c.sendError("invalid submit-commands payload")
		return
	}

	room := g.boundRoom(c)
	if room == nil {
		c.sendEvent(protocol.EventSubmitCommandsAck, protocol.SubmitCommandsAck{
			Tick:     req.Tick,
			Accepted: false,
			Reason:   "no active match",
		})
		return
	}
	room.SubmitCommands(c.playerID, req.Tick, req.Commands)
}

func (g *Gateway) handleStateHash(c *Client, data json.RawMessage) {
	var req protocol.StateHash
	if err := json.Unmarshal(data, &req); err != nil || req.Hash == "" {
		return
	}
	if room := g.boundRoom(c); room != nil {
		room.SubmitStateHash(c.playerID, req.Tick, req.Hash)
	}
}

// boundRoom resolves the live room for an in-match connection, or nil.
func (g *Gateway) boundRoom(c *Client) *game.Room {
	if c.playerID == "" {
		return nil
	}
	room := g.roomFor(c)
	if room == nil || room.Finished() {
		return nil
	}
	return room
}

func (g *Gateway) handleReconnectMatch(c *Client, data json.RawMessage) {
	var req protocol.ReconnectMatch
	if err := json.Unmarshal(data, &req); err != nil || req.PlayerID == "" || req.MatchID == "" {
		c.sendEvent(protocol.EventReconnectStatus, protocol.ReconnectStatus{
			Success: false,
			Reason:  "reconnect-match requires playerId and matchId",
		})
		return
	}
	if !g.identityAllowed(c, req.PlayerID) {
		c.sendEvent(protocol.EventReconnectStatus, protocol.ReconnectStatus{
			Success: false,
			Reason:  "playerId does not match auth token",
		})
		return
	}

	room := g.registry.RoomForMatch(req.MatchID)
	if room == nil {
		c.sendEvent(protocol.EventReconnectStatus, protocol.ReconnectStatus{
			Success: false,
			Reason:  "unknown match",
		})
		return
	}
	if !room.HasPlayer(req.PlayerID) {
		c.sendEvent(protocol.EventReconnectStatus, protocol.ReconnectStatus{
			Success: false,
			Reason:  "not a match member",
		})
		return
	}
	if room.Finished() {
		c.sendEvent(protocol.EventReconnectStatus, protocol.ReconnectStatus{
			Success: false,
			Reason:  "match already ended",
		})
		return
	}

	g.hub.Bind(req.PlayerID, c)
	c.matchID = room.ID
	room.HandleReconnect(req.PlayerID)
}

// handleDisconnect fans a dropped connection out to the queue and the
// room. A connection that was already replaced by a reconnect is ignored.
func (g *Gateway) handleDisconnect(c *Client) {
	if !g.hub.Unbind(c) {
		return
	}

	g.matchmaker.HandleDisconnect(c.playerID)

	if room := g.registry.RoomForPlayer(c.playerID); room != nil && !room.Finished() {
		room.HandleDisconnect(c.playerID)
	}
}
