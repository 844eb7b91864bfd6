package game

import (
	"crypto/rand"
	"encoding/hex"
	mrand "math/rand/v2"
	"sync"
	"time"

	"github.com/lockforge/backend/internal/config"
)

// Registry owns every active room and the process-wide player -> room
// index consulted on reconnection. Rooms are created here and deregister
// themselves through the finished callback; nothing else removes them.
type Registry struct {
	mu         sync.RWMutex
	cfg        *config.Config
	sender     Sender
	pub        *Publisher
	rooms      map[string]*Room // matchID -> room
	playerRoom map[string]*Room // playerID -> room
}

func NewRegistry(cfg *config.Config, sender Sender, pub *Publisher) *Registry {
	return &Registry{
		cfg:        cfg,
		sender:     sender,
		pub:        pub,
		rooms:      make(map[string]*Room),
		playerRoom: make(map[string]*Room),
	}
}

// generateToken produces a secure random hex token.
func generateToken(length int) string {
	bytes := make([]byte, length)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

func generateMatchID() string {
	return "match_" + generateToken(8)
}

// CreateRoom constructs and indexes a room for the given seats. The caller
// starts it.
func (reg *Registry) CreateRoom(mode Mode, seats []RoomSeat) *Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	id := generateMatchID()
	room := NewRoom(id, mrand.Uint32(), mode, seats, reg.cfg, reg.sender, reg.pub, reg.roomFinished)

	reg.rooms[id] = room
	playerIDs := room.PlayerIDs()
	for _, pid := range playerIDs {
		reg.playerRoom[pid] = room
	}

	reg.pub.MatchCreated(id, mode.Name, playerIDs)
	return room
}

// RoomForPlayer resolves the active room a player belongs to, or nil.
func (reg *Registry) RoomForPlayer(playerID string) *Room {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return reg.playerRoom[playerID]
}

// RoomForMatch resolves a room by match id, or nil. Finished rooms stay
// resolvable for the reconnect grace window so late reconnect-match
// requests get a proper rejection instead of "unknown match".
func (reg *Registry) RoomForMatch(matchID string) *Room {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return reg.rooms[matchID]
}

// ActiveMatches reports how many rooms are currently indexed.
func (reg *Registry) ActiveMatches() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.rooms)
}

// StopAll terminates every room, used on server shutdown.
func (reg *Registry) StopAll(reason string) {
	reg.mu.RLock()
	rooms := make([]*Room, 0, len(reg.rooms))
	for _, r := range reg.rooms {
		rooms = append(rooms, r)
	}
	reg.mu.RUnlock()

	for _, r := range rooms {
		r.Stop(reason)
	}
}

// roomFinished drops the player index right away (players may requeue) and
// keeps the match id resolvable until the reconnect grace window passes.
func (reg *Registry) roomFinished(room *Room) {
	reg.mu.Lock()
	for _, pid := range room.PlayerIDs() {
		if reg.playerRoom[pid] == room {
			delete(reg.playerRoom, pid)
		}
	}
	reg.mu.Unlock()

	grace := time.Duration(reg.cfg.ReconnectGracePeriodMs) * time.Millisecond
	time.AfterFunc(grace, func() {
		reg.mu.Lock()
		if reg.rooms[room.ID] == room {
			delete(reg.rooms, room.ID)
		}
		reg.mu.Unlock()
	})
}
