package game

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/lockforge/backend/internal/config"
)

// Matchmaking errors surfaced to the client verbatim.
var (
	ErrAlreadyQueued  = errors.New("Already in queue")
	ErrAlreadyInMatch = errors.New("Already in a match")
)

// QueueEntry is one waiting player.
type QueueEntry struct {
	PlayerID string
	Username string
	JoinedAt time.Time
}

// Matchmaker holds the insertion-ordered waiting queue and periodically
// drains its head into match rooms for the configured game mode.
type Matchmaker struct {
	mu       sync.Mutex
	cfg      *config.Config
	mode     Mode
	registry *Registry
	pub      *Publisher
	queue    []QueueEntry
	queued   map[string]struct{}
}

func NewMatchmaker(cfg *config.Config, mode Mode, registry *Registry, pub *Publisher) *Matchmaker {
	return &Matchmaker{
		cfg:      cfg,
		mode:     mode,
		registry: registry,
		pub:      pub,
		queued:   make(map[string]struct{}),
	}
}

// JoinQueue appends a player and returns their 1-indexed position plus the
// estimated wait in milliseconds. A player already queued or already in an
// active room is rejected.
func (mm *Matchmaker) JoinQueue(playerID, username string) (position int, waitMs int64, err error) {
	if mm.registry.RoomForPlayer(playerID) != nil {
		return 0, 0, ErrAlreadyInMatch
	}

	mm.mu.Lock()
	defer mm.mu.Unlock()

	if _, ok := mm.queued[playerID]; ok {
		return 0, 0, ErrAlreadyQueued
	}

	mm.queue = append(mm.queue, QueueEntry{
		PlayerID: playerID,
		Username: username,
		JoinedAt: time.Now(),
	})
	mm.queued[playerID] = struct{}{}
	mm.pub.QueueSize(len(mm.queue))

	return len(mm.queue), mm.estimateWaitLocked(), nil
}

// estimateWaitLocked is a best effort: how many matchmaking intervals the
// current queue needs to drain, floored at one second.
func (mm *Matchmaker) estimateWaitLocked() int64 {
	intervals := (len(mm.queue) + mm.mode.PlayersPerMatch - 1) / mm.mode.PlayersPerMatch
	est := int64(intervals) * int64(mm.cfg.MatchmakingIntervalMs)
	if est < 1000 {
		est = 1000
	}
	return est
}

// LeaveQueue removes a player if present; absent players are a no-op.
func (mm *Matchmaker) LeaveQueue(playerID string) bool {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	return mm.removeLocked(playerID)
}

// HandleDisconnect dequeues a player whose connection dropped.
func (mm *Matchmaker) HandleDisconnect(playerID string) {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	if mm.removeLocked(playerID) {
		log.Printf("[MATCHMAKER] removed disconnected player %s from queue", playerID)
	}
}

func (mm *Matchmaker) removeLocked(playerID string) bool {
	if _, ok := mm.queued[playerID]; !ok {
		return false
	}
	delete(mm.queued, playerID)
	for i, entry := range mm.queue {
		if entry.PlayerID == playerID {
			mm.queue = append(mm.queue[:i], mm.queue[i+1:]...)
			break
		}
	}
	mm.pub.QueueSize(len(mm.queue))
	return true
}

// ModeInfo returns the configured game mode.
func (mm *Matchmaker) ModeInfo() Mode {
	return mm.mode
}

// QueueLen reports the number of waiting players.
func (mm *Matchmaker) QueueLen() int {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	return len(mm.queue)
}

// Run drives the periodic drain until the context is cancelled.
func (mm *Matchmaker) Run(ctx context.Context) {
	interval := time.Duration(mm.cfg.MatchmakingIntervalMs) * time.Millisecond
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("[MATCHMAKER] worker started (mode=%s interval=%v)", mm.mode.Name, interval)

	for {
		select {
		case <-ctx.Done():
			log.Printf("[MATCHMAKER] worker stopped")
			return
		case <-ticker.C:
			mm.drainQueue()
		}
	}
}

// drainQueue forms as many full matches as the queue head allows, strictly
// in insertion order.
func (mm *Matchmaker) drainQueue() {
	for {
		room := mm.formMatch()
		if room == nil {
			return
		}
		room.Start()
	}
}

func (mm *Matchmaker) formMatch() *Room {
	mm.mu.Lock()
	defer mm.mu.Unlock()

	need := mm.mode.PlayersPerMatch
	if len(mm.queue) < need {
		return nil
	}

	seats := make([]RoomSeat, 0, need)
	seen := make(map[string]struct{}, need)
	for len(seats) < need && len(mm.queue) > 0 {
		entry := mm.queue[0]
		mm.queue = mm.queue[1:]
		delete(mm.queued, entry.PlayerID)

		// The queued set should make this impossible; skip-and-log keeps
		// a corrupt entry from producing a self-match.
		if _, dup := seen[entry.PlayerID]; dup {
			log.Printf("[MATCHMAKER] skipping duplicate queue entry for player %s", entry.PlayerID)
			continue
		}
		seen[entry.PlayerID] = struct{}{}
		seats = append(seats, RoomSeat{PlayerID: entry.PlayerID, Username: entry.Username})
	}
	if len(seats) < need {
		// Duplicates thinned the head below a full match; requeue what we
		// took, preserving order.
		requeued := make([]QueueEntry, 0, len(seats)+len(mm.queue))
		for _, seat := range seats {
			requeued = append(requeued, QueueEntry{PlayerID: seat.PlayerID, Username: seat.Username, JoinedAt: time.Now()})
			mm.queued[seat.PlayerID] = struct{}{}
		}
		mm.queue = append(requeued, mm.queue...)
		return nil
	}

	mm.pub.QueueSize(len(mm.queue))

	room := mm.registry.CreateRoom(mm.mode, seats)
	log.Printf("[MATCHMAKER] match created: %s (mode=%s players=%d queued=%d)",
		room.ID, mm.mode.Name, need, len(mm.queue))
	return room
}
