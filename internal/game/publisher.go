package game

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"
)

// matchEventsChannel is the pub/sub channel external consumers (ops
// tooling, spectator feeds) can subscribe to for match lifecycle events.
const matchEventsChannel = "match_events"

// Publisher mirrors match lifecycle events onto Redis. It is optional: a
// nil Publisher is valid and every method is a no-op on it, so callers
// never have to branch on whether Redis is configured.
type Publisher struct {
	rdb *redis.Client
}

// NewPublisher wraps a Redis client. Pass nil to disable publishing.
func NewPublisher(rdb *redis.Client) *Publisher {
	if rdb == nil {
		return nil
	}
	return &Publisher{rdb: rdb}
}

func (p *Publisher) publish(payload map[string]interface{}) {
	if p == nil || p.rdb == nil {
		return
	}
	b, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[REDIS] marshal event failed: %v", err)
		return
	}
	if err := p.rdb.Publish(context.Background(), matchEventsChannel, b).Err(); err != nil {
		log.Printf("[REDIS] publish failed: %v", err)
	}
}

// MatchCreated announces a freshly constructed room.
func (p *Publisher) MatchCreated(matchID, mode string, playerIDs []string) {
	p.publish(map[string]interface{}{
		"type":     "match_created",
		"match_id": matchID,
		"mode":     mode,
		"players":  playerIDs,
	})
}

// MatchEnded announces a terminated room.
func (p *Publisher) MatchEnded(matchID, reason string) {
	p.publish(map[string]interface{}{
		"type":     "match_ended",
		"match_id": matchID,
		"reason":   reason,
	})
}

// DesyncDetected announces a state hash disagreement.
func (p *Publisher) DesyncDetected(matchID string, tick int64) {
	p.publish(map[string]interface{}{
		"type":     "desync_detected",
		"match_id": matchID,
		"tick":     tick,
	})
}

// QueueSize keeps a live gauge of the matchmaking queue length.
func (p *Publisher) QueueSize(n int) {
	if p == nil || p.rdb == nil {
		return
	}
	if err := p.rdb.Set(context.Background(), "lockstep:queue_size", n, 0).Err(); err != nil {
		log.Printf("[REDIS] queue gauge failed: %v", err)
	}
}
