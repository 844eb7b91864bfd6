package game

import "time"

// ActivityKind classifies what the tracker observed about a player.
type ActivityKind int

const (
	// ActivityLagging fires once per lag episode.
	ActivityLagging ActivityKind = iota
	// ActivityTimeout fires when a player has been silent past the
	// disconnect threshold; the player stops being tracked until their
	// next message.
	ActivityTimeout
)

// ActivityEvent is one liveness observation produced by Check.
type ActivityEvent struct {
	PlayerID string
	Kind     ActivityKind
	LastSeen time.Time
	Silence  time.Duration
}

// ActivityTracker watches per-player last-seen timestamps and raises lag
// and timeout events. Thresholds come from tick counts converted to real
// time. Owned by the room goroutine.
type ActivityTracker struct {
	lastSeen  map[string]time.Time
	lagging   map[string]struct{}
	lagAfter  time.Duration
	deadAfter time.Duration
	now       func() time.Time
}

// NewActivityTracker builds a tracker with the given thresholds.
func NewActivityTracker(lagAfter, deadAfter time.Duration) *ActivityTracker {
	return &ActivityTracker{
		lastSeen:  make(map[string]time.Time),
		lagging:   make(map[string]struct{}),
		lagAfter:  lagAfter,
		deadAfter: deadAfter,
		now:       time.Now,
	}
}

// Touch records activity for a player. Any inbound message counts, the
// transport's keep-alive included. A lagging player goes quiet-clean: the
// flag clears without an event.
func (t *ActivityTracker) Touch(playerID string) {
	t.lastSeen[playerID] = t.now()
	delete(t.lagging, playerID)
}

// Forget stops tracking a player (explicit disconnect).
func (t *ActivityTracker) Forget(playerID string) {
	delete(t.lastSeen, playerID)
	delete(t.lagging, playerID)
}

// Tracked reports whether the player currently has a last-seen entry.
func (t *ActivityTracker) Tracked(playerID string) bool {
	_, ok := t.lastSeen[playerID]
	return ok
}

// Check sweeps all tracked players and returns lag/timeout events. A lag
// event is emitted at most once per episode; a timeout removes the player
// from tracking so it cannot repeat until they speak again.
func (t *ActivityTracker) Check() []ActivityEvent {
	now := t.now()
	var events []ActivityEvent
	for playerID, seen := range t.lastSeen {
		silence := now.Sub(seen)
		switch {
		case silence >= t.deadAfter:
			events = append(events, ActivityEvent{
				PlayerID: playerID,
				Kind:     ActivityTimeout,
				LastSeen: seen,
				Silence:  silence,
			})
			delete(t.lastSeen, playerID)
			delete(t.lagging, playerID)
		case silence >= t.lagAfter:
			if _, already := t.lagging[playerID]; !already {
				events = append(events, ActivityEvent{
					PlayerID: playerID,
					Kind:     ActivityLagging,
					LastSeen: seen,
					Silence:  silence,
				})
				t.lagging[playerID] = struct{}{}
			}
		}
	}
	return events
}
