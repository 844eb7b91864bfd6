package game

// HashLedger records client-reported state hashes per tick, per player.
// The room compares entries once every currently-connected player has
// reported for a tick. Owned by the room goroutine.
type HashLedger struct {
	ticks map[int64]map[string]string
}

func NewHashLedger() *HashLedger {
	return &HashLedger{ticks: make(map[int64]map[string]string)}
}

// Put records a player's hash for a tick, overwriting any earlier report.
func (l *HashLedger) Put(tick int64, playerID, hash string) {
	if _, ok := l.ticks[tick]; !ok {
		l.ticks[tick] = make(map[string]string)
	}
	l.ticks[tick][playerID] = hash
}

// Hashes returns the reports for a tick keyed by player. The map is the
// ledger's own; callers must not mutate it.
func (l *HashLedger) Hashes(tick int64) map[string]string {
	return l.ticks[tick]
}

// Complete reports whether every listed player has a hash for the tick.
func (l *HashLedger) Complete(tick int64, players []string) bool {
	reported, ok := l.ticks[tick]
	if !ok {
		return len(players) == 0
	}
	for _, p := range players {
		if _, ok := reported[p]; !ok {
			return false
		}
	}
	return true
}

// Agree reports whether all recorded hashes for a tick are equal.
// Vacuously true when no hashes were recorded.
func (l *HashLedger) Agree(tick int64) bool {
	var first string
	seen := false
	for _, h := range l.ticks[tick] {
		if !seen {
			first = h
			seen = true
			continue
		}
		if h != first {
			return false
		}
	}
	return true
}

// Prune drops reports for ticks strictly below the given tick.
func (l *HashLedger) Prune(before int64) {
	for tick := range l.ticks {
		if tick < before {
			delete(l.ticks, tick)
		}
	}
}
