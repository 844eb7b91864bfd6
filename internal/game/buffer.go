package game

import "github.com/lockforge/backend/internal/protocol"

// CommandBuffer holds in-flight, not-yet-finalized command submissions for
// one match, keyed by tick then player. It is owned by the room goroutine;
// nothing here is safe for concurrent use.
type CommandBuffer struct {
	ticks     map[int64]map[string][]protocol.Command
	submitted map[int64]map[string]struct{}
}

func NewCommandBuffer() *CommandBuffer {
	return &CommandBuffer{
		ticks:     make(map[int64]map[string][]protocol.Command),
		submitted: make(map[int64]map[string]struct{}),
	}
}

// Put records a player's submission for a tick. A later submission for the
// same (player, tick) overwrites the earlier one: last writer wins until
// the tick is finalized.
func (b *CommandBuffer) Put(tick int64, playerID string, commands []protocol.Command) {
	if _, ok := b.ticks[tick]; !ok {
		b.ticks[tick] = make(map[string][]protocol.Command)
		b.submitted[tick] = make(map[string]struct{})
	}
	b.ticks[tick][playerID] = commands
	b.submitted[tick][playerID] = struct{}{}
}

// HasSubmitted reports whether a player already submitted for a tick.
func (b *CommandBuffer) HasSubmitted(tick int64, playerID string) bool {
	players, ok := b.submitted[tick]
	if !ok {
		return false
	}
	_, ok = players[playerID]
	return ok
}

// Collect returns every buffered command for a tick, grouped per player.
// The returned map aliases the buffer; callers must Prune before any
// further writes can touch the tick.
func (b *CommandBuffer) Collect(tick int64) map[string][]protocol.Command {
	return b.ticks[tick]
}

// Prune drops every buffered tick strictly below the given tick. Called
// right after a broadcast so sealed ticks can never be mutated and late
// stragglers do not accumulate.
func (b *CommandBuffer) Prune(before int64) {
	for tick := range b.ticks {
		if tick < before {
			delete(b.ticks, tick)
			delete(b.submitted, tick)
		}
	}
}

// Len reports how many ticks currently hold submissions.
func (b *CommandBuffer) Len() int {
	return len(b.ticks)
}
