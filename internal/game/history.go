package game

import "github.com/lockforge/backend/internal/protocol"

// CommandHistory is the bounded ring of finalized per-tick batches used to
// catch up reconnecting players. Owned by the room goroutine.
type CommandHistory struct {
	entries  map[int64][]protocol.Command
	retained int64
}

// NewCommandHistory creates a history retaining at most `retained` ticks.
func NewCommandHistory(retained int64) *CommandHistory {
	return &CommandHistory{
		entries:  make(map[int64][]protocol.Command),
		retained: retained,
	}
}

// Append stores the finalized batch for a tick and evicts anything that
// fell out of the retention window.
func (h *CommandHistory) Append(tick int64, commands []protocol.Command) {
	h.entries[tick] = commands
	oldest := tick - h.retained
	for t := range h.entries {
		if t < oldest {
			delete(h.entries, t)
		}
	}
}

// Recent returns the retained batches with tick in [fromTick, currentTick)
// in ascending tick order. Ticks the history no longer covers are simply
// absent from the result.
func (h *CommandHistory) Recent(fromTick, currentTick int64) []protocol.HistoryEntry {
	out := make([]protocol.HistoryEntry, 0, currentTick-fromTick)
	for t := fromTick; t < currentTick; t++ {
		if commands, ok := h.entries[t]; ok {
			out = append(out, protocol.HistoryEntry{Tick: t, Commands: commands})
		}
	}
	return out
}

// Len reports how many ticks the history currently covers.
func (h *CommandHistory) Len() int {
	return len(h.entries)
}
