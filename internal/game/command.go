package game

import (
	"sort"

	"github.com/lockforge/backend/internal/protocol"
)

// OrderCommands applies the deterministic total order used for every
// broadcast batch: playerId lexicographic ascending, then command type
// lexicographic ascending. The sort is stable so a single player's
// same-typed commands keep their submission order. No timestamps, no
// arrival order: every recipient derives the identical sequence.
func OrderCommands(commands []protocol.Command) []protocol.Command {
	ordered := make([]protocol.Command, len(commands))
	copy(ordered, commands)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].PlayerID != ordered[j].PlayerID {
			return ordered[i].PlayerID < ordered[j].PlayerID
		}
		return ordered[i].Type < ordered[j].Type
	})
	return ordered
}
