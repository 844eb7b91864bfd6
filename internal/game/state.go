package game

import "time"

// Phase represents the lifecycle state of a match room.
type Phase string

const (
	PhaseCountdown Phase = "countdown"
	PhasePlaying   Phase = "playing"
	PhasePaused    Phase = "paused" // reserved, no transitions into it yet
	PhaseFinished  Phase = "finished"
)

// Match end reasons.
const (
	EndReasonDesync        = "desync"
	EndReasonInternalError = "internal_error"
	EndReasonShutdown      = "server_shutdown"
)

// Player is one roster slot inside a match room. All fields are owned by
// the room goroutine after construction.
type Player struct {
	ID           string
	Username     string
	TeamID       int
	Connected    bool
	LastAckTick  int64
	LastSequence int64 // last accepted input sequence; -1 before any
	JoinedAt     time.Time
}

// NewPlayer creates a connected roster slot.
func NewPlayer(id, username string, teamID int) *Player {
	return &Player{
		ID:           id,
		Username:     username,
		TeamID:       teamID,
		Connected:    true,
		LastSequence: -1,
		JoinedAt:     time.Now(),
	}
}
