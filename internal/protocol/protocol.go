// Package protocol defines the wire events exchanged between the lockstep
// server and its clients. Every frame is a JSON envelope
// {"type": ..., "data": ...}; the event tables below must stay
// wire-compatible with existing clients.
package protocol

import "encoding/json"

// Inbound event names (client -> server).
const (
	EventQueueJoin      = "queue-join"
	EventQueueLeave     = "queue-leave"
	EventSubmitCommands = "submit-commands"
	EventStateHash      = "state-hash"
	EventReconnectMatch = "reconnect-match"
)

// Outbound event names (server -> client).
const (
	EventQueueStatus        = "queue-status"
	EventQueueLeft          = "queue-left"
	EventError              = "error"
	EventMatchFound         = "match-found"
	EventCountdown          = "countdown"
	EventGameStart          = "game-start"
	EventTickSync           = "tick-sync"
	EventCommandsBatch      = "commands-batch"
	EventSubmitCommandsAck  = "submit-commands-ack"
	EventCommandRejected    = "command-rejected"
	EventPlayerLagging      = "player-lagging"
	EventPlayerTimeout      = "player-timeout"
	EventPlayerDisconnected = "player-disconnected"
	EventPlayerReconnected  = "player-reconnected"
	EventReconnectStatus    = "reconnect-status"
	EventReconnectState     = "reconnect-state"
	EventMatchEnd           = "match-end"
	EventDesyncDetected     = "desync-detected"
	EventHashComparison     = "hash-comparison"
)

// Envelope is the frame shape for both directions.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Command is one player intent for one tick. The server never decodes Data;
// it is relayed verbatim. PlayerID and Tick are server-assigned when the
// command is accepted into a room: client-supplied values are overwritten.
type Command struct {
	Type     string          `json:"type"`
	Data     json.RawMessage `json:"data,omitempty"`
	PlayerID string          `json:"playerId"`
	Tick     int64           `json:"tick"`
	Sequence *int64          `json:"sequence,omitempty"`
}

// Inbound payloads.

type QueueJoin struct {
	PlayerID string `json:"playerId"`
	Username string `json:"username,omitempty"`
}

type QueueLeave struct {
	PlayerID string `json:"playerId"`
}

type SubmitCommands struct {
	Tick     int64     `json:"tick"`
	Commands []Command `json:"commands"`
}

type StateHash struct {
	Tick int64  `json:"tick"`
	Hash string `json:"hash"`
}

type ReconnectMatch struct {
	PlayerID string `json:"playerId"`
	MatchID  string `json:"matchId"`
}

// Outbound payloads.

type QueueStatus struct {
	Position int   `json:"position"`
	WaitTime int64 `json:"waitTime"` // estimated wait, milliseconds
}

type QueueLeft struct {
	PlayerID string `json:"playerId"`
}

type ErrorMessage struct {
	Message string `json:"message"`
}

type MatchFound struct {
	MatchID   string   `json:"matchId"`
	PlayerID  string   `json:"playerId"`
	TeamID    int      `json:"teamId"`
	Teammates []string `json:"teammates"`
	Opponents []string `json:"opponents"`
}

type Countdown struct {
	Seconds int `json:"seconds"`
}

type GameStart struct {
	MatchID    string `json:"matchId"`
	RandomSeed uint32 `json:"randomSeed"`
}

type TickSync struct {
	Tick      int64 `json:"tick"`
	Timestamp int64 `json:"timestamp"` // wall clock, milliseconds
}

type CommandsBatch struct {
	Tick     int64     `json:"tick"`
	Commands []Command `json:"commands"`
}

type SubmitCommandsAck struct {
	Tick          int64  `json:"tick"`
	Accepted      bool   `json:"accepted"`
	Reason        string `json:"reason,omitempty"`
	RejectedCount int    `json:"rejectedCount,omitempty"`
}

type CommandRejected struct {
	Reason string `json:"reason"`
	Tick   int64  `json:"tick"`
	Type   string `json:"type"`
}

type PlayerLagging struct {
	PlayerID           string `json:"playerId"`
	CurrentTick        int64  `json:"currentTick"`
	MsSinceLastMessage int64  `json:"msSinceLastMessage"`
}

type PlayerTimeout struct {
	PlayerID           string `json:"playerId"`
	LastMessageTime    int64  `json:"lastMessageTime"`
	CurrentTick        int64  `json:"currentTick"`
	MsSinceLastMessage int64  `json:"msSinceLastMessage"`
}

type PlayerDisconnected struct {
	PlayerID      string `json:"playerId"`
	MatchID       string `json:"matchId"`
	GracePeriodMs int    `json:"gracePeriodMs"`
}

type PlayerReconnected struct {
	PlayerID string `json:"playerId"`
}

type ReconnectStatus struct {
	Success bool   `json:"success"`
	Reason  string `json:"reason,omitempty"`
}

// PlayerState is the roster snapshot inside reconnect-state.
type PlayerState struct {
	PlayerID  string `json:"playerId"`
	Username  string `json:"username"`
	TeamID    int    `json:"teamId"`
	Connected bool   `json:"connected"`
}

// HistoryEntry is one finalized tick inside reconnect-state.
type HistoryEntry struct {
	Tick     int64     `json:"tick"`
	Commands []Command `json:"commands"`
}

type ReconnectState struct {
	MatchID        string         `json:"matchId"`
	CurrentTick    int64          `json:"currentTick"`
	Phase          string         `json:"phase"`
	Players        []PlayerState  `json:"players"`
	RecentCommands []HistoryEntry `json:"recentCommands"`
}

type MatchEnd struct {
	Reason  string      `json:"reason"`
	Details interface{} `json:"details,omitempty"`
	Winner  string      `json:"winner,omitempty"`
}

type DesyncDetected struct {
	Tick   int64             `json:"tick"`
	Hashes map[string]string `json:"hashes"`
}

type HashComparison struct {
	Tick  int64 `json:"tick"`
	Match bool  `json:"match"`
}

// Encode wraps an event payload into an envelope frame.
func Encode(eventType string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: eventType, Data: data})
}
