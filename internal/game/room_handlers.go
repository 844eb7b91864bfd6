package game

import (
	"log"

	"github.com/lockforge/backend/internal/protocol"
)

// Rejection reasons surfaced in submit-commands-ack.
const (
	reasonNotPlaying  = "match not in progress"
	reasonNotMember   = "not a match member"
	reasonOutOfRange  = "tick out of range"
	reasonBadSequence = "invalid sequence"
	reasonMissingType = "missing command type"
	reasonMatchEnded  = "match already ended"
)

// SubmitCommands posts a player's command batch for a tick. Validation and
// buffering run on the room goroutine; the ack goes back over the sender.
func (r *Room) SubmitCommands(playerID string, tick int64, commands []protocol.Command) {
	r.post(func() { r.handleSubmit(playerID, tick, commands) })
}

// SubmitStateHash posts a client's per-tick state hash report.
func (r *Room) SubmitStateHash(playerID string, tick int64, hash string) {
	r.post(func() { r.handleStateHash(playerID, tick, hash) })
}

// HandleDisconnect marks a player disconnected. The tick loop keeps
// running; the player's slots broadcast as empty until they return.
func (r *Room) HandleDisconnect(playerID string) {
	r.post(func() { r.handleDisconnect(playerID) })
}

// HandleReconnect rebinds a returning player and replies with
// reconnect-status plus the reconnect-state catch-up payload.
func (r *Room) HandleReconnect(playerID string) {
	r.post(func() { r.handleReconnect(playerID) })
}

// UpdateActivity records liveness for a player. The gateway calls this for
// every inbound frame, transport keep-alives included.
func (r *Room) UpdateActivity(playerID string) {
	r.post(func() { r.activity.Touch(playerID) })
}

// Stop terminates the room with the given reason.
func (r *Room) Stop(reason string) {
	r.post(func() { r.finish(protocol.MatchEnd{Reason: reason}) })
}

func (r *Room) handleSubmit(playerID string, tick int64, commands []protocol.Command) {
	ack := func(accepted bool, reason string, rejected int) {
		r.sender.SendToPlayer(playerID, protocol.EventSubmitCommandsAck, protocol.SubmitCommandsAck{
			Tick:          tick,
			Accepted:      accepted,
			Reason:        reason,
			RejectedCount: rejected,
		})
	}

	if r.phase != PhasePlaying {
		ack(false, reasonNotPlaying, 0)
		return
	}
	p, ok := r.players[playerID]
	if !ok {
		ack(false, reasonNotMember, 0)
		return
	}
	if tick < r.currentTick-int64(r.cfg.MaxTickBehind) || tick > r.currentTick+int64(r.cfg.MaxTickAhead) {
		ack(false, reasonOutOfRange, 0)
		return
	}

	accepted := make([]protocol.Command, 0, len(commands))
	rejected := 0
	for _, cmd := range commands {
		if cmd.Type == "" {
			r.sender.SendToPlayer(playerID, protocol.EventCommandRejected, protocol.CommandRejected{
				Reason: reasonMissingType,
				Tick:   tick,
				Type:   cmd.Type,
			})
			rejected++
			continue
		}
		if r.cfg.ValidateInputSequence {
			if cmd.Sequence == nil || *cmd.Sequence != p.LastSequence+1 {
				r.sender.SendToPlayer(playerID, protocol.EventCommandRejected, protocol.CommandRejected{
					Reason: reasonBadSequence,
					Tick:   tick,
					Type:   cmd.Type,
				})
				rejected++
				continue
			}
			p.LastSequence = *cmd.Sequence
		}
		// Server-assigned scope: never trust the client's values.
		cmd.PlayerID = playerID
		cmd.Tick = tick
		accepted = append(accepted, cmd)
	}

	// An empty list is a valid idle assertion; it still overwrites any
	// earlier submission for this (player, tick).
	r.buffer.Put(tick, playerID, accepted)
	p.LastAckTick = tick
	ack(true, "", rejected)
}

func (r *Room) handleStateHash(playerID string, tick int64, hash string) {
	if !r.cfg.EnableStateHashing || r.phase != PhasePlaying {
		return
	}
	if _, ok := r.players[playerID]; !ok {
		return
	}

	r.hashes.Put(tick, playerID, hash)

	if _, done := r.comparedHashes[tick]; done {
		return
	}
	if !r.hashes.Complete(tick, r.connectedPlayerIDs()) {
		return
	}
	r.comparedHashes[tick] = struct{}{}

	if r.hashes.Agree(tick) {
		r.consecutiveDesyncs = 0
		r.broadcast(protocol.EventHashComparison, protocol.HashComparison{Tick: tick, Match: true})
		return
	}

	reported := r.hashes.Hashes(tick)
	snapshot := make(map[string]string, len(reported))
	for id, h := range reported {
		snapshot[id] = h
	}

	r.consecutiveDesyncs++
	log.Printf("[ROOM %s] desync at tick %d (consecutive=%d hashes=%v)", r.ID, tick, r.consecutiveDesyncs, snapshot)
	r.broadcast(protocol.EventDesyncDetected, protocol.DesyncDetected{Tick: tick, Hashes: snapshot})
	r.pub.DesyncDetected(r.ID, tick)

	if r.consecutiveDesyncs < r.cfg.DesyncGracePeriodTicks {
		return
	}
	if r.cfg.DesyncAction == "log-only" {
		log.Printf("[ROOM %s] desync grace exceeded, action=log-only, match continues", r.ID)
		return
	}
	r.finish(protocol.MatchEnd{
		Reason:  EndReasonDesync,
		Details: protocol.DesyncDetected{Tick: tick, Hashes: snapshot},
	})
}

func (r *Room) handleDisconnect(playerID string) {
	p, ok := r.players[playerID]
	if !ok || r.phase == PhaseFinished {
		return
	}
	if !p.Connected {
		return
	}
	p.Connected = false
	r.activity.Forget(playerID)
	log.Printf("[ROOM %s] player %s disconnected (grace=%dms)", r.ID, playerID, r.cfg.ReconnectGracePeriodMs)
	r.broadcast(protocol.EventPlayerDisconnected, protocol.PlayerDisconnected{
		PlayerID:      playerID,
		MatchID:       r.ID,
		GracePeriodMs: r.cfg.ReconnectGracePeriodMs,
	})
}

func (r *Room) handleReconnect(playerID string) {
	if r.phase == PhaseFinished {
		r.sender.SendToPlayer(playerID, protocol.EventReconnectStatus, protocol.ReconnectStatus{
			Success: false,
			Reason:  reasonMatchEnded,
		})
		return
	}
	p, ok := r.players[playerID]
	if !ok {
		r.sender.SendToPlayer(playerID, protocol.EventReconnectStatus, protocol.ReconnectStatus{
			Success: false,
			Reason:  reasonNotMember,
		})
		return
	}

	p.Connected = true
	r.activity.Touch(playerID)
	log.Printf("[ROOM %s] player %s reconnected at tick %d", r.ID, playerID, r.currentTick)

	r.sender.SendToPlayer(playerID, protocol.EventReconnectStatus, protocol.ReconnectStatus{Success: true})

	from := r.currentTick - int64(r.cfg.CommandHistoryTicks)
	if from < 0 {
		from = 0
	}
	r.sender.SendToPlayer(playerID, protocol.EventReconnectState, protocol.ReconnectState{
		MatchID:        r.ID,
		CurrentTick:    r.currentTick,
		Phase:          string(r.phase),
		Players:        r.roster(),
		RecentCommands: r.history.Recent(from, r.currentTick),
	})

	r.broadcast(protocol.EventPlayerReconnected, protocol.PlayerReconnected{PlayerID: playerID})
}
