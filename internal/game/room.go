package game

import (
	"log"
	"sync"
	"time"

	"github.com/lockforge/backend/internal/config"
	"github.com/lockforge/backend/internal/protocol"
)

// Room coordinates a single deterministic lockstep match. All mutable state
// is owned by one goroutine: external callers post work into the mailbox
// and the tick/countdown schedule runs on a single timer in the same loop,
// so no lock guards the buffers, the roster flags, or the tick counter.
//
// Roster membership is fixed at construction; players are marked
// disconnected but never removed, which is what makes HasPlayer and
// PlayerIDs safe to call from other goroutines.
type Room struct {
	ID string

	cfg    *config.Config
	mode   Mode
	sender Sender
	pub    *Publisher

	players map[string]*Player
	order   []string // roster in queue insertion order
	teams   [][]string

	phase         Phase
	currentTick   int64
	randomSeed    uint32
	countdownLeft int

	buffer   *CommandBuffer
	history  *CommandHistory
	activity *ActivityTracker
	hashes   *HashLedger

	consecutiveDesyncs int
	comparedHashes     map[int64]struct{}

	tickInterval time.Duration
	timer        *time.Timer
	mailbox      chan func()
	done         chan struct{}
	finishOnce   sync.Once

	onFinished func(*Room)
	now        func() time.Time
}

// RoomSeat is one roster slot handed over by the matchmaker.
type RoomSeat struct {
	PlayerID string
	Username string
}

// NewRoom builds a room in the countdown phase. Seats are partitioned into
// teams by insertion order: the first playersPerTeam seats become team 0,
// and so on.
func NewRoom(id string, seed uint32, mode Mode, seats []RoomSeat, cfg *config.Config, sender Sender, pub *Publisher, onFinished func(*Room)) *Room {
	r := &Room{
		ID:             id,
		cfg:            cfg,
		mode:           mode,
		sender:         sender,
		pub:            pub,
		players:        make(map[string]*Player, len(seats)),
		order:          make([]string, 0, len(seats)),
		teams:          make([][]string, mode.TeamsCount),
		phase:          PhaseCountdown,
		randomSeed:     seed,
		countdownLeft:  cfg.CountdownSeconds,
		buffer:         NewCommandBuffer(),
		history:        NewCommandHistory(int64(cfg.CommandHistoryTicks)),
		hashes:         NewHashLedger(),
		comparedHashes: make(map[int64]struct{}),
		tickInterval:   time.Second / time.Duration(cfg.TickRate),
		mailbox:        make(chan func(), 256),
		done:           make(chan struct{}),
		onFinished:     onFinished,
		now:            time.Now,
	}

	lagAfter := ticksToDuration(cfg.TimeoutTicks, cfg.TickRate)
	deadAfter := ticksToDuration(cfg.DisconnectTicks, cfg.TickRate)
	r.activity = NewActivityTracker(lagAfter, deadAfter)

	perTeam := mode.PlayersPerTeam()
	for i, seat := range seats {
		teamID := i / perTeam
		r.players[seat.PlayerID] = NewPlayer(seat.PlayerID, seat.Username, teamID)
		r.order = append(r.order, seat.PlayerID)
		r.teams[teamID] = append(r.teams[teamID], seat.PlayerID)
	}

	return r
}

func ticksToDuration(ticks, tickRate int) time.Duration {
	return time.Duration(ticks) * time.Second / time.Duration(tickRate)
}

// Start launches the room goroutine: match-found notifications, the
// countdown, then the tick loop.
func (r *Room) Start() {
	go r.run()
}

func (r *Room) run() {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("[ROOM %s] fatal fault in room loop: %v", r.ID, rec)
			r.finish(protocol.MatchEnd{Reason: EndReasonInternalError})
		}
	}()

	r.timer = time.NewTimer(time.Second)
	defer r.timer.Stop()

	r.beginCountdown()

	for {
		select {
		case <-r.done:
			return
		case fn := <-r.mailbox:
			fn()
		case <-r.timer.C:
			r.step()
		}
	}
}

// post hands a closure to the room goroutine, dropping it once the room
// has finished.
func (r *Room) post(fn func()) {
	select {
	case r.mailbox <- fn:
	case <-r.done:
	}
}

func (r *Room) scheduleAfter(d time.Duration) {
	if !r.timer.Stop() {
		select {
		case <-r.timer.C:
		default:
		}
	}
	r.timer.Reset(d)
}

// step advances whichever schedule the phase is on.
func (r *Room) step() {
	switch r.phase {
	case PhaseCountdown:
		r.countdownStep()
	case PhasePlaying:
		r.finalizeTick()
	}
}

func (r *Room) beginCountdown() {
	for _, id := range r.order {
		p := r.players[id]
		teammates := make([]string, 0, len(r.order))
		opponents := make([]string, 0, len(r.order))
		for _, otherID := range r.order {
			if otherID == id {
				continue
			}
			if r.players[otherID].TeamID == p.TeamID {
				teammates = append(teammates, otherID)
			} else {
				opponents = append(opponents, otherID)
			}
		}
		r.sender.SendToPlayer(id, protocol.EventMatchFound, protocol.MatchFound{
			MatchID:   r.ID,
			PlayerID:  id,
			TeamID:    p.TeamID,
			Teammates: teammates,
			Opponents: opponents,
		})
	}

	log.Printf("[ROOM %s] countdown started (mode=%s players=%d)", r.ID, r.mode.Name, len(r.order))

	r.broadcast(protocol.EventCountdown, protocol.Countdown{Seconds: r.countdownLeft})
	if r.countdownLeft == 0 {
		r.beginPlaying()
		return
	}
	r.scheduleAfter(time.Second)
}

func (r *Room) countdownStep() {
	r.countdownLeft--
	r.broadcast(protocol.EventCountdown, protocol.Countdown{Seconds: r.countdownLeft})
	if r.countdownLeft == 0 {
		r.beginPlaying()
		return
	}
	r.scheduleAfter(time.Second)
}

func (r *Room) beginPlaying() {
	r.phase = PhasePlaying
	r.currentTick = 0
	for _, id := range r.order {
		if r.players[id].Connected {
			r.activity.Touch(id)
		}
	}
	r.broadcast(protocol.EventGameStart, protocol.GameStart{MatchID: r.ID, RandomSeed: r.randomSeed})
	log.Printf("[ROOM %s] game started (seed=%d tickRate=%d)", r.ID, r.randomSeed, r.cfg.TickRate)
	r.scheduleAfter(r.tickInterval)
}

// finalizeTick seals the current tick: tick-sync, activity sweep, collect,
// order, record to history, broadcast, prune, advance. It never waits for
// submissions; an absent player's slot is simply empty.
func (r *Room) finalizeTick() {
	now := r.now()

	r.broadcast(protocol.EventTickSync, protocol.TickSync{
		Tick:      r.currentTick,
		Timestamp: now.UnixMilli(),
	})

	r.checkActivity()

	ordered := make([]protocol.Command, 0)
	for _, cmds := range r.buffer.Collect(r.currentTick) {
		ordered = append(ordered, cmds...)
	}
	ordered = OrderCommands(ordered)

	r.history.Append(r.currentTick, ordered)

	r.broadcast(protocol.EventCommandsBatch, protocol.CommandsBatch{
		Tick:     r.currentTick,
		Commands: ordered,
	})

	r.buffer.Prune(r.currentTick + 1)
	r.currentTick++

	r.hashes.Prune(r.currentTick - 10)
	for t := range r.comparedHashes {
		if t < r.currentTick-10 {
			delete(r.comparedHashes, t)
		}
	}

	r.scheduleAfter(r.tickInterval)
}

func (r *Room) checkActivity() {
	for _, ev := range r.activity.Check() {
		p, ok := r.players[ev.PlayerID]
		if !ok {
			continue
		}
		switch ev.Kind {
		case ActivityLagging:
			r.broadcast(protocol.EventPlayerLagging, protocol.PlayerLagging{
				PlayerID:           ev.PlayerID,
				CurrentTick:        r.currentTick,
				MsSinceLastMessage: ev.Silence.Milliseconds(),
			})
		case ActivityTimeout:
			p.Connected = false
			log.Printf("[ROOM %s] player %s timed out (silent for %v)", r.ID, ev.PlayerID, ev.Silence)
			r.broadcast(protocol.EventPlayerTimeout, protocol.PlayerTimeout{
				PlayerID:           ev.PlayerID,
				LastMessageTime:    ev.LastSeen.UnixMilli(),
				CurrentTick:        r.currentTick,
				MsSinceLastMessage: ev.Silence.Milliseconds(),
			})
		}
	}
}

func (r *Room) broadcast(eventType string, payload interface{}) {
	r.sender.Broadcast(r.order, eventType, payload)
}

// finish seals the room: one match-end broadcast, timers cancelled, and
// every later mailbox post dropped.
func (r *Room) finish(end protocol.MatchEnd) {
	r.finishOnce.Do(func() {
		r.phase = PhaseFinished
		log.Printf("[ROOM %s] match ended (reason=%s)", r.ID, end.Reason)
		r.broadcast(protocol.EventMatchEnd, end)
		r.pub.MatchEnded(r.ID, end.Reason)
		close(r.done)
		if r.onFinished != nil {
			r.onFinished(r)
		}
	})
}

func (r *Room) connectedPlayerIDs() []string {
	ids := make([]string, 0, len(r.order))
	for _, id := range r.order {
		if r.players[id].Connected {
			ids = append(ids, id)
		}
	}
	return ids
}

func (r *Room) roster() []protocol.PlayerState {
	out := make([]protocol.PlayerState, 0, len(r.order))
	for _, id := range r.order {
		p := r.players[id]
		out = append(out, protocol.PlayerState{
			PlayerID:  p.ID,
			Username:  p.Username,
			TeamID:    p.TeamID,
			Connected: p.Connected,
		})
	}
	return out
}

// HasPlayer reports roster membership. Membership never changes after
// construction, so this is safe from any goroutine.
func (r *Room) HasPlayer(playerID string) bool {
	_, ok := r.players[playerID]
	return ok
}

// PlayerIDs returns the roster in seating order.
func (r *Room) PlayerIDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Mode returns the room's game mode.
func (r *Room) Mode() Mode {
	return r.mode
}

// Finished reports whether the room has terminated. Safe from any
// goroutine; posts to a finished room are dropped, so callers that need a
// reply must check this first.
func (r *Room) Finished() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}
