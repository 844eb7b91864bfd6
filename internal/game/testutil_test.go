package game

import (
	"sync"
	"time"

	"github.com/lockforge/backend/internal/config"
)

// testConfig mirrors the documented defaults, with the countdown collapsed
// so rooms enter the playing phase immediately.
func testConfig() *config.Config {
	return &config.Config{
		Environment:            "test",
		TickRate:               20,
		GameMode:               "1v1",
		MatchmakingIntervalMs:  1000,
		CountdownSeconds:       0,
		TimeoutTicks:           40,
		DisconnectTicks:        100,
		ReconnectGracePeriodMs: 30000,
		MaxTickBehind:          10,
		MaxTickAhead:           5,
		CommandHistoryTicks:    200,
		DesyncAction:           "end-match",
		DesyncGracePeriodTicks: 1,
	}
}

// sentEvent is one delivery recorded by the fake sender. To is set for
// direct sends, Recipients for broadcasts.
type sentEvent struct {
	To         string
	Recipients []string
	Type       string
	Payload    interface{}
}

type recordingSender struct {
	mu     sync.Mutex
	events []sentEvent
}

func (s *recordingSender) SendToPlayer(playerID, eventType string, payload interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, sentEvent{To: playerID, Type: eventType, Payload: payload})
}

func (s *recordingSender) Broadcast(playerIDs []string, eventType string, payload interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	recipients := make([]string, len(playerIDs))
	copy(recipients, playerIDs)
	s.events = append(s.events, sentEvent{Recipients: recipients, Type: eventType, Payload: payload})
}

func (s *recordingSender) all() []sentEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]sentEvent, len(s.events))
	copy(out, s.events)
	return out
}

func (s *recordingSender) ofType(eventType string) []sentEvent {
	var out []sentEvent
	for _, ev := range s.all() {
		if ev.Type == eventType {
			out = append(out, ev)
		}
	}
	return out
}

func (s *recordingSender) last(eventType string) (sentEvent, bool) {
	events := s.ofType(eventType)
	if len(events) == 0 {
		return sentEvent{}, false
	}
	return events[len(events)-1], true
}

func (s *recordingSender) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}

func mode1v1() Mode {
	m, _ := LookupMode("1v1")
	return m
}

// newTestRoom builds a room driven directly by the test goroutine: the
// room loop is never started, handlers are invoked synchronously.
func newTestRoom(cfg *config.Config, mode Mode, seats ...RoomSeat) (*Room, *recordingSender) {
	sender := &recordingSender{}
	r := NewRoom("match_test", 42, mode, seats, cfg, sender, nil, nil)
	r.timer = time.NewTimer(time.Hour)
	return r, sender
}

// startedRoom is a playing-phase 1v1 with players "a" and "b" and the
// startup events cleared.
func startedRoom(cfg *config.Config) (*Room, *recordingSender) {
	r, sender := newTestRoom(cfg, mode1v1(),
		RoomSeat{PlayerID: "a", Username: "alice"},
		RoomSeat{PlayerID: "b", Username: "bob"},
	)
	r.beginCountdown()
	sender.reset()
	return r, sender
}

func seq(n int64) *int64 {
	return &n
}
