package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMatchmaker(modeName string) (*Matchmaker, *Registry, *recordingSender) {
	cfg := testConfig()
	cfg.GameMode = modeName
	mode, _ := LookupMode(modeName)
	sender := &recordingSender{}
	registry := NewRegistry(cfg, sender, nil)
	return NewMatchmaker(cfg, mode, registry, nil), registry, sender
}

func TestJoinQueuePositionAndWaitEstimate(t *testing.T) {
	mm, _, _ := newTestMatchmaker("1v1")

	pos, wait, err := mm.JoinQueue("a", "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, pos)
	assert.Equal(t, int64(1000), wait) // ceil(1/2) * 1000ms, floored at 1s

	pos, wait, err = mm.JoinQueue("b", "bob")
	require.NoError(t, err)
	assert.Equal(t, 2, pos)
	assert.Equal(t, int64(1000), wait)

	// Five queued players at 1v1 need three intervals.
	mm2, _, _ := newTestMatchmaker("1v1")
	for _, id := range []string{"p1", "p2", "p3", "p4"} {
		_, _, err := mm2.JoinQueue(id, id)
		require.NoError(t, err)
	}
	_, wait, err = mm2.JoinQueue("p5", "p5")
	require.NoError(t, err)
	assert.Equal(t, int64(3000), wait)
}

func TestDuplicateJoinRejectedQueueUnchanged(t *testing.T) {
	mm, _, _ := newTestMatchmaker("1v1")
	_, _, err := mm.JoinQueue("a", "alice")
	require.NoError(t, err)

	_, _, err = mm.JoinQueue("a", "alice")
	require.Error(t, err)
	assert.Equal(t, "Already in queue", err.Error())
	assert.Equal(t, 1, mm.QueueLen())
}

func TestJoinThenLeaveRestoresQueue(t *testing.T) {
	mm, _, _ := newTestMatchmaker("1v1")

	_, _, err := mm.JoinQueue("a", "alice")
	require.NoError(t, err)
	assert.True(t, mm.LeaveQueue("a"))
	assert.Equal(t, 0, mm.QueueLen())

	// Leaving when absent is a silent no-op.
	assert.False(t, mm.LeaveQueue("a"))

	// And the player can join again cleanly.
	pos, _, err := mm.JoinQueue("a", "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, pos)
}

func TestFormMatchDrainsHeadInInsertionOrder(t *testing.T) {
	mm, registry, _ := newTestMatchmaker("1v1")
	for _, id := range []string{"a", "b", "c"} {
		_, _, err := mm.JoinQueue(id, id)
		require.NoError(t, err)
	}

	room := mm.formMatch()
	require.NotNil(t, room)
	assert.Equal(t, []string{"a", "b"}, room.PlayerIDs())
	assert.Equal(t, 1, mm.QueueLen()) // "c" still waiting

	// Both players are indexed and no longer queueable.
	assert.Equal(t, room, registry.RoomForPlayer("a"))
	assert.Equal(t, room, registry.RoomForMatch(room.ID))
	_, _, err := mm.JoinQueue("a", "a")
	assert.ErrorIs(t, err, ErrAlreadyInMatch)

	// Not enough players left for another match.
	assert.Nil(t, mm.formMatch())
}

func TestFormMatchPartitionsTeamsForFFA(t *testing.T) {
	mm, _, _ := newTestMatchmaker("FFA4")
	for _, id := range []string{"p1", "p2", "p3", "p4"} {
		_, _, err := mm.JoinQueue(id, id)
		require.NoError(t, err)
	}

	room := mm.formMatch()
	require.NotNil(t, room)
	for i, id := range []string{"p1", "p2", "p3", "p4"} {
		assert.Equal(t, i, room.players[id].TeamID, id)
	}
}

func TestDisconnectRemovesFromQueue(t *testing.T) {
	mm, _, _ := newTestMatchmaker("1v1")
	_, _, err := mm.JoinQueue("a", "alice")
	require.NoError(t, err)

	mm.HandleDisconnect("a")
	assert.Equal(t, 0, mm.QueueLen())
}

func TestRegistryDropsFinishedRoomAfterGrace(t *testing.T) {
	cfg := testConfig()
	cfg.ReconnectGracePeriodMs = 20
	sender := &recordingSender{}
	registry := NewRegistry(cfg, sender, nil)

	room := registry.CreateRoom(mode1v1(), []RoomSeat{{PlayerID: "a"}, {PlayerID: "b"}})
	require.Equal(t, 1, registry.ActiveMatches())

	room.Start()
	room.Stop("test over")

	// The player index clears immediately so both can requeue...
	require.Eventually(t, func() bool {
		return registry.RoomForPlayer("a") == nil
	}, time.Second, 5*time.Millisecond)

	// ...while the match id stays resolvable until the grace passes.
	require.Eventually(t, func() bool {
		return registry.RoomForMatch(room.ID) == nil
	}, time.Second, 5*time.Millisecond)
}
