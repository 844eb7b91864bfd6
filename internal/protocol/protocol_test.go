package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeWrapsPayloadInEnvelope(t *testing.T) {
	frame, err := Encode(EventTickSync, TickSync{Tick: 12, Timestamp: 1700000000000})
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(frame, &env))
	assert.Equal(t, EventTickSync, env.Type)

	var sync TickSync
	require.NoError(t, json.Unmarshal(env.Data, &sync))
	assert.Equal(t, int64(12), sync.Tick)
	assert.Equal(t, int64(1700000000000), sync.Timestamp)
}

func TestEncodeIsDeterministicForEqualPayloads(t *testing.T) {
	batch := CommandsBatch{
		Tick: 3,
		Commands: []Command{
			{Type: "move", PlayerID: "a", Tick: 3, Data: json.RawMessage(`{"x":1}`)},
			{Type: "move", PlayerID: "b", Tick: 3},
		},
	}

	first, err := Encode(EventCommandsBatch, batch)
	require.NoError(t, err)
	second, err := Encode(EventCommandsBatch, batch)
	require.NoError(t, err)

	// Every recipient of a broadcast must see byte-identical frames.
	assert.Equal(t, first, second)
}

func TestCommandDataRelayedVerbatim(t *testing.T) {
	raw := []byte(`{"type":"cast","data":{"spell":"fireball","target":[3,7]},"playerId":"","tick":0}`)

	var cmd Command
	require.NoError(t, json.Unmarshal(raw, &cmd))
	assert.Equal(t, "cast", cmd.Type)
	assert.Nil(t, cmd.Sequence)
	assert.JSONEq(t, `{"spell":"fireball","target":[3,7]}`, string(cmd.Data))

	out, err := json.Marshal(cmd)
	require.NoError(t, err)
	assert.JSONEq(t, string(raw), string(out))
}

func TestSubmitAckOmitsEmptyReason(t *testing.T) {
	frame, err := Encode(EventSubmitCommandsAck, SubmitCommandsAck{Tick: 5, Accepted: true})
	require.NoError(t, err)
	assert.NotContains(t, string(frame), "reason")
	assert.NotContains(t, string(frame), "rejectedCount")
}
