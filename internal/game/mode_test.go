package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresetModes(t *testing.T) {
	cases := []struct {
		name    string
		players int
		teams   int
	}{
		{"1v1", 2, 2},
		{"2v2", 4, 2},
		{"3v3", 6, 2},
		{"4v4", 8, 2},
		{"FFA4", 4, 4},
	}
	for _, tc := range cases {
		mode, err := LookupMode(tc.name)
		require.NoError(t, err, tc.name)
		assert.Equal(t, tc.players, mode.PlayersPerMatch, tc.name)
		assert.Equal(t, tc.teams, mode.TeamsCount, tc.name)
	}
}

func TestLookupModeUnknown(t *testing.T) {
	_, err := LookupMode("5v5")
	assert.Error(t, err)
}

func TestCustomModeValidation(t *testing.T) {
	_, err := NewCustomMode("solo", 1, 1)
	assert.Error(t, err, "playersPerMatch below 2")

	_, err = NewCustomMode("bad-teams", 4, 0)
	assert.Error(t, err, "teamsCount below 1")

	_, err = NewCustomMode("too-many-teams", 4, 5)
	assert.Error(t, err, "teamsCount above playersPerMatch")

	_, err = NewCustomMode("uneven", 5, 2)
	assert.Error(t, err, "players not divisible by teams")

	mode, err := NewCustomMode("3ffa", 3, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, mode.PlayersPerTeam())
}
