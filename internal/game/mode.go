package game

import "fmt"

// Mode describes how many players a match takes and how they are split
// into teams.
type Mode struct {
	Name            string
	PlayersPerMatch int
	TeamsCount      int
}

var presetModes = map[string]Mode{
	"1v1":  {Name: "1v1", PlayersPerMatch: 2, TeamsCount: 2},
	"2v2":  {Name: "2v2", PlayersPerMatch: 4, TeamsCount: 2},
	"3v3":  {Name: "3v3", PlayersPerMatch: 6, TeamsCount: 2},
	"4v4":  {Name: "4v4", PlayersPerMatch: 8, TeamsCount: 2},
	"FFA4": {Name: "FFA4", PlayersPerMatch: 4, TeamsCount: 4},
}

// LookupMode resolves a preset mode name.
func LookupMode(name string) (Mode, error) {
	mode, ok := presetModes[name]
	if !ok {
		return Mode{}, fmt.Errorf("unknown game mode %q", name)
	}
	return mode, nil
}

// NewCustomMode validates and builds a non-preset mode.
func NewCustomMode(name string, playersPerMatch, teamsCount int) (Mode, error) {
	if playersPerMatch < 2 {
		return Mode{}, fmt.Errorf("custom mode %q: playersPerMatch must be at least 2, got %d", name, playersPerMatch)
	}
	if teamsCount < 1 || teamsCount > playersPerMatch {
		return Mode{}, fmt.Errorf("custom mode %q: teamsCount must be in [1, %d], got %d", name, playersPerMatch, teamsCount)
	}
	if playersPerMatch%teamsCount != 0 {
		return Mode{}, fmt.Errorf("custom mode %q: playersPerMatch %d not divisible by teamsCount %d", name, playersPerMatch, teamsCount)
	}
	return Mode{Name: name, PlayersPerMatch: playersPerMatch, TeamsCount: teamsCount}, nil
}

// PlayersPerTeam is the team size for the mode.
func (m Mode) PlayersPerTeam() int {
	return m.PlayersPerMatch / m.TeamsCount
}
