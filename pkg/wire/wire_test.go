package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeKeepsUnsetGroups(t *testing.T) {
	state := GameState{
		Game:   GameFeud,
		Phase:  PhaseFaceoff,
		Round:  1,
		Teams:  []Team{{ID: "team-a"}, {ID: "team-b"}},
		Scores: map[string]int{"team-a": 10},
	}

	state.Merge(GameState{Phase: PhasePlay, DeadlineMS: 5000})

	assert.Equal(t, PhasePlay, state.Phase)
	assert.Equal(t, int64(5000), state.DeadlineMS)
	// untouched groups survive
	assert.Equal(t, GameFeud, state.Game)
	assert.Equal(t, 1, state.Round)
	assert.Len(t, state.Teams, 2)
	assert.Equal(t, 10, state.Scores["team-a"])
}

func TestMergeReplacesSlicesWholesale(t *testing.T) {
	state := GameState{
		Strokes: []Stroke{{PlayerID: "p1"}, {PlayerID: "p2"}},
		Guesses: []Guess{{PlayerID: "p1", Text: "cat"}},
	}

	state.Merge(GameState{Strokes: []Stroke{{PlayerID: "p3"}}})

	assert.Len(t, state.Strokes, 1)
	assert.Equal(t, "p3", state.Strokes[0].PlayerID)
	// guesses were not in the patch
	assert.Len(t, state.Guesses, 1)
}

func TestMergeCases(t *testing.T) {
	cases := []struct {
		name  string
		base  GameState
		patch GameState
		check func(t *testing.T, s GameState)
	}{
		{
			name:  "winner set on ended",
			base:  GameState{Phase: PhasePlay},
			patch: GameState{Phase: PhaseEnded, Winner: "team-b"},
			check: func(t *testing.T, s GameState) {
				assert.Equal(t, PhaseEnded, s.Phase)
				assert.Equal(t, "team-b", s.Winner)
			},
		},
		{
			name:  "empty patch changes nothing",
			base:  GameState{Phase: PhaseSteal, Round: 3, ActiveTeamID: "team-a"},
			patch: GameState{},
			check: func(t *testing.T, s GameState) {
				assert.Equal(t, GameState{Phase: PhaseSteal, Round: 3, ActiveTeamID: "team-a"}, s)
			},
		},
		{
			name:  "active player handoff",
			base:  GameState{ActivePlayerID: "p1"},
			patch: GameState{ActivePlayerID: "p2"},
			check: func(t *testing.T, s GameState) {
				assert.Equal(t, "p2", s.ActivePlayerID)
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := tc.base
			s.Merge(tc.patch)
			tc.check(t, s)
		})
	}
}
