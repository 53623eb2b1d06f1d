package devstub

import (
	"time"

	"github.com/hearth-app/hearth-client/pkg/wire"
)

// Phase scripts per game. Each accepted action moves one step; after the
// last step the session ends. Nothing here resembles real game rules.
var phaseOrders = map[string][]string{
	wire.GameFeud: {
		wire.PhaseTeamSetup,
		wire.PhaseFaceoff,
		wire.PhasePlay,
		wire.PhaseSteal,
		wire.PhaseRoundResult,
	},
	wire.GameTwoTruths: {
		wire.PhaseTeamSetup,
		wire.PhaseReveal,
		wire.PhaseVote,
		wire.PhaseRoundResult,
	},
	wire.GameSketchDuel: {
		wire.PhaseTeamSetup,
		wire.PhaseDrawing,
		wire.PhaseGuessing,
		wire.PhaseRoundResult,
	},
}

// nextPhase returns the step after phase, or ended=true past the last one.
func nextPhase(game, phase string) (next string, ended bool) {
	order, ok := phaseOrders[game]
	if !ok {
		order = phaseOrders[wire.GameFeud]
	}
	for i, p := range order {
		if p == phase {
			if i+1 < len(order) {
				return order[i+1], false
			}
			return "", true
		}
	}
	return order[0], false
}

func initialState(game string) wire.GameState {
	if _, ok := phaseOrders[game]; !ok {
		game = wire.GameFeud
	}
	return wire.GameState{
		Game:  game,
		Phase: phaseOrders[game][0],
		Round: 1,
		Teams: []wire.Team{
			{ID: "team-a", Name: "Team A"},
			{ID: "team-b", Name: "Team B"},
		},
		Scores:     map[string]int{"team-a": 0, "team-b": 0},
		DeadlineMS: time.Now().Add(30 * time.Second).UnixMilli(),
	}
}
