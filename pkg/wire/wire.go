// Package wire defines the realtime game-session protocol shared by the
// client session mirror and the development stub server.
//
// Client -> Server: ClientAction
//
//	type: named action ("buzz", "submit_answer", "stroke", "guess", ...)
//	seq: per-connection monotonic counter, acked by the server
//	idem_key: client-generated uuid, lets the server deduplicate
//	payload: action-specific JSON
//
// Server -> Client: ServerEvent
//
//	game:update      partial GameState merged into the mirror
//	game:round-start partial GameState (new round, fresh deadline)
//	game:round-end   partial GameState (scores, round result)
//	game:ended       final GameState with winner
//	game:error       message stored for display, never fatal
//	game:ack         ack_seq confirms a ClientAction was received
package wire

import "encoding/json"

// Event types carried in ServerEvent.Type.
const (
	EvtUpdate     = "game:update"
	EvtRoundStart = "game:round-start"
	EvtRoundEnd   = "game:round-end"
	EvtEnded      = "game:ended"
	EvtError      = "game:error"
	EvtAck        = "game:ack"
)

// Game identifiers.
const (
	GameFeud       = "feud"
	GameTwoTruths  = "two_truths"
	GameSketchDuel = "sketch_duel"
)

// Phases the server is known to send. The client never computes transitions;
// it renders whatever Phase the server set last.
const (
	PhaseTeamSetup   = "team_setup"
	PhaseFaceoff     = "faceoff"
	PhasePlay        = "play"
	PhaseSteal       = "steal"
	PhaseRoundResult = "round_result"
	PhaseReveal      = "reveal"
	PhaseVote        = "vote"
	PhaseDrawing     = "drawing"
	PhaseGuessing    = "guessing"
	PhaseEnded       = "ended"
)

type ClientAction struct {
	Type    string          `json:"type"`
	Seq     int64           `json:"seq"`
	IdemKey string          `json:"idem_key"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type ServerEvent struct {
	Type   string     `json:"type"`
	AckSeq int64      `json:"ack_seq,omitempty"`
	State  *GameState `json:"state,omitempty"`
	Error  string     `json:"error,omitempty"`
}

type Team struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	PlayerIDs []string `json:"player_ids"`
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Stroke struct {
	PlayerID string  `json:"player_id"`
	Color    string  `json:"color"`
	Width    float64 `json:"width"`
	Points   []Point `json:"points"`
}

type Guess struct {
	PlayerID string `json:"player_id"`
	Text     string `json:"text"`
	Correct  bool   `json:"correct"`
	AtMS     int64  `json:"at_ms"`
}

// GameState is the session state mirrored by the client. Events carry
// partial states: only groups the server set are merged, everything else
// keeps its previous value.
type GameState struct {
	Game           string         `json:"game,omitempty"`
	Phase          string         `json:"phase,omitempty"`
	Round          int            `json:"round,omitempty"`
	Teams          []Team         `json:"teams,omitempty"`
	Scores         map[string]int `json:"scores,omitempty"`
	Prompt         string         `json:"prompt,omitempty"`
	Strokes        []Stroke       `json:"strokes,omitempty"`
	Guesses        []Guess        `json:"guesses,omitempty"`
	ActiveTeamID   string         `json:"active_team_id,omitempty"`
	ActivePlayerID string         `json:"active_player_id,omitempty"`
	DeadlineMS     int64          `json:"deadline_ms,omitempty"`
	Winner         string         `json:"winner,omitempty"`
}

// Merge applies a partial update in place. Zero values in patch mean
// "unchanged"; slices and maps replace wholesale when present.
func (s *GameState) Merge(patch GameState) {
	if patch.Game != "" {
		s.Game = patch.Game
	}
	if patch.Phase != "" {
		s.Phase = patch.Phase
	}
	if patch.Round != 0 {
		s.Round = patch.Round
	}
	if patch.Teams != nil {
		s.Teams = patch.Teams
	}
	if patch.Scores != nil {
		s.Scores = patch.Scores
	}
	if patch.Prompt != "" {
		s.Prompt = patch.Prompt
	}
	if patch.Strokes != nil {
		s.Strokes = patch.Strokes
	}
	if patch.Guesses != nil {
		s.Guesses = patch.Guesses
	}
	if patch.ActiveTeamID != "" {
		s.ActiveTeamID = patch.ActiveTeamID
	}
	if patch.ActivePlayerID != "" {
		s.ActivePlayerID = patch.ActivePlayerID
	}
	if patch.DeadlineMS != 0 {
		s.DeadlineMS = patch.DeadlineMS
	}
	if patch.Winner != "" {
		s.Winner = patch.Winner
	}
}
