package replay

import (
	"duel-lite/battle"

	"google.golang.org/protobuf/types/known/structpb"
)

const TapeVersion = 1

// Spec asks for one battle to be simulated and taped. Seed is required: a
// tape is only useful when it can be produced again.
type Spec struct {
	FighterA      string `json:"fighter_a"`
	FighterB      string `json:"fighter_b"`
	Location      string `json:"location,omitempty"`
	TimeOfDay     string `json:"time_of_day,omitempty"`
	EmotionalMode bool   `json:"emotional_mode,omitempty"`
	Seed          int64  `json:"seed"`
}

func (s Spec) request() battle.Request {
	return battle.Request{
		FighterA:      s.FighterA,
		FighterB:      s.FighterB,
		Location:      s.Location,
		TimeOfDay:     s.TimeOfDay,
		EmotionalMode: s.EmotionalMode,
		Deterministic: true,
		Seed:          s.Seed,
	}
}

type Tape struct {
	TapeVersion int     `json:"tape_version"`
	BattleID    string  `json:"battle_id"`
	Seed        int64   `json:"seed"`
	WinnerID    string  `json:"winner_id,omitempty"`
	IsDraw      bool    `json:"is_draw"`
	Reason      string  `json:"reason"`
	Events      []Event `json:"events"`
}

// Event is one log entry packed as a protobuf Struct envelope.
type Event struct {
	Type        string           `json:"type"`
	Seq         uint64           `json:"seq"`
	Value       *structpb.Struct `json:"value,omitempty"`
	EnvelopeB64 string           `json:"envelope_b64,omitempty"`
}
