package battle

import (
	"context"

	"duel-lite/duel"
	"duel-lite/duel/curbstomp"
	"duel-lite/duel/resolve"
)

// Source supplies battle content by id.
type Source interface {
	Character(ctx context.Context, id string) (*duel.CharacterTemplate, error)
	Location(ctx context.Context, id string) (*duel.Location, error)
	RuleSet(ctx context.Context) (*curbstomp.RuleSet, error)
	Tables(ctx context.Context) (resolve.Tables, error)
}

// Request describes one battle.
type Request struct {
	FighterA      string `json:"fighterA"`
	FighterB      string `json:"fighterB"`
	Location      string `json:"location"`
	TimeOfDay     string `json:"timeOfDay"`
	EmotionalMode bool   `json:"emotionalMode"`
	Deterministic bool   `json:"deterministic"`
	Seed          int64  `json:"seed"`
}

// Termination reasons.
const (
	ReasonMutualKO    = "mutual_ko"
	ReasonForcedDraw  = "forced_draw"
	ReasonStalemate   = "stalemate"
	ReasonTurnLimit   = "turn_limit"
	ReasonKO          = "ko"
	ReasonMarked      = "marked_for_defeat"
	ReasonDecisiveGap = "decisive_gap"
	ReasonEmergency   = "emergency"
)

// Result is the full outcome of one battle.
type Result struct {
	BattleID string       `json:"battleId"`
	Seed     int64        `json:"seed"`
	Log      []duel.Event `json:"log"`

	WinnerID string `json:"winnerId,omitempty"`
	LoserID  string `json:"loserId,omitempty"`
	IsDraw   bool   `json:"isDraw"`
	Reason   string `json:"reason"`
	Detail   string `json:"detail,omitempty"`
	Turns    int    `json:"turns"`

	Fighters    []FighterSnapshot  `json:"fighters"`
	Environment EnvironmentState   `json:"environment"`
	Curbstomps  []curbstomp.Result `json:"curbstomps,omitempty"`

	// Error is set on emergency results.
	Error string `json:"error,omitempty"`
}

type EnvironmentState struct {
	LocationID string   `json:"locationId"`
	TimeOfDay  string   `json:"timeOfDay"`
	Phase      string   `json:"phase"`
	Damage     float64  `json:"damage"`
	Marked     []string `json:"marked,omitempty"`
}
