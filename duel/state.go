package duel

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// EventType tags a structured log entry for the presentation layer.
type EventType string

const (
	EventBattleStart     EventType = "battle_start"
	EventPhaseChange     EventType = "phase_change"
	EventDecision        EventType = "decision"
	EventMove            EventType = "move"
	EventIntercept       EventType = "intercept"
	EventEscalationScale EventType = "escalation_scaling"
	EventPayoff          EventType = "payoff"
	EventPunished        EventType = "punished"
	EventReposition      EventType = "reposition"
	EventTacticalExpired EventType = "tactical_expired"
	EventCollateral      EventType = "collateral"
	EventSkip            EventType = "skip"
	EventEffectApplied   EventType = "effect_applied"
	EventEffectTick      EventType = "effect_tick"
	EventEffectExpired   EventType = "effect_expired"
	EventEffectFused     EventType = "effect_fused"
	EventEffectCrisis    EventType = "effect_crisis"
	EventMentalShift     EventType = "mental_shift"
	EventEscalation      EventType = "escalation"
	EventStress          EventType = "stress"
	EventCurbstomp       EventType = "curbstomp"
	EventMiracle         EventType = "miraculous_survival"
	EventMarked          EventType = "marked_for_defeat"
	EventDesperation     EventType = "desperation"
	EventDrift           EventType = "personality_drift"
	EventAIRuleError     EventType = "ai_rule_error"
	EventTerminal        EventType = "terminal"
)

// Event is one ordered entry of the interaction log.
type Event struct {
	Seq     int                `json:"seq"`
	Turn    int                `json:"turn"`
	Segment int                `json:"segment"`
	Type    EventType          `json:"type"`
	Actor   string             `json:"actor,omitempty"`
	Target  string             `json:"target,omitempty"`
	Move    string             `json:"move,omitempty"`
	Deltas  map[string]float64 `json:"deltas,omitempty"`
	Text    string             `json:"text,omitempty"`
}

// BattleState is scoped to a single battle and passed by pointer to every
// resolver. Nothing in it may outlive or be shared across battles.
type BattleState struct {
	ID                string
	Turn              int
	Segment           int
	Phase             Phase
	EnvironmentDamage float64
	Location          *Location
	TimeOfDay         TimeOfDay
	EmotionalMode     bool

	ForcedDraw       bool
	ForcedDrawReason string

	Log []Event

	marked map[string]struct{}
	rng    RNG
	ns     uuid.UUID
	nextID uint64
}

// NewBattleState builds a fresh state. id seeds the namespace for effect ids.
func NewBattleState(id string, loc *Location, tod TimeOfDay, rng RNG) *BattleState {
	if loc == nil {
		loc = NeutralLocation()
	}
	if rng == nil {
		rng = NewRNG(false, 0)
	}
	return &BattleState{
		ID:        id,
		Phase:     PhaseEarly,
		Location:  loc,
		TimeOfDay: tod,
		marked:    make(map[string]struct{}),
		rng:       rng,
		ns:        uuid.NewSHA1(uuid.NameSpaceOID, []byte(id)),
	}
}

func (s *BattleState) RNG() RNG { return s.rng }

// NewID derives the next id in this battle's namespace, so replays with the
// same battle id reproduce the same effect ids.
func (s *BattleState) NewID(kind string) string {
	s.nextID++
	return uuid.NewSHA1(s.ns, []byte(fmt.Sprintf("%s/%d", kind, s.nextID))).String()
}

// Mark adds a fighter to the marked-for-defeat set.
func (s *BattleState) Mark(id string) bool {
	if _, ok := s.marked[id]; ok {
		return false
	}
	s.marked[id] = struct{}{}
	return true
}

func (s *BattleState) IsMarked(id string) bool {
	_, ok := s.marked[id]
	return ok
}

// Marked returns the marked ids in sorted order.
func (s *BattleState) Marked() []string {
	out := make([]string, 0, len(s.marked))
	for id := range s.marked {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Emit appends an event to the interaction log.
func (s *BattleState) Emit(e Event) {
	if s == nil {
		return
	}
	e.Seq = len(s.Log) + 1
	if e.Turn == 0 {
		e.Turn = s.Turn
	}
	if e.Segment == 0 {
		e.Segment = s.Segment
	}
	s.Log = append(s.Log, e)
}

// ForceDraw records an outside intervention ending the battle.
func (s *BattleState) ForceDraw(reason string) {
	if s.ForcedDraw {
		return
	}
	s.ForcedDraw = true
	s.ForcedDrawReason = reason
}
