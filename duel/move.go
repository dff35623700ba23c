package duel

// TacticalState is the single-slot transient condition a fighter may hold.
type TacticalState struct {
	Name       string  `json:"name" yaml:"name"`
	Duration   int     `json:"duration" yaml:"duration"`
	Intensity  float64 `json:"intensity" yaml:"intensity"`
	IsPositive bool    `json:"isPositive" yaml:"is_positive"`
}

// EffectTarget says who receives a move's status effect.
type EffectTarget string

const (
	TargetOpponent EffectTarget = "opponent"
	TargetSelf     EffectTarget = "self"
)

// EffectSpec describes a status effect to apply.
type EffectSpec struct {
	Type     EffectType   `json:"type" yaml:"type"`
	Potency  float64      `json:"potency" yaml:"potency"`
	Duration int          `json:"duration" yaml:"duration"`
	Chance   float64      `json:"chance,omitempty" yaml:"chance,omitempty"` // 0 => always
	Target   EffectTarget `json:"target,omitempty" yaml:"target,omitempty"` // "" => opponent
}

// Move is a single ability.
type Move struct {
	Name       string         `json:"name" yaml:"name"`
	Category   MoveCategory   `json:"category" yaml:"category"`
	Power      float64        `json:"power" yaml:"power"`
	Element    Element        `json:"element,omitempty" yaml:"element,omitempty"`
	Tags       []string       `json:"tags,omitempty" yaml:"tags,omitempty"`
	Setup      *TacticalState `json:"setup,omitempty" yaml:"setup,omitempty"` // imposed on the defender
	Cost       float64        `json:"cost" yaml:"cost"`
	ImpactTier int            `json:"impactTier,omitempty" yaml:"impact_tier,omitempty"`
	Effect     *EffectSpec    `json:"effect,omitempty" yaml:"effect,omitempty"`
	Counters   []string       `json:"counters,omitempty" yaml:"counters,omitempty"` // opponent moves this one answers
}

const StruggleName = "Struggle"

// Struggle is the no-cost fallback every fighter can always use.
func Struggle() Move {
	return Move{
		Name:     StruggleName,
		Category: CategoryOffense,
		Power:    5,
		Element:  ElementNone,
		Cost:     0,
	}
}

func (m Move) HasTag(tag string) bool {
	for _, t := range m.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Answers reports whether m is a known counter to the named move.
func (m Move) Answers(name string) bool {
	for _, c := range m.Counters {
		if c == name {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no slices or pointers with m.
func (m Move) Clone() Move {
	out := m
	out.Tags = append([]string(nil), m.Tags...)
	out.Counters = append([]string(nil), m.Counters...)
	if m.Setup != nil {
		s := *m.Setup
		out.Setup = &s
	}
	if m.Effect != nil {
		e := *m.Effect
		out.Effect = &e
	}
	return out
}
