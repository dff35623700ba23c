package curbstomp

import (
	"duel-lite/duel"
)

// ApplicabilityKind selects which fighters a rule can be about.
type ApplicabilityKind string

const (
	ApplyCharacter ApplicabilityKind = "character"
	ApplyPair      ApplicabilityKind = "pair"
	ApplyElement   ApplicabilityKind = "element"
	ApplyFaction   ApplicabilityKind = "faction"
	ApplyLocation  ApplicabilityKind = "location"
	ApplyAll       ApplicabilityKind = "all"
)

// Applicability names the eligible protagonists of a rule.
type Applicability struct {
	Kind       ApplicabilityKind `json:"kind" yaml:"kind"`
	Characters []string          `json:"characters,omitempty" yaml:"characters,omitempty"`
	Element    duel.Element      `json:"element,omitempty" yaml:"element,omitempty"`
	Faction    string            `json:"faction,omitempty" yaml:"faction,omitempty"`
	Location   string            `json:"location,omitempty" yaml:"location,omitempty"`
	// Negate inverts element and faction matching.
	Negate bool `json:"negate,omitempty" yaml:"negate,omitempty"`
}

// OutcomeKind is what a fired rule does.
type OutcomeKind string

const (
	OutcomeInstantWin           OutcomeKind = "instant_win"
	OutcomeInstantLoss          OutcomeKind = "instant_loss"
	OutcomeEnvironmentalKill    OutcomeKind = "environmental_kill"
	OutcomeBuff                 OutcomeKind = "buff"
	OutcomeDebuff               OutcomeKind = "debuff"
	OutcomeMomentumAdvantage    OutcomeKind = "momentum_advantage"
	OutcomeExternalIntervention OutcomeKind = "external_intervention"
)

// Lethal outcomes are the ones a miraculous survival can cancel.
func (k OutcomeKind) Lethal() bool {
	switch k {
	case OutcomeInstantWin, OutcomeInstantLoss, OutcomeEnvironmentalKill:
		return true
	}
	return false
}

// Harmful outcomes have a victim that self-sabotage can swap.
func (k OutcomeKind) harmful() bool {
	return k.Lethal() || k == OutcomeDebuff
}

type Outcome struct {
	Kind              OutcomeKind      `json:"kind" yaml:"kind"`
	Effect            *duel.EffectSpec `json:"effect,omitempty" yaml:"effect,omitempty"`
	Momentum          float64          `json:"momentum,omitempty" yaml:"momentum,omitempty"`
	EnvironmentDamage float64          `json:"environmentDamage,omitempty" yaml:"environment_damage,omitempty"`
	Text              string           `json:"text,omitempty" yaml:"text,omitempty"`
}

// VictimKind picks who suffers a harmful outcome.
type VictimKind string

const (
	VictimProtagonist  VictimKind = "protagonist"
	VictimOpponent     VictimKind = "opponent"
	VictimID           VictimKind = "id"
	VictimCoinFlip     VictimKind = "coin_flip"
	VictimDistribution VictimKind = "distribution"
)

type VictimSpec struct {
	Kind VictimKind `json:"kind,omitempty" yaml:"kind,omitempty"`
	ID   string     `json:"id,omitempty" yaml:"id,omitempty"`
	// Distribution weights fighter ids, or the words protagonist/opponent.
	Distribution map[string]float64 `json:"distribution,omitempty" yaml:"distribution,omitempty"`
}

// Timing says when a rule is consulted.
type Timing string

const (
	TimingPreBattle Timing = "pre_battle"
	TimingSegment   Timing = "segment"
)

// Rule is one data-defined override.
type Rule struct {
	ID            string         `json:"id" yaml:"id"`
	Description   string         `json:"description,omitempty" yaml:"description,omitempty"`
	Applicability Applicability  `json:"applicability" yaml:"applicability"`
	Timing        Timing         `json:"timing,omitempty" yaml:"timing,omitempty"` // "" => pre_battle
	TriggerChance float64        `json:"triggerChance" yaml:"trigger_chance"`
	When          *ConditionSpec `json:"when,omitempty" yaml:"when,omitempty"`
	Outcome       Outcome        `json:"outcome" yaml:"outcome"`
	Victim        VictimSpec     `json:"victim,omitempty" yaml:"victim,omitempty"`
	// SurvivalChance overrides the engine default when set.
	SurvivalChance     *float64 `json:"survivalChance,omitempty" yaml:"survival_chance,omitempty"`
	SelfSabotageChance float64  `json:"selfSabotageChance,omitempty" yaml:"self_sabotage_chance,omitempty"`

	// Func is an extra Go predicate; it never comes from content files.
	Func Condition `json:"-" yaml:"-"`
}

func (r Rule) timing() Timing {
	if r.Timing == "" {
		return TimingPreBattle
	}
	return r.Timing
}

// Validate checks the fields a rule cannot run without.
func (r Rule) Validate() error {
	if r.ID == "" {
		return duel.InvalidContentError("curbstomp rule without id")
	}
	switch r.Applicability.Kind {
	case ApplyCharacter, ApplyPair, ApplyElement, ApplyFaction, ApplyLocation, ApplyAll:
	default:
		return duel.InvalidContentError("curbstomp rule " + r.ID + " has unknown applicability " + string(r.Applicability.Kind))
	}
	if r.Applicability.Kind == ApplyPair && len(r.Applicability.Characters) != 2 {
		return duel.InvalidContentError("curbstomp rule " + r.ID + " pair needs two characters")
	}
	switch r.Outcome.Kind {
	case OutcomeInstantWin, OutcomeInstantLoss, OutcomeEnvironmentalKill, OutcomeMomentumAdvantage, OutcomeExternalIntervention:
	case OutcomeBuff, OutcomeDebuff:
		if r.Outcome.Effect == nil {
			return duel.InvalidContentError("curbstomp rule " + r.ID + " needs an effect")
		}
	default:
		return duel.InvalidContentError("curbstomp rule " + r.ID + " has unknown outcome " + string(r.Outcome.Kind))
	}
	if r.TriggerChance < 0 || r.TriggerChance > 1 {
		return duel.InvalidContentError("curbstomp rule " + r.ID + " trigger chance outside [0,1]")
	}
	return nil
}

// RuleSet is the registry shape: rules keyed by character and by location,
// plus rules that always apply.
type RuleSet struct {
	ByCharacter map[string][]Rule `json:"byCharacter,omitempty" yaml:"by_character,omitempty"`
	ByLocation  map[string][]Rule `json:"byLocation,omitempty" yaml:"by_location,omitempty"`
	Global      []Rule            `json:"global,omitempty" yaml:"global,omitempty"`
}

// For collects the rules relevant to one battle in a fixed order: first
// fighter, second fighter, location, global. Duplicate ids are dropped.
func (rs *RuleSet) For(a, b string, location string) []Rule {
	if rs == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var out []Rule
	add := func(list []Rule) {
		for _, r := range list {
			if _, dup := seen[r.ID]; dup {
				continue
			}
			seen[r.ID] = struct{}{}
			out = append(out, r)
		}
	}
	add(rs.ByCharacter[a])
	add(rs.ByCharacter[b])
	add(rs.ByLocation[location])
	add(rs.Global)
	return out
}

// Merge appends other's rules into rs.
func (rs *RuleSet) Merge(other RuleSet) {
	if rs.ByCharacter == nil {
		rs.ByCharacter = make(map[string][]Rule)
	}
	if rs.ByLocation == nil {
		rs.ByLocation = make(map[string][]Rule)
	}
	for k, v := range other.ByCharacter {
		rs.ByCharacter[k] = append(rs.ByCharacter[k], v...)
	}
	for k, v := range other.ByLocation {
		rs.ByLocation[k] = append(rs.ByLocation[k], v...)
	}
	rs.Global = append(rs.Global, other.Global...)
}
