package curbstomp

import "duel-lite/duel"

// Context is what a condition sees: the protagonist being evaluated, the
// other fighter and the battle.
type Context struct {
	Protagonist *duel.Fighter
	Opponent    *duel.Fighter
	State       *duel.BattleState
}

// Condition is an extra predicate a rule must satisfy per protagonist.
type Condition interface {
	Holds(ctx Context) bool
}

// FuncCondition adapts a plain function.
type FuncCondition func(ctx Context) bool

func (f FuncCondition) Holds(ctx Context) bool { return f(ctx) }

// ConditionSpec is the content form of a condition. Every set field must hold.
type ConditionSpec struct {
	OpponentIsBender       *bool          `json:"opponentIsBender,omitempty" yaml:"opponent_is_bender,omitempty"`
	PowerTierGapAtLeast    int            `json:"powerTierGapAtLeast,omitempty" yaml:"power_tier_gap_at_least,omitempty"`
	ProtagonistHealthBelow float64        `json:"protagonistHealthBelow,omitempty" yaml:"protagonist_health_below,omitempty"`
	OpponentElement        duel.Element   `json:"opponentElement,omitempty" yaml:"opponent_element,omitempty"`
	TimeOfDay              duel.TimeOfDay `json:"timeOfDay,omitempty" yaml:"time_of_day,omitempty"`
	TurnAtLeast            int            `json:"turnAtLeast,omitempty" yaml:"turn_at_least,omitempty"`
	LocationTag            string         `json:"locationTag,omitempty" yaml:"location_tag,omitempty"`
}

func (c *ConditionSpec) Holds(ctx Context) bool {
	if c == nil {
		return true
	}
	p, o := ctx.Protagonist, ctx.Opponent
	if p == nil || o == nil {
		return false
	}
	if c.OpponentIsBender != nil && o.Template.IsBender() != *c.OpponentIsBender {
		return false
	}
	if c.PowerTierGapAtLeast > 0 && tier(p)-tier(o) < c.PowerTierGapAtLeast {
		return false
	}
	if c.ProtagonistHealthBelow > 0 && p.Health >= c.ProtagonistHealthBelow {
		return false
	}
	if c.OpponentElement != "" && o.Element() != c.OpponentElement {
		return false
	}
	if ctx.State != nil {
		if c.TimeOfDay != "" && ctx.State.TimeOfDay != c.TimeOfDay {
			return false
		}
		if c.TurnAtLeast > 0 && ctx.State.Turn < c.TurnAtLeast {
			return false
		}
	}
	if c.LocationTag != "" && (ctx.State == nil || !ctx.State.Location.HasTag(c.LocationTag)) {
		return false
	}
	return true
}

func tier(f *duel.Fighter) int {
	if f.Template == nil {
		return 0
	}
	return f.Template.PowerTier
}

// Always holds; handy for tests and unconditional rules built in code.
var Always = FuncCondition(func(Context) bool { return true })
