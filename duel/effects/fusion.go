package effects

import "duel-lite/duel"

// Recipe consumes two coexisting effects and synthesizes a new one.
type Recipe struct {
	Name   string
	Inputs [2]duel.EffectType
	Chance float64
	Result func(a, b duel.ActiveStatusEffect) duel.EffectSpec
}

// Recipes is evaluated in order, once per tick.
var Recipes = []Recipe{
	{
		Name:   "scorched_guard",
		Inputs: [2]duel.EffectType{duel.EffectBurn, duel.EffectDefenseDown},
		Chance: 1.0,
		Result: func(_, _ duel.ActiveStatusEffect) duel.EffectSpec {
			return duel.EffectSpec{Type: duel.EffectStun, Potency: 1, Duration: 1}
		},
	},
	{
		Name:   "focused_fury",
		Inputs: [2]duel.EffectType{duel.EffectAttackUp, duel.EffectCritUp},
		Chance: 0.5,
		Result: func(a, b duel.ActiveStatusEffect) duel.EffectSpec {
			return duel.EffectSpec{Type: duel.EffectAttackUp, Potency: a.Potency + b.Potency, Duration: maxInt(a.Duration, b.Duration)}
		},
	},
	{
		Name:   "steady_bulwark",
		Inputs: [2]duel.EffectType{duel.EffectHealOverTime, duel.EffectDefenseUp},
		Chance: 0.5,
		Result: func(_, b duel.ActiveStatusEffect) duel.EffectSpec {
			return duel.EffectSpec{Type: duel.EffectDefenseUp, Potency: b.Potency + 0.1, Duration: b.Duration}
		},
	},
}

// Fuse checks every recipe against the fighter's effects. A recipe whose
// inputs are both present rolls its chance; on success both inputs are
// removed and the product applied.
func Fuse(state *duel.BattleState, f *duel.Fighter) {
	if f == nil {
		return
	}
	for _, r := range Recipes {
		ai, bi := indexOf(f, r.Inputs[0]), indexOf(f, r.Inputs[1])
		if ai < 0 || bi < 0 {
			continue
		}
		if state == nil || !duel.Roll(state.RNG(), r.Chance) {
			continue
		}
		a, b := f.Effects[ai], f.Effects[bi]
		removeAt(f, ai, bi)
		spec := r.Result(a, b)
		state.Emit(duel.Event{
			Type:   duel.EventEffectFused,
			Target: f.ID,
			Move:   r.Name,
			Text:   a.Type.String() + "+" + b.Type.String() + "=" + spec.Type.String(),
		})
		Apply(state, f, spec, fusionSource)
	}
}

func indexOf(f *duel.Fighter, t duel.EffectType) int {
	for i, e := range f.Effects {
		if e.Type == t {
			return i
		}
	}
	return -1
}

func removeAt(f *duel.Fighter, i, j int) {
	kept := make([]duel.ActiveStatusEffect, 0, len(f.Effects))
	for k, e := range f.Effects {
		if k != i && k != j {
			kept = append(kept, e)
		}
	}
	f.Effects = kept
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
