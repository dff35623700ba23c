package effects

import (
	"duel-lite/duel"
)

// behavior is what one effect type does on each end-of-turn tick. healthDelta
// is applied to the holder; a nil tick means the effect only modifies stats
// through the helpers below.
type behavior struct {
	tick func(holder *duel.Fighter, e *duel.ActiveStatusEffect) (healthDelta float64)
	// consumedBySkip marks effects whose duration is spent by skipped segments
	// rather than by the end-of-turn clock in the turn they land.
	consumedBySkip bool
}

var behaviors = map[duel.EffectType]behavior{
	duel.EffectBurn: {tick: func(_ *duel.Fighter, e *duel.ActiveStatusEffect) float64 {
		return -e.Potency
	}},
	duel.EffectHealOverTime: {tick: func(_ *duel.Fighter, e *duel.ActiveStatusEffect) float64 {
		return e.Potency
	}},
	// A stun landing mid-turn must still cost the holder its next segment, so
	// it outlives the end-of-turn tick of the turn it lands in.
	duel.EffectStun:        {consumedBySkip: true},
	duel.EffectDefenseUp:   {},
	duel.EffectDefenseDown: {},
	duel.EffectAttackUp:    {},
	duel.EffectAttackDown:  {},
	duel.EffectSlow:        {},
	duel.EffectCritUp:      {},
}

const (
	crisisBurnTicks     = 3
	crisisPotency       = 0.15
	crisisDuration      = 2
	crisisSource        = "burn_crisis"
	fusionSource        = "fusion"
	minMultiplier       = 0.25
	maxMultiplier       = 3.0
	minMobilityFraction = 0.1
)

// Apply puts a new effect on target. A Stun extends an existing stun; the same
// type from the same source refreshes duration and potency instead of stacking.
func Apply(state *duel.BattleState, target *duel.Fighter, spec duel.EffectSpec, source string) *duel.ActiveStatusEffect {
	if target == nil || spec.Type == 0 {
		return nil
	}
	if _, ok := behaviors[spec.Type]; !ok {
		return nil
	}
	dur := spec.Duration
	if dur <= 0 {
		dur = 1
	}
	pot := spec.Potency
	if pot < 0 {
		pot = 0
	}
	turn := 0
	if state != nil {
		turn = state.Turn
	}

	for i := range target.Effects {
		e := &target.Effects[i]
		if e.Type != spec.Type {
			continue
		}
		switch {
		case e.Type == duel.EffectStun:
			e.Duration += dur
		case e.Source == source:
			if dur > e.Duration {
				e.Duration = dur
			}
			if pot > e.Potency {
				e.Potency = pot
			}
		default:
			continue
		}
		e.AppliedTurn = turn
		emitApplied(state, target, e)
		return e
	}

	id := ""
	if state != nil {
		id = state.NewID("effect")
	}
	target.Effects = append(target.Effects, duel.ActiveStatusEffect{
		ID:          id,
		Type:        spec.Type,
		Category:    duel.EffectCategoryOf(spec.Type),
		Duration:    dur,
		Potency:     pot,
		Source:      source,
		AppliedTurn: turn,
	})
	e := &target.Effects[len(target.Effects)-1]
	emitApplied(state, target, e)
	return e
}

func emitApplied(state *duel.BattleState, target *duel.Fighter, e *duel.ActiveStatusEffect) {
	state.Emit(duel.Event{
		Type:   duel.EventEffectApplied,
		Target: target.ID,
		Move:   e.Source,
		Deltas: map[string]float64{"duration": float64(e.Duration), "potency": e.Potency},
		Text:   e.Type.String(),
	})
}

// Tick runs the end-of-turn pass for one fighter: behaviors, durations and
// expiry, then the fusion table, then the burn crisis rule. A crisis debuff
// therefore stands for at least one turn before it can fuse.
func Tick(state *duel.BattleState, f *duel.Fighter) {
	if f == nil {
		return
	}
	burning := false
	kept := f.Effects[:0]
	var expired []duel.ActiveStatusEffect
	for _, e := range f.Effects {
		b := behaviors[e.Type]
		if e.Type == duel.EffectBurn {
			burning = true
		}
		if b.tick != nil {
			d := b.tick(f, &e)
			if d != 0 {
				before := f.Health
				f.AddHealth(d)
				state.Emit(duel.Event{
					Type:   duel.EventEffectTick,
					Target: f.ID,
					Move:   e.Source,
					Deltas: map[string]float64{"health": f.Health - before},
					Text:   e.Type.String(),
				})
			}
		}
		e.Ticks++
		if !(b.consumedBySkip && state != nil && e.AppliedTurn == state.Turn) {
			e.Duration--
		}
		if e.Duration <= 0 {
			expired = append(expired, e)
			continue
		}
		kept = append(kept, e)
	}
	f.Effects = kept
	for _, e := range expired {
		emitExpired(state, f, e)
	}

	Fuse(state, f)
	applyCrisis(state, f, burning)
}

func emitExpired(state *duel.BattleState, f *duel.Fighter, e duel.ActiveStatusEffect) {
	state.Emit(duel.Event{
		Type:   duel.EventEffectExpired,
		Target: f.ID,
		Move:   e.Source,
		Text:   e.Type.String(),
	})
}

// applyCrisis adds the derived defense debuff once per unbroken burn streak.
func applyCrisis(state *duel.BattleState, f *duel.Fighter, burning bool) {
	if !burning {
		f.BurnStreak = 0
		f.CrisisApplied = false
		return
	}
	f.BurnStreak++
	if f.BurnStreak < crisisBurnTicks || f.CrisisApplied {
		return
	}
	f.CrisisApplied = true
	state.Emit(duel.Event{
		Type:   duel.EventEffectCrisis,
		Target: f.ID,
		Deltas: map[string]float64{"burn_ticks": float64(f.BurnStreak)},
		Text:   "burn_crisis",
	})
	Apply(state, f, duel.EffectSpec{Type: duel.EffectDefenseDown, Potency: crisisPotency, Duration: crisisDuration}, crisisSource)
}

// ConsumeStun spends one stunned segment. It returns false when the fighter
// was not stunned.
func ConsumeStun(state *duel.BattleState, f *duel.Fighter) bool {
	for i := range f.Effects {
		e := &f.Effects[i]
		if e.Type != duel.EffectStun {
			continue
		}
		e.Duration--
		if e.Duration <= 0 {
			gone := *e
			f.Effects = append(f.Effects[:i], f.Effects[i+1:]...)
			emitExpired(state, f, gone)
		}
		return true
	}
	return false
}

func sum(f *duel.Fighter, t duel.EffectType) float64 {
	if f == nil {
		return 0
	}
	total := 0.0
	for _, e := range f.Effects {
		if e.Type == t {
			total += e.Potency
		}
	}
	return total
}

// AttackMultiplier scales outgoing damage from AttackUp/AttackDown.
func AttackMultiplier(attacker *duel.Fighter) float64 {
	m := (1 + sum(attacker, duel.EffectAttackUp)) * (1 - sum(attacker, duel.EffectAttackDown))
	return duel.ClampRange(m, minMultiplier, maxMultiplier)
}

// DefenseTakenMultiplier scales incoming damage from DefenseDown/DefenseUp.
func DefenseTakenMultiplier(defender *duel.Fighter) float64 {
	m := (1 + sum(defender, duel.EffectDefenseDown)) * (1 - sum(defender, duel.EffectDefenseUp))
	return duel.ClampRange(m, minMultiplier, maxMultiplier)
}

// CritBonus is the additive crit chance from CritUp.
func CritBonus(attacker *duel.Fighter) float64 {
	return sum(attacker, duel.EffectCritUp)
}

// MobilityMultiplier shrinks mobility checks while slowed.
func MobilityMultiplier(f *duel.Fighter) float64 {
	m := 1.0
	if f == nil {
		return m
	}
	for _, e := range f.Effects {
		if e.Type == duel.EffectSlow {
			m *= 1 - duel.Clamp01(e.Potency)
		}
	}
	return duel.ClampRange(m, minMobilityFraction, 1)
}

func IsStunned(f *duel.Fighter) bool {
	return f != nil && f.HasEffect(duel.EffectStun)
}
