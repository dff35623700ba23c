package mental

import (
	"context"

	"duel-lite/duel"

	"github.com/looplab/fsm"
)

// Stress thresholds for each level.
const (
	StressedAt = 30.0
	ShakenAt   = 60.0
	BrokenAt   = 90.0
)

// Stress inputs before resilience and relationship scaling.
const (
	StressOwnFailure    = 5.0
	StressLowMomentum   = 3.0
	StressHoldingOpen   = 2.0
	StressHoldingEdge   = 1.0
	lowMomentumBoundary = 30.0
)

var hitStress = map[duel.Effectiveness]float64{
	duel.EffectivenessWeak:     2,
	duel.EffectivenessNormal:   4,
	duel.EffectivenessStrong:   7,
	duel.EffectivenessCritical: 12,
}

const eventEscalate = "escalate"

// LevelFor maps a stress score to its level.
func LevelFor(stress float64) duel.MentalLevel {
	switch {
	case stress >= BrokenAt:
		return duel.MentalBroken
	case stress >= ShakenAt:
		return duel.MentalShaken
	case stress >= StressedAt:
		return duel.MentalStressed
	default:
		return duel.MentalStable
	}
}

// Machine tracks one fighter's psychology for one battle. Levels only move
// forward: the state machine has no event leading back.
type Machine struct {
	fighter   *duel.Fighter
	emotional bool
	sm        *fsm.FSM
}

func NewMachine(f *duel.Fighter, emotional bool) *Machine {
	m := &Machine{fighter: f, emotional: emotional}
	m.sm = fsm.NewFSM(
		f.Mental.Level.String(),
		fsm.Events{
			{Name: eventEscalate, Src: []string{duel.MentalStable.String()}, Dst: duel.MentalStressed.String()},
			{Name: eventEscalate, Src: []string{duel.MentalStressed.String()}, Dst: duel.MentalShaken.String()},
			{Name: eventEscalate, Src: []string{duel.MentalShaken.String()}, Dst: duel.MentalBroken.String()},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				from, _ := duel.ParseMentalLevel(e.Src)
				to, _ := duel.ParseMentalLevel(e.Dst)
				m.fighter.Mental.Level = to
				m.fighter.MentalShift = &duel.MentalShift{From: from, To: to}
			},
		},
	)
	return m
}

func (m *Machine) Level() duel.MentalLevel {
	lvl, _ := duel.ParseMentalLevel(m.sm.Current())
	return lvl
}

// Scale applies resilience and, in emotional mode, the relationship multiplier.
func (m *Machine) Scale(raw float64) float64 {
	if raw <= 0 {
		return 0
	}
	g := raw * (1 - 0.5*m.fighter.Resilience())
	if m.emotional && m.fighter.Relation != nil && m.fighter.Relation.StressMultiplier > 0 {
		g *= m.fighter.Relation.StressMultiplier
	}
	return g
}

// AddStress scales raw, adds it and advances the level as far as the new
// score reaches. Stress never decreases.
func (m *Machine) AddStress(state *duel.BattleState, raw float64, reason string) float64 {
	gain := m.Scale(raw)
	if gain <= 0 {
		return 0
	}
	f := m.fighter
	before := f.Mental.Stress
	f.Mental.Stress = duel.Clamp(before + gain)
	state.Emit(duel.Event{
		Type:   duel.EventStress,
		Target: f.ID,
		Deltas: map[string]float64{"stress": f.Mental.Stress - before},
		Text:   reason,
	})

	target := LevelFor(f.Mental.Stress)
	for m.Level() < target {
		from := m.Level()
		if err := m.sm.Event(context.Background(), eventEscalate); err != nil {
			break
		}
		state.Emit(duel.Event{
			Type:   duel.EventMentalShift,
			Target: f.ID,
			Text:   from.String() + "->" + m.Level().String(),
		})
	}
	return gain
}

// OnHitTaken adds stress for an incoming hit of the given tier.
func (m *Machine) OnHitTaken(state *duel.BattleState, eff duel.Effectiveness) {
	if raw, ok := hitStress[eff]; ok {
		m.AddStress(state, raw, "hit_"+eff.String())
	}
}

// OnOwnFailure covers punished moves, weak results and failed repositions.
func (m *Machine) OnOwnFailure(state *duel.BattleState, reason string) {
	m.AddStress(state, StressOwnFailure, reason)
}

// EndOfTurn adds the situational stress sources.
func (m *Machine) EndOfTurn(state *duel.BattleState) {
	f := m.fighter
	if f.Momentum < lowMomentumBoundary {
		m.AddStress(state, StressLowMomentum, "low_momentum")
	}
	// Any held tactical state weighs on the fighter; an opening weighs more.
	switch {
	case f.HasOpening():
		m.AddStress(state, StressHoldingOpen, "exposed")
	case f.Tactical != nil:
		m.AddStress(state, StressHoldingEdge, "holding "+f.Tactical.Name)
	}
	if m.emotional && state != nil && state.Location != nil && f.Template != nil {
		if v := f.Template.LocationStress[state.Location.ID]; v > 0 {
			m.AddStress(state, v, "location:"+state.Location.ID)
		}
	}
}
