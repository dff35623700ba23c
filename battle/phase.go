package battle

import (
	"context"

	"duel-lite/duel"

	"github.com/looplab/fsm"
)

const (
	earlyPhaseTurns = 5
	latePhaseHealth = 35.0
)

const (
	eventToMid  = "to_mid"
	eventToLate = "to_late"
)

// phaseMachine moves early -> mid -> late and never back.
type phaseMachine struct {
	sm       *fsm.FSM
	maxTurns int
}

func newPhaseMachine(maxTurns int) *phaseMachine {
	return &phaseMachine{
		maxTurns: maxTurns,
		sm: fsm.NewFSM(
			duel.PhaseEarly.String(),
			fsm.Events{
				{Name: eventToMid, Src: []string{duel.PhaseEarly.String()}, Dst: duel.PhaseMid.String()},
				{Name: eventToLate, Src: []string{duel.PhaseEarly.String(), duel.PhaseMid.String()}, Dst: duel.PhaseLate.String()},
			},
			fsm.Callbacks{},
		),
	}
}

// target is the phase the battle should be in at this turn.
func (p *phaseMachine) target(turn int, a, b *duel.Fighter) duel.Phase {
	if float64(turn) > float64(p.maxTurns)*2/3 || a.Health < latePhaseHealth || b.Health < latePhaseHealth {
		return duel.PhaseLate
	}
	if turn > earlyPhaseTurns {
		return duel.PhaseMid
	}
	return duel.PhaseEarly
}

// update is called once per turn and logs a change.
func (p *phaseMachine) update(state *duel.BattleState, a, b *duel.Fighter) {
	want := p.target(state.Turn, a, b)
	if want <= state.Phase {
		return
	}
	event := eventToMid
	if want == duel.PhaseLate {
		event = eventToLate
	}
	from := state.Phase
	if err := p.sm.Event(context.Background(), event); err != nil {
		return
	}
	state.Phase = want
	state.Emit(duel.Event{
		Type: duel.EventPhaseChange,
		Text: from.String() + "->" + want.String() + " (" + duel.TurnLabel(state.Turn) + ")",
	})
}
