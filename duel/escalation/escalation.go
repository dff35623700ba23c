package escalation

import (
	"context"

	"duel-lite/duel"

	"github.com/looplab/fsm"
)

// Health floors for each tier; below the last one a fighter is desperate.
var tierFloors = []struct {
	tier  duel.EscalationTier
	floor float64
}{
	{duel.EscalationFresh, 80},
	{duel.EscalationWinded, 60},
	{duel.EscalationInjured, 40},
	{duel.EscalationExhausted, 20},
}

var damageMultipliers = map[duel.EscalationTier]float64{
	duel.EscalationFresh:     1.0,
	duel.EscalationWinded:    1.0,
	duel.EscalationInjured:   1.05,
	duel.EscalationExhausted: 1.12,
	duel.EscalationDesperate: 1.2,
}

const eventWorsen = "worsen"

// TierFor maps current health to a tier.
func TierFor(health float64) duel.EscalationTier {
	for _, tf := range tierFloors {
		if health >= tf.floor {
			return tf.tier
		}
	}
	return duel.EscalationDesperate
}

// DamageMultiplier is the incoming damage scale for a tier.
func DamageMultiplier(t duel.EscalationTier) float64 {
	if m, ok := damageMultipliers[t]; ok {
		return m
	}
	return 1
}

// Machine follows one fighter's physical condition. Healing does not walk
// the tier back.
type Machine struct {
	fighter *duel.Fighter
	sm      *fsm.FSM
}

func NewMachine(f *duel.Fighter) *Machine {
	order := []duel.EscalationTier{
		duel.EscalationFresh, duel.EscalationWinded, duel.EscalationInjured,
		duel.EscalationExhausted, duel.EscalationDesperate,
	}
	events := make(fsm.Events, 0, len(order)-1)
	for i := 0; i+1 < len(order); i++ {
		events = append(events, fsm.EventDesc{Name: eventWorsen, Src: []string{order[i].String()}, Dst: order[i+1].String()})
	}
	m := &Machine{fighter: f}
	m.sm = fsm.NewFSM(f.Escalation.String(), events, fsm.Callbacks{
		"enter_state": func(_ context.Context, e *fsm.Event) {
			t, _ := duel.ParseEscalationTier(e.Dst)
			m.fighter.Escalation = t
		},
	})
	return m
}

func (m *Machine) Tier() duel.EscalationTier {
	t, _ := duel.ParseEscalationTier(m.sm.Current())
	return t
}

// Update advances the tier to match current health and logs each step.
func (m *Machine) Update(state *duel.BattleState) {
	target := TierFor(m.fighter.Health)
	for m.Tier() < target {
		from := m.Tier()
		if err := m.sm.Event(context.Background(), eventWorsen); err != nil {
			return
		}
		state.Emit(duel.Event{
			Type:   duel.EventEscalation,
			Target: m.fighter.ID,
			Deltas: map[string]float64{"health": m.fighter.Health},
			Text:   from.String() + "->" + m.Tier().String(),
		})
	}
}
