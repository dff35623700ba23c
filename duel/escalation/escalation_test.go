package escalation

import (
	"testing"

	"duel-lite/duel"

	"github.com/stretchr/testify/assert"
)

func TestTierFor(t *testing.T) {
	cases := map[float64]duel.EscalationTier{
		100: duel.EscalationFresh,
		80:  duel.EscalationFresh,
		79:  duel.EscalationWinded,
		45:  duel.EscalationInjured,
		20:  duel.EscalationExhausted,
		3:   duel.EscalationDesperate,
	}
	for health, want := range cases {
		assert.Equalf(t, want, TierFor(health), "health %v", health)
	}
}

func TestMachineNeverWalksBack(t *testing.T) {
	s := duel.NewBattleState("esc", nil, duel.TimeDay, duel.NewRNG(true, 1))
	f := duel.NewFighter(&duel.CharacterTemplate{ID: "a"})
	m := NewMachine(f)

	f.SetHealth(35)
	m.Update(s)
	assert.Equal(t, duel.EscalationExhausted, f.Escalation)
	assert.Len(t, s.Log, 3)

	f.SetHealth(90)
	m.Update(s)
	assert.Equal(t, duel.EscalationExhausted, m.Tier())
	assert.Len(t, s.Log, 3)
}

func TestDamageMultiplier(t *testing.T) {
	assert.Equal(t, 1.0, DamageMultiplier(duel.EscalationWinded))
	assert.Equal(t, 1.2, DamageMultiplier(duel.EscalationDesperate))
	assert.Equal(t, 1.0, DamageMultiplier(duel.EscalationTier(99)))
}
