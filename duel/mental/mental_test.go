package mental

import (
	"testing"

	"duel-lite/duel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fighter(resilience float64) *duel.Fighter {
	return duel.NewFighter(&duel.CharacterTemplate{
		ID:             "kato",
		Resilience:     resilience,
		LocationStress: map[string]float64{"harbor": 6},
		Relationships:  map[string]duel.Relationship{"rival": {StressMultiplier: 2}},
	})
}

func TestLevelFor(t *testing.T) {
	assert.Equal(t, duel.MentalStable, LevelFor(29.9))
	assert.Equal(t, duel.MentalStressed, LevelFor(30))
	assert.Equal(t, duel.MentalShaken, LevelFor(60))
	assert.Equal(t, duel.MentalBroken, LevelFor(95))
}

func TestStressIsMonotonicAndLevelsOnlyClimb(t *testing.T) {
	s := duel.NewBattleState("mental", nil, duel.TimeDay, duel.NewRNG(true, 7))
	f := fighter(0)
	m := NewMachine(f, false)

	prevStress, prevLevel := 0.0, duel.MentalStable
	for i := 0; i < 20; i++ {
		m.OnHitTaken(s, duel.EffectivenessCritical)
		require.GreaterOrEqual(t, f.Mental.Stress, prevStress)
		require.GreaterOrEqual(t, f.Mental.Level, prevLevel)
		prevStress, prevLevel = f.Mental.Stress, f.Mental.Level
	}
	assert.Equal(t, duel.MentalBroken, f.Mental.Level)
	assert.Equal(t, duel.MentalBroken, m.Level())
	assert.Equal(t, 100.0, f.Mental.Stress)
	assert.Zero(t, m.AddStress(s, -10, "relief"))
	assert.Equal(t, 100.0, f.Mental.Stress)
}

func TestBigJumpWalksEveryLevel(t *testing.T) {
	s := duel.NewBattleState("mental", nil, duel.TimeDay, duel.NewRNG(true, 7))
	f := fighter(0)
	m := NewMachine(f, false)

	m.AddStress(s, 65, "shock")
	assert.Equal(t, duel.MentalShaken, f.Mental.Level)
	require.NotNil(t, f.MentalShift)
	assert.Equal(t, duel.MentalStressed, f.MentalShift.From)
	assert.Equal(t, duel.MentalShaken, f.MentalShift.To)

	shifts := 0
	for _, e := range s.Log {
		if e.Type == duel.EventMentalShift {
			shifts++
		}
	}
	assert.Equal(t, 2, shifts)
}

func TestResilienceAndRelationshipScaling(t *testing.T) {
	f := fighter(1)
	f.BindOpponent("rival")

	calm := NewMachine(f, false)
	assert.InDelta(t, 5, calm.Scale(10), 1e-9)

	heated := NewMachine(f, true)
	assert.InDelta(t, 10, heated.Scale(10), 1e-9)
}

func TestEndOfTurnSources(t *testing.T) {
	loc := &duel.Location{ID: "harbor"}
	s := duel.NewBattleState("mental", loc, duel.TimeDay, duel.NewRNG(true, 7))

	f := fighter(0)
	f.SetMomentum(20)
	f.SetTactical(&duel.TacticalState{Name: "Exposed", Duration: 2, Intensity: 1.5})
	NewMachine(f, true).EndOfTurn(s)
	assert.InDelta(t, 3+2+6, f.Mental.Stress, 1e-9)

	g := fighter(0)
	g.SetMomentum(20)
	NewMachine(g, false).EndOfTurn(s)
	assert.InDelta(t, 3, g.Mental.Stress, 1e-9)

	h := fighter(0)
	h.SetTactical(&duel.TacticalState{Name: "Repositioned", Duration: 2, Intensity: 1.25, IsPositive: true})
	NewMachine(h, false).EndOfTurn(s)
	assert.InDelta(t, StressHoldingEdge, h.Mental.Stress, 1e-9)
	assert.Equal(t, "holding Repositioned", s.Log[len(s.Log)-1].Text)
}
