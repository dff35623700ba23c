package duel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTemplate() *CharacterTemplate {
	return &CharacterTemplate{
		ID:        "ember",
		Name:      "Ember",
		Element:   ElementFire,
		PowerTier: 8,
		Mobility:  0.6,
		Moves: []Move{
			{Name: "fire_whip", Category: CategoryOffense, Power: 20, Element: ElementFire, Cost: 10, Tags: []string{"signature"}},
			{Name: "flame_shield", Category: CategoryDefense, Cost: 5},
		},
		Traits: []string{"prodigy"},
		Relationships: map[string]Relationship{
			"tide": {StressMultiplier: 1.5},
		},
	}
}

func TestNewFighter_CopiesTemplateByValue(t *testing.T) {
	tpl := sampleTemplate()
	f := NewFighter(tpl)

	f.Moves[0].Tags[0] = "mutated"
	f.Moves[0].Power = 99
	f.Traits[0] = "mutated"
	f.Personality.Aggression = 1

	assert.Equal(t, "signature", tpl.Moves[0].Tags[0])
	assert.Equal(t, 20.0, tpl.Moves[0].Power)
	assert.Equal(t, "prodigy", tpl.Traits[0])
	assert.Zero(t, tpl.Personality.Aggression)

	assert.Equal(t, StatMax, f.Health)
	assert.Equal(t, StatMax, f.Energy)
	assert.Equal(t, 50.0, f.Momentum)
}

func TestFighter_StatWritesStayInRange(t *testing.T) {
	f := NewFighter(sampleTemplate())
	f.AddHealth(-250)
	f.AddEnergy(400)
	f.AddMomentum(-1)
	assert.Equal(t, 0.0, f.Health)
	assert.Equal(t, 100.0, f.Energy)
	assert.Equal(t, 49.0, f.Momentum)
	assert.True(t, f.IsKO())
}

func TestFighter_BindOpponentDefaultsMultiplier(t *testing.T) {
	tpl := sampleTemplate()
	tpl.Relationships["stone"] = Relationship{AggressionBias: 0.2}
	f := NewFighter(tpl)

	f.BindOpponent("stone")
	require.NotNil(t, f.Relation)
	assert.Equal(t, 1.0, f.Relation.StressMultiplier)

	g := NewFighter(tpl)
	g.BindOpponent("nobody")
	assert.Nil(t, g.Relation)
}

func TestAIMemory_PredictsMostFrequentSuccessor(t *testing.T) {
	var m AIMemory
	for _, mv := range []string{"jab", "kick", "jab", "kick", "jab", "sweep", "jab"} {
		m.Observe("foe", mv)
	}
	p, ok := m.Predict("foe")
	require.True(t, ok)
	assert.Equal(t, "kick", p.Move)
	assert.InDelta(t, 2.0/3.0, p.Confidence, 1e-9)
	assert.Equal(t, 3, p.Samples)

	_, ok = m.Predict("stranger")
	assert.False(t, ok)
}

func TestBattleState_MarkedSetAndIDsAreBattleScoped(t *testing.T) {
	a := NewBattleState("battle-a", nil, TimeDay, NewRNG(true, 1))
	b := NewBattleState("battle-a", nil, TimeDay, NewRNG(true, 1))
	c := NewBattleState("battle-c", nil, TimeDay, NewRNG(true, 1))

	require.True(t, a.Mark("x"))
	require.False(t, a.Mark("x"))
	assert.True(t, a.IsMarked("x"))
	assert.False(t, b.IsMarked("x"))

	assert.Equal(t, a.NewID("effect"), b.NewID("effect"))
	assert.NotEqual(t, a.NewID("effect"), c.NewID("effect"))
}

func TestTacticalSlotHoldsOneState(t *testing.T) {
	f := NewFighter(sampleTemplate())
	f.SetTactical(&TacticalState{Name: "Exposed", Duration: 2, Intensity: 1.5})
	f.SetTactical(&TacticalState{Name: "Off-Balance", Duration: 1, Intensity: 1.2})
	require.NotNil(t, f.Tactical)
	assert.Equal(t, "Off-Balance", f.Tactical.Name)
	assert.True(t, f.HasOpening())

	expired := f.TickTactical()
	require.NotNil(t, expired)
	assert.Nil(t, f.Tactical)
}

func TestDisplayNameAndTurnLabel(t *testing.T) {
	assert.Equal(t, "Fire Whip", DisplayName("fire_whip"))
	assert.Equal(t, "3rd turn", TurnLabel(3))

	unnamed := NewFighter(&CharacterTemplate{ID: "storm_caller"})
	assert.Equal(t, "Storm Caller", unnamed.Name)
	assert.Equal(t, "storm_caller", unnamed.ID)
}
