package curbstomp

import (
	"testing"

	"duel-lite/duel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func pair() (*duel.Fighter, *duel.Fighter) {
	ember := duel.NewFighter(&duel.CharacterTemplate{ID: "ember", Element: duel.ElementFire, PowerTier: 8, Faction: "sun_court"})
	blade := duel.NewFighter(&duel.CharacterTemplate{ID: "blade", Element: duel.ElementNone, PowerTier: 3, Faction: "free_swords"})
	return ember, blade
}

func TestDesertRuleMarksTheNonBender(t *testing.T) {
	desert := &duel.Location{ID: "desert", Fragility: 1}
	s := duel.NewBattleState("desert-test", desert, duel.TimeDay, duel.NewRNG(true, 42))
	ember, blade := pair()
	rule := Rule{
		ID:             "sun_scorched",
		Applicability:  Applicability{Kind: ApplyAll},
		TriggerChance:  1,
		When:           &ConditionSpec{OpponentIsBender: ptr(true)},
		Outcome:        Outcome{Kind: OutcomeInstantLoss},
		SurvivalChance: ptr(0.0),
	}
	require.NoError(t, rule.Validate())

	res := NewEngine(DefaultSurvivalChance, nil).PreBattle(s, []Rule{rule}, ember, blade)
	require.Len(t, res, 1)
	assert.Equal(t, "blade", res[0].Protagonist)
	assert.Equal(t, "blade", res[0].Victim)
	assert.True(t, s.IsMarked("blade"))
	assert.False(t, s.IsMarked("ember"))
}

func TestCertainRuleAppliesToEveryMatchingProtagonist(t *testing.T) {
	rule := Rule{
		ID:            "war_cry",
		Applicability: Applicability{Kind: ApplyAll},
		TriggerChance: 1,
		Func:          Always,
		Outcome:       Outcome{Kind: OutcomeBuff, Effect: &duel.EffectSpec{Type: duel.EffectAttackUp, Potency: 0.1, Duration: 2}},
	}
	eng := NewEngine(0, nil)
	for seed := int64(0); seed < 50; seed++ {
		s := duel.NewBattleState("certain", nil, duel.TimeDay, duel.NewRNG(true, seed))
		a, b := pair()
		res := eng.PreBattle(s, []Rule{rule}, a, b)
		require.Len(t, res, 2)
		assert.True(t, a.HasEffect(duel.EffectAttackUp))
		assert.True(t, b.HasEffect(duel.EffectAttackUp))
	}
}

func TestMiraculousSurvivalCancelsLethalOutcome(t *testing.T) {
	s := duel.NewBattleState("miracle", nil, duel.TimeDay, duel.NewRNG(true, 1))
	a, b := pair()
	rule := Rule{
		ID:             "overwhelm",
		Applicability:  Applicability{Kind: ApplyCharacter, Characters: []string{"ember"}},
		TriggerChance:  1,
		Outcome:        Outcome{Kind: OutcomeInstantWin},
		SurvivalChance: ptr(1.0),
	}
	res := NewEngine(0, nil).PreBattle(s, []Rule{rule}, a, b)
	require.Len(t, res, 1)
	assert.True(t, res[0].Survived)
	assert.Empty(t, s.Marked())
	assert.Equal(t, duel.EventMiracle, s.Log[len(s.Log)-1].Type)
}

func TestForbiddingLocationSkipsPreBattleRules(t *testing.T) {
	loc := &duel.Location{ID: "temple", ForbidPreBattleOverrides: true}
	s := duel.NewBattleState("temple", loc, duel.TimeDay, duel.NewRNG(true, 1))
	a, b := pair()
	rule := Rule{ID: "x", Applicability: Applicability{Kind: ApplyAll}, TriggerChance: 1, Outcome: Outcome{Kind: OutcomeInstantWin}}
	eng := NewEngine(0, nil)
	assert.Empty(t, eng.PreBattle(s, []Rule{rule}, a, b))

	rule.Timing = TimingSegment
	assert.Len(t, eng.Segment(s, []Rule{rule}, a, b), 2)
}

func TestSelfSabotageSwapsVictim(t *testing.T) {
	s := duel.NewBattleState("sabotage", nil, duel.TimeDay, &duel.FixedRNG{Values: []float64{0.0}})
	a, b := pair()
	rule := Rule{
		ID:                 "reckless",
		Applicability:      Applicability{Kind: ApplyPair, Characters: []string{"ember", "blade"}},
		TriggerChance:      1,
		Outcome:            Outcome{Kind: OutcomeInstantWin},
		SurvivalChance:     ptr(0.0),
		SelfSabotageChance: 1,
	}
	res := NewEngine(0, nil).PreBattle(s, []Rule{rule}, a, b)
	require.Len(t, res, 1)
	assert.True(t, res[0].SelfSabotaged)
	assert.True(t, s.IsMarked("ember"))
	assert.False(t, s.IsMarked("blade"))
}

func TestVictimSelectors(t *testing.T) {
	a, b := pair()
	rng := &duel.FixedRNG{Values: []float64{0.2, 0.7}}

	assert.Same(t, b, selectVictim(rng, VictimSpec{Kind: VictimID, ID: "blade"}, OutcomeInstantWin, a, b))
	assert.Same(t, a, selectVictim(rng, VictimSpec{Kind: VictimCoinFlip}, OutcomeInstantWin, a, b))
	assert.Same(t, b, selectVictim(rng, VictimSpec{Kind: VictimCoinFlip}, OutcomeInstantWin, a, b))

	weighted := VictimSpec{Kind: VictimDistribution, Distribution: map[string]float64{"opponent": 3, "protagonist": 1}}
	// sorted keys: opponent [0,3), protagonist [3,4)
	assert.Same(t, b, selectVictim(&duel.FixedRNG{Values: []float64{0.5}}, weighted, OutcomeInstantWin, a, b))
	assert.Same(t, a, selectVictim(&duel.FixedRNG{Values: []float64{0.9}}, weighted, OutcomeInstantWin, a, b))

	broken := VictimSpec{Kind: VictimDistribution, Distribution: map[string]float64{"ghost": 1}}
	assert.Same(t, a, selectVictim(&duel.FixedRNG{Values: []float64{0.1}}, broken, OutcomeInstantWin, a, b))

	assert.Same(t, a, selectVictim(rng, VictimSpec{}, OutcomeInstantLoss, a, b))
	assert.Same(t, b, selectVictim(rng, VictimSpec{}, OutcomeDebuff, a, b))
}

func TestApplicabilityKinds(t *testing.T) {
	s := duel.NewBattleState("app", &duel.Location{ID: "harbor"}, duel.TimeDay, duel.NewRNG(true, 1))
	a, b := pair()

	got := eligible(Applicability{Kind: ApplyFaction, Faction: "sun_court", Negate: true}, s, a, b)
	require.Len(t, got, 1)
	assert.Same(t, b, got[0])

	got = eligible(Applicability{Kind: ApplyElement, Element: duel.ElementFire}, s, a, b)
	require.Len(t, got, 1)
	assert.Same(t, a, got[0])

	assert.Len(t, eligible(Applicability{Kind: ApplyLocation, Location: "harbor"}, s, a, b), 2)
	assert.Empty(t, eligible(Applicability{Kind: ApplyLocation, Location: "desert"}, s, a, b))
	assert.Empty(t, eligible(Applicability{Kind: ApplyPair, Characters: []string{"ember", "tide"}}, s, a, b))
}

func TestExternalInterventionForcesDraw(t *testing.T) {
	s := duel.NewBattleState("council", nil, duel.TimeDay, duel.NewRNG(true, 1))
	a, b := pair()
	rule := Rule{
		ID:            "council_steps_in",
		Applicability: Applicability{Kind: ApplyCharacter, Characters: []string{"blade"}},
		Timing:        TimingSegment,
		TriggerChance: 1,
		When:          &ConditionSpec{ProtagonistHealthBelow: 101},
		Outcome:       Outcome{Kind: OutcomeExternalIntervention, Text: "the council halts the duel"},
	}
	NewEngine(0, nil).Segment(s, []Rule{rule}, a, b)
	assert.True(t, s.ForcedDraw)
	assert.Equal(t, "the council halts the duel", s.ForcedDrawReason)
}

func TestRuleSetForOrdersAndDedupes(t *testing.T) {
	shared := Rule{ID: "shared"}
	rs := RuleSet{
		ByCharacter: map[string][]Rule{"ember": {shared, {ID: "ember_only"}}, "blade": {shared}},
		ByLocation:  map[string][]Rule{"desert": {{ID: "sandstorm"}}},
		Global:      []Rule{{ID: "global"}},
	}
	var ids []string
	for _, r := range rs.For("ember", "blade", "desert") {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"shared", "ember_only", "sandstorm", "global"}, ids)
}

func TestValidate(t *testing.T) {
	assert.Error(t, Rule{}.Validate())
	assert.Error(t, Rule{ID: "x", Applicability: Applicability{Kind: "nobody"}}.Validate())
	assert.Error(t, Rule{ID: "x", Applicability: Applicability{Kind: ApplyAll}, Outcome: Outcome{Kind: OutcomeBuff}}.Validate())
	assert.Error(t, Rule{ID: "x", Applicability: Applicability{Kind: ApplyAll}, Outcome: Outcome{Kind: OutcomeInstantWin}, TriggerChance: 2}.Validate())
}

func TestLocationTagCondition(t *testing.T) {
	hot := &ConditionSpec{LocationTag: "hot"}
	ember, blade := pair()
	desert := duel.NewBattleState("tags", &duel.Location{ID: "desert", Tags: []string{"open", "hot"}}, duel.TimeDay, duel.NewRNG(true, 1))
	harbor := duel.NewBattleState("tags", &duel.Location{ID: "harbor", Tags: []string{"coastal"}}, duel.TimeDay, duel.NewRNG(true, 1))

	assert.True(t, hot.Holds(Context{Protagonist: ember, Opponent: blade, State: desert}))
	assert.False(t, hot.Holds(Context{Protagonist: ember, Opponent: blade, State: harbor}))
	assert.False(t, hot.Holds(Context{Protagonist: ember, Opponent: blade}))
}
