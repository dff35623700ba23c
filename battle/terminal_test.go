package battle

import (
	"testing"

	"duel-lite/duel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func duo() (*duel.BattleState, *duel.Fighter, *duel.Fighter) {
	s := duel.NewBattleState("terminal", nil, duel.TimeDay, duel.NewRNG(true, 1))
	a := duel.NewFighter(&duel.CharacterTemplate{
		ID:              "a",
		DesperationMove: &duel.Move{Name: "all_in", Category: duel.CategoryFinisher, Power: 40, Cost: 10},
	})
	b := duel.NewFighter(&duel.CharacterTemplate{ID: "b"})
	return s, a, b
}

func TestMutualKOBeatsForcedDraw(t *testing.T) {
	s, a, b := duo()
	a.SetHealth(0)
	b.SetHealth(0)
	s.ForceDraw("storm")
	v := evaluate(DefaultConfig(), s, a, b, false)
	assert.True(t, v.done)
	assert.True(t, v.draw)
	assert.Equal(t, ReasonMutualKO, v.reason)

	a.SetHealth(50)
	v = evaluate(DefaultConfig(), s, a, b, false)
	assert.Equal(t, ReasonForcedDraw, v.reason)
	assert.Equal(t, "storm", v.detail)
}

func TestMarkedAndKnockedOutCountAsMutual(t *testing.T) {
	s, a, b := duo()
	a.SetHealth(0)
	s.Mark("b")
	v := evaluate(DefaultConfig(), s, a, b, false)
	assert.Equal(t, ReasonMutualKO, v.reason)
}

func TestLastStandHoldsTheBattleOpen(t *testing.T) {
	s, a, b := duo()
	cfg := DefaultConfig()
	a.SetHealth(0)
	b.SetHealth(80)

	v := evaluate(cfg, s, a, b, false)
	require.False(t, v.done)
	assert.True(t, a.DesperationPending)
	assert.Equal(t, 1.0, a.Health)
	assert.Equal(t, duel.EventDesperation, s.Log[len(s.Log)-1].Type)
	assert.Equal(t, "last stand: All In", s.Log[len(s.Log)-1].Text)

	// Still owed: the decisive gap must wait.
	v = evaluate(cfg, s, a, b, false)
	assert.False(t, v.done)

	a.DesperationPending = false
	a.DesperationUsed = true
	v = evaluate(cfg, s, a, b, false)
	assert.True(t, v.done)
	assert.Equal(t, ReasonDecisiveGap, v.reason)
	assert.Equal(t, "b", v.winner.ID)
}

func TestDesperationNeedsEnergy(t *testing.T) {
	s, a, b := duo()
	a.SetHealth(10)
	a.SetEnergy(5)
	v := evaluate(DefaultConfig(), s, a, b, false)
	assert.False(t, a.DesperationPending)
	assert.Equal(t, ReasonDecisiveGap, v.reason)
}

func TestStalemate(t *testing.T) {
	s, a, b := duo()
	cfg := DefaultConfig()
	s.Turn = cfg.StalemateMinTurn
	a.DefensiveStreak, b.DefensiveStreak = 3, 4
	a.SetHealth(70)
	b.SetHealth(65)
	v := evaluate(cfg, s, a, b, false)
	assert.Equal(t, ReasonStalemate, v.reason)

	s.Turn = cfg.StalemateMinTurn - 1
	v = evaluate(cfg, s, a, b, false)
	assert.False(t, v.done)
}

func TestTurnLimitComesBeforeSingleKO(t *testing.T) {
	s, a, b := duo()
	v := evaluate(DefaultConfig(), s, a, b, true)
	assert.Equal(t, ReasonTurnLimit, v.reason)
	assert.True(t, v.draw)

	b.SetHealth(0)
	v = evaluate(DefaultConfig(), s, a, b, true)
	assert.Equal(t, ReasonTurnLimit, v.reason)

	v = evaluate(DefaultConfig(), s, a, b, false)
	assert.Equal(t, ReasonKO, v.reason)
	assert.Equal(t, "a", v.winner.ID)
}

func TestMarkedFighterLoses(t *testing.T) {
	s, a, b := duo()
	s.Mark("a")
	v := evaluate(DefaultConfig(), s, a, b, false)
	assert.Equal(t, ReasonMarked, v.reason)
	assert.Equal(t, "b", v.winner.ID)
	assert.Equal(t, "a", v.loser.ID)
}

func TestPhaseMachineMovesForwardOnly(t *testing.T) {
	s, a, b := duo()
	p := newPhaseMachine(30)
	assert.Equal(t, duel.PhaseEarly, p.target(3, a, b))
	assert.Equal(t, duel.PhaseMid, p.target(6, a, b))
	assert.Equal(t, duel.PhaseLate, p.target(21, a, b))

	s.Turn = 6
	p.update(s, a, b)
	assert.Equal(t, duel.PhaseMid, s.Phase)

	b.SetHealth(30)
	s.Turn = 7
	p.update(s, a, b)
	assert.Equal(t, duel.PhaseLate, s.Phase)

	b.SetHealth(100)
	s.Turn = 8
	p.update(s, a, b)
	assert.Equal(t, duel.PhaseLate, s.Phase)

	changes := 0
	for _, e := range s.Log {
		if e.Type == duel.EventPhaseChange {
			changes++
		}
	}
	assert.Equal(t, 2, changes)
}

func TestDesperationWaitsOnlyForAStandingOpponent(t *testing.T) {
	s, a, b := duo()
	a.SetHealth(10)
	b.SetHealth(0)

	v := evaluate(DefaultConfig(), s, a, b, false)
	require.True(t, v.done)
	assert.Equal(t, ReasonKO, v.reason)
	assert.Equal(t, "a", v.winner.ID)
	assert.False(t, a.DesperationPending)

	// Flagged earlier, then the opponent dropped: the move is no longer owed.
	s, a, b = duo()
	a.DesperationPending = true
	s.Mark("b")
	v = evaluate(DefaultConfig(), s, a, b, false)
	assert.Equal(t, ReasonMarked, v.reason)
	assert.Equal(t, "a", v.winner.ID)
}

func TestKnockedOutFighterDoesNotAct(t *testing.T) {
	s, a, b := duo()
	a.SetHealth(10)
	b.SetHealth(0)
	r := &run{cfg: DefaultConfig(), state: s, a: newSide(a, false), b: newSide(b, false)}

	r.segment(r.b, r.a)
	assert.Empty(t, b.History)
	assert.Equal(t, 10.0, a.Health)
	last := s.Log[len(s.Log)-1]
	assert.Equal(t, duel.EventSkip, last.Type)
	assert.Equal(t, "b", last.Actor)
}
