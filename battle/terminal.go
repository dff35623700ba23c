package battle

import (
	"math"

	"duel-lite/duel"
	"duel-lite/duel/resolve"
)

type verdict struct {
	done   bool
	draw   bool
	winner *duel.Fighter
	loser  *duel.Fighter
	reason string
	detail string
}

// down reports a fighter that can no longer win: knocked out or marked.
func down(state *duel.BattleState, f *duel.Fighter) bool {
	return f.IsKO() || state.IsMarked(f.ID)
}

// evaluate is the termination check run after every segment and at the end
// of each turn. The order of the checks is the priority order.
func evaluate(cfg Config, state *duel.BattleState, a, b *duel.Fighter, exhausted bool) verdict {
	if down(state, a) && down(state, b) {
		return verdict{done: true, draw: true, reason: ReasonMutualKO}
	}
	if state.ForcedDraw {
		return verdict{done: true, draw: true, reason: ReasonForcedDraw, detail: state.ForcedDrawReason}
	}
	// A desperation move is only owed while the opponent is still standing.
	if (!down(state, b) && desperation(cfg, state, a)) || (!down(state, a) && desperation(cfg, state, b)) {
		return verdict{}
	}
	if state.Turn >= cfg.StalemateMinTurn &&
		a.DefensiveStreak >= cfg.StalemateStreak && b.DefensiveStreak >= cfg.StalemateStreak &&
		math.Abs(a.Health-b.Health) < cfg.StalemateHealthGap {
		return verdict{done: true, draw: true, reason: ReasonStalemate}
	}
	if exhausted {
		return verdict{done: true, draw: true, reason: ReasonTurnLimit}
	}
	for _, pair := range [][2]*duel.Fighter{{a, b}, {b, a}} {
		loser, winner := pair[0], pair[1]
		if loser.IsKO() {
			return verdict{done: true, winner: winner, loser: loser, reason: ReasonKO}
		}
		if state.IsMarked(loser.ID) {
			return verdict{done: true, winner: winner, loser: loser, reason: ReasonMarked}
		}
	}
	if gap := a.Health - b.Health; math.Abs(gap) > cfg.DecisiveGap {
		if gap > 0 {
			return verdict{done: true, winner: a, loser: b, reason: ReasonDecisiveGap}
		}
		return verdict{done: true, winner: b, loser: a, reason: ReasonDecisiveGap}
	}
	return verdict{}
}

// desperation flags a fighter for its one-shot move when it qualifies. A
// fighter knocked to zero holds on at 1 health for that last stand.
func desperation(cfg Config, state *duel.BattleState, f *duel.Fighter) bool {
	if f.DesperationPending {
		// Still owed its move; the branch holds until it acts or goes down.
		return !down(state, f)
	}
	if f.DesperationUsed || state.IsMarked(f.ID) {
		return false
	}
	if f.Health > cfg.DesperationFloor || f.Template == nil || f.Template.DesperationMove == nil {
		return false
	}
	m := f.Template.DesperationMove
	if f.Energy < m.Cost*resolve.CostMultiplier(m.Element, state.TimeOfDay) {
		return false
	}
	f.DesperationPending = true
	lastStand := f.IsKO()
	if lastStand {
		f.SetHealth(1)
	}
	text := "desperation: " + duel.DisplayName(m.Name)
	if lastStand {
		text = "last stand: " + duel.DisplayName(m.Name)
	}
	state.Emit(duel.Event{
		Type:   duel.EventDesperation,
		Actor:  f.ID,
		Move:   m.Name,
		Deltas: map[string]float64{"health": f.Health},
		Text:   text,
	})
	return true
}
