package curbstomp

import (
	"duel-lite/duel"
	"duel-lite/duel/effects"

	"go.uber.org/zap"
)

// DefaultSurvivalChance is the flat miraculous survival chance for lethal
// outcomes of rules that do not set their own.
const DefaultSurvivalChance = 0.05

// Result records one rule firing for one protagonist.
type Result struct {
	RuleID        string      `json:"ruleId"`
	Protagonist   string      `json:"protagonist"`
	Victim        string      `json:"victim,omitempty"`
	Outcome       OutcomeKind `json:"outcome"`
	Survived      bool        `json:"survived,omitempty"`
	SelfSabotaged bool        `json:"selfSabotaged,omitempty"`
}

// Engine evaluates curbstomp rules against a battle. It keeps no battle state
// of its own.
type Engine struct {
	survival float64
	logger   *zap.Logger
}

func NewEngine(survival float64, logger *zap.Logger) *Engine {
	if survival < 0 {
		survival = DefaultSurvivalChance
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{survival: survival, logger: logger}
}

// PreBattle runs the pre-battle rules unless the location forbids overrides.
func (e *Engine) PreBattle(state *duel.BattleState, rules []Rule, a, b *duel.Fighter) []Result {
	if state.Location != nil && state.Location.ForbidPreBattleOverrides {
		e.logger.Debug("pre-battle overrides forbidden", zap.String("battle_id", state.ID), zap.String("location", state.Location.ID))
		return nil
	}
	return e.evaluate(state, rules, TimingPreBattle, a, b)
}

// Segment runs the per-segment rules.
func (e *Engine) Segment(state *duel.BattleState, rules []Rule, a, b *duel.Fighter) []Result {
	return e.evaluate(state, rules, TimingSegment, a, b)
}

func (e *Engine) evaluate(state *duel.BattleState, rules []Rule, timing Timing, a, b *duel.Fighter) []Result {
	var out []Result
	for _, r := range rules {
		if r.timing() != timing {
			continue
		}
		for _, p := range eligible(r.Applicability, state, a, b) {
			opp := b
			if p == b {
				opp = a
			}
			if res, ok := e.fire(state, r, p, opp); ok {
				out = append(out, res)
			}
		}
	}
	return out
}

// fire runs the fixed sequence for one protagonist: trigger roll, condition,
// survival roll, victim selection, self-sabotage roll.
func (e *Engine) fire(state *duel.BattleState, r Rule, p, opp *duel.Fighter) (Result, bool) {
	rng := state.RNG()
	if !duel.Roll(rng, r.TriggerChance) {
		return Result{}, false
	}
	ctx := Context{Protagonist: p, Opponent: opp, State: state}
	if !r.When.Holds(ctx) {
		return Result{}, false
	}
	if r.Func != nil && !r.Func.Holds(ctx) {
		return Result{}, false
	}

	res := Result{RuleID: r.ID, Protagonist: p.ID, Outcome: r.Outcome.Kind}
	log := e.logger.With(zap.String("battle_id", state.ID), zap.String("rule", r.ID), zap.String("fighter", p.ID), zap.Int("turn", state.Turn))

	if r.Outcome.Kind.Lethal() {
		survival := e.survival
		if r.SurvivalChance != nil {
			survival = *r.SurvivalChance
		}
		if duel.Roll(rng, survival) {
			res.Survived = true
			state.Emit(duel.Event{
				Type:  duel.EventMiracle,
				Actor: p.ID,
				Move:  r.ID,
				Text:  "miraculous survival: " + string(r.Outcome.Kind) + " cancelled",
			})
			log.Info("curbstomp cancelled by miraculous survival")
			return res, true
		}
	}

	victim := opp
	if r.Outcome.Kind.harmful() {
		victim = selectVictim(rng, r.Victim, r.Outcome.Kind, p, opp)
		if victim != p && r.SelfSabotageChance > 0 && duel.Roll(rng, r.SelfSabotageChance) {
			victim = p
			res.SelfSabotaged = true
		}
		res.Victim = victim.ID
	}

	e.apply(state, r, p, opp, victim)
	state.Emit(duel.Event{
		Type:   duel.EventCurbstomp,
		Actor:  p.ID,
		Target: res.Victim,
		Move:   r.ID,
		Text:   string(r.Outcome.Kind),
	})
	log.Info("curbstomp rule fired", zap.String("outcome", string(r.Outcome.Kind)), zap.String("victim", res.Victim), zap.Bool("self_sabotage", res.SelfSabotaged))
	return res, true
}

func (e *Engine) apply(state *duel.BattleState, r Rule, p, opp, victim *duel.Fighter) {
	switch r.Outcome.Kind {
	case OutcomeEnvironmentalKill:
		state.EnvironmentDamage += r.Outcome.EnvironmentDamage
		fallthrough
	case OutcomeInstantWin, OutcomeInstantLoss:
		if state.Mark(victim.ID) {
			state.Emit(duel.Event{Type: duel.EventMarked, Target: victim.ID, Move: r.ID, Text: r.Outcome.Text})
		}
	case OutcomeBuff:
		effects.Apply(state, p, *r.Outcome.Effect, r.ID)
	case OutcomeDebuff:
		effects.Apply(state, victim, *r.Outcome.Effect, r.ID)
	case OutcomeMomentumAdvantage:
		m := r.Outcome.Momentum
		if m == 0 {
			m = 15
		}
		p.AddMomentum(m)
		opp.AddMomentum(-m)
	case OutcomeExternalIntervention:
		reason := r.Outcome.Text
		if reason == "" {
			reason = r.ID
		}
		state.ForceDraw(reason)
	}
}

// eligible lists the protagonists a rule can be about, in fighter order.
func eligible(ap Applicability, state *duel.BattleState, a, b *duel.Fighter) []*duel.Fighter {
	both := []*duel.Fighter{a, b}
	var out []*duel.Fighter
	switch ap.Kind {
	case ApplyCharacter:
		for _, f := range both {
			if contains(ap.Characters, f.ID) {
				out = append(out, f)
			}
		}
	case ApplyPair:
		if len(ap.Characters) != 2 {
			return nil
		}
		ids := map[string]*duel.Fighter{a.ID: a, b.ID: b}
		first, okA := ids[ap.Characters[0]]
		_, okB := ids[ap.Characters[1]]
		if okA && okB && ap.Characters[0] != ap.Characters[1] {
			out = append(out, first)
		}
	case ApplyElement:
		for _, f := range both {
			if (f.Element() == ap.Element) != ap.Negate {
				out = append(out, f)
			}
		}
	case ApplyFaction:
		for _, f := range both {
			faction := ""
			if f.Template != nil {
				faction = f.Template.Faction
			}
			if (faction == ap.Faction) != ap.Negate {
				out = append(out, f)
			}
		}
	case ApplyLocation:
		if state.Location == nil || state.Location.ID != ap.Location {
			return nil
		}
		for _, f := range both {
			if len(ap.Characters) == 0 || contains(ap.Characters, f.ID) {
				out = append(out, f)
			}
		}
	case ApplyAll:
		out = both
	}
	return out
}

// selectVictim resolves the victim selector. An unresolvable distribution
// falls back to a coin flip on the battle RNG.
func selectVictim(rng duel.RNG, v VictimSpec, kind OutcomeKind, p, opp *duel.Fighter) *duel.Fighter {
	byName := func(name string) *duel.Fighter {
		switch name {
		case string(VictimProtagonist), p.ID:
			return p
		case string(VictimOpponent), opp.ID:
			return opp
		}
		return nil
	}
	switch v.Kind {
	case VictimProtagonist:
		return p
	case VictimOpponent:
		return opp
	case VictimID:
		if f := byName(v.ID); f != nil {
			return f
		}
		return opp
	case VictimCoinFlip:
		return coinFlip(rng, p, opp)
	case VictimDistribution:
		total := 0.0
		keys := duel.SortedKeys(v.Distribution)
		for _, k := range keys {
			if w := v.Distribution[k]; w > 0 && byName(k) != nil {
				total += w
			}
		}
		if total <= 0 {
			return coinFlip(rng, p, opp)
		}
		x := rng.Float64() * total
		for _, k := range keys {
			w := v.Distribution[k]
			f := byName(k)
			if w <= 0 || f == nil {
				continue
			}
			if x < w {
				return f
			}
			x -= w
		}
		return coinFlip(rng, p, opp)
	}
	if kind == OutcomeInstantLoss || kind == OutcomeEnvironmentalKill {
		return p
	}
	return opp
}

func coinFlip(rng duel.RNG, p, opp *duel.Fighter) *duel.Fighter {
	if rng.Intn(2) == 0 {
		return p
	}
	return opp
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
