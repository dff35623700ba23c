package ai

import (
	"fmt"

	"duel-lite/duel"

	"go.uber.org/zap"
)

const (
	driftStep   = 0.05
	driftStreak = 2
)

// Engine picks moves. It owns no battle state; everything it learns is
// written onto the fighters.
type Engine struct {
	book   *RuleBook
	logger *zap.Logger
}

func NewEngine(book *RuleBook, logger *zap.Logger) *Engine {
	if book == nil {
		book = NewRuleBook()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{book: book, logger: logger}
}

// Decide returns the move self will use and records the trace on self. It
// never changes health or energy.
func (e *Engine) Decide(state *duel.BattleState, self, opp *duel.Fighter) (duel.Move, duel.DecisionTrace) {
	ctx := &Context{Self: self, Opponent: opp, State: state}
	trace := duel.DecisionTrace{Turn: state.Turn, Phase: state.Phase}
	if shift := self.MentalShift; shift != nil {
		// The level itself drives the modifiers; the shift is only announced once.
		e.logger.Debug("mental shift seen by ai",
			zap.String("battle_id", state.ID),
			zap.String("fighter", self.ID),
			zap.Stringer("from", shift.From),
			zap.Stringer("to", shift.To))
		self.MentalShift = nil
	}

	rules := e.book.For(self.ID)
	soft := make(map[string]float64)
	for _, r := range rules {
		ok, err := e.applies(state, r, ctx, &trace)
		if err != nil || !ok {
			continue
		}
		m, err := e.selectMove(state, r, ctx, &trace)
		if err != nil {
			continue
		}
		if r.Priority() >= MustReactPriority {
			if !ctx.Affordable(m) {
				continue
			}
			trace.Source = "rule"
			trace.Rule = r.Name()
			return e.finish(state, self, m, trace, 1)
		}
		if _, seen := soft[m.Name]; !seen {
			soft[m.Name] = 1 + float64(r.Priority())/100
		}
	}

	p := Personality(self, state)
	var pred *duel.Prediction
	if pr, ok := self.Memory.Predict(opp.ID); ok {
		pred = &pr
		trace.Prediction = &pr
	}

	options := make([]duel.Move, 0, len(self.Moves)+1)
	weights := make([]float64, 0, len(self.Moves)+1)
	for _, m := range self.Moves {
		if m.Name == duel.StruggleName {
			continue
		}
		w := Weigh(ctx, m, p, pred)
		if bias, ok := soft[m.Name]; ok {
			w *= bias
		}
		options = append(options, m)
		weights = append(weights, w)
	}
	options = append(options, duel.Struggle())
	weights = append(weights, struggleWeight)

	rng := state.RNG()
	var chosen int
	var probs []float64
	if self.Personality.Predictability >= predictableAt {
		trace.Mode = "top_cluster"
		cluster := topCluster(weights)
		chosen = cluster[rng.Intn(len(cluster))]
		probs = make([]float64, len(weights))
		for _, i := range cluster {
			probs[i] = 1 / float64(len(cluster))
		}
	} else {
		trace.Mode = "softmax"
		trace.Temperature = Temperature(self.Personality.Predictability)
		probs = softmax(weights, trace.Temperature)
		chosen = sample(rng, probs)
	}

	trace.Options = make([]duel.WeightedOption, len(options))
	for i, m := range options {
		trace.Options[i] = duel.WeightedOption{Move: m.Name, Weight: weights[i], Probability: probs[i]}
	}
	trace.Source = "weighted"
	return e.finish(state, self, options[chosen], trace, probs[chosen])
}

func (e *Engine) finish(state *duel.BattleState, self *duel.Fighter, m duel.Move, trace duel.DecisionTrace, prob float64) (duel.Move, duel.DecisionTrace) {
	trace.Move = m.Name
	for name, left := range self.Memory.SuccessCooldowns {
		if left <= 1 {
			delete(self.Memory.SuccessCooldowns, name)
			continue
		}
		self.Memory.SuccessCooldowns[name] = left - 1
	}
	self.Traces = append(self.Traces, trace)
	state.Emit(duel.Event{
		Type:   duel.EventDecision,
		Actor:  self.ID,
		Move:   m.Name,
		Deltas: map[string]float64{"probability": prob},
		Text:   trace.Source,
	})
	return m, trace
}

// applies and selectMove run a rule with panics recovered, so a broken rule
// is logged and skipped instead of ending the battle.
func (e *Engine) applies(state *duel.BattleState, r Rule, ctx *Context, trace *duel.DecisionTrace) (ok bool, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("rule %s panicked in predicate: %v", r.Name(), p)
		}
		if err != nil {
			e.ruleFailed(state, ctx.Self, r, err, trace)
			ok = false
		}
	}()
	return r.Applies(ctx)
}

func (e *Engine) selectMove(state *duel.BattleState, r Rule, ctx *Context, trace *duel.DecisionTrace) (m duel.Move, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("rule %s panicked in selector: %v", r.Name(), p)
		}
		if err != nil {
			e.ruleFailed(state, ctx.Self, r, err, trace)
		}
	}()
	return r.Select(ctx)
}

func (e *Engine) ruleFailed(state *duel.BattleState, self *duel.Fighter, r Rule, err error, trace *duel.DecisionTrace) {
	e.logger.Warn("ai rule failed",
		zap.String("battle_id", state.ID),
		zap.String("fighter", self.ID),
		zap.Int("turn", state.Turn),
		zap.String("rule", r.Name()),
		zap.Error(err))
	trace.RuleErrors = append(trace.RuleErrors, err.Error())
	state.Emit(duel.Event{Type: duel.EventAIRuleError, Actor: self.ID, Move: r.Name(), Text: err.Error()})
}

// Observe records a resolved move: history, the opponent's model of self,
// success cooldowns, streaks and personality drift.
func (e *Engine) Observe(state *duel.BattleState, self, opp *duel.Fighter, m duel.Move, result duel.Effectiveness) {
	self.History = append(self.History, duel.MoveRecord{Turn: state.Turn, Move: m.Name, Result: result})
	if opp != nil {
		opp.Memory.Observe(self.ID, m.Name)
	}

	if m.Category == duel.CategoryDefense || m.Category == duel.CategoryUtility {
		self.DefensiveStreak++
	} else {
		self.DefensiveStreak = 0
	}

	switch result {
	case duel.EffectivenessWeak:
		self.WeakStreak++
		self.StrongStreak = 0
	case duel.EffectivenessStrong, duel.EffectivenessCritical:
		self.StrongStreak++
		self.WeakStreak = 0
		if self.Memory.SuccessCooldowns == nil {
			self.Memory.SuccessCooldowns = make(map[string]int)
		}
		self.Memory.SuccessCooldowns[m.Name] = 1
	default:
		self.WeakStreak = 0
		self.StrongStreak = 0
	}

	p := &self.Personality
	switch {
	case self.WeakStreak >= driftStreak:
		p.Creativity = duel.Clamp01(p.Creativity + driftStep)
		p.RiskTolerance = duel.Clamp01(p.RiskTolerance + driftStep)
		self.WeakStreak = 0
		e.drifted(state, self, "creativity,risk_tolerance")
	case self.StrongStreak >= driftStreak:
		p.Aggression = duel.Clamp01(p.Aggression + driftStep)
		self.StrongStreak = 0
		e.drifted(state, self, "aggression")
	}
}

func (e *Engine) drifted(state *duel.BattleState, self *duel.Fighter, traits string) {
	state.Emit(duel.Event{
		Type:   duel.EventDrift,
		Actor:  self.ID,
		Deltas: map[string]float64{"step": driftStep},
		Text:   traits,
	})
	e.logger.Debug("personality drift",
		zap.String("battle_id", state.ID),
		zap.String("fighter", self.ID),
		zap.String("traits", traits))
}
