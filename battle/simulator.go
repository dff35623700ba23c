package battle

import (
	"context"
	"fmt"

	"duel-lite/duel"
	"duel-lite/duel/ai"
	"duel-lite/duel/curbstomp"
	"duel-lite/duel/effects"
	"duel-lite/duel/escalation"
	"duel-lite/duel/mental"
	"duel-lite/duel/resolve"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Simulator runs battles against a content source. It holds no battle state
// and is safe for concurrent Simulate calls.
type Simulator struct {
	source Source
	cfg    Config
	logger *zap.Logger
}

func NewSimulator(src Source, cfg Config, logger *zap.Logger) (*Simulator, error) {
	if src == nil {
		return nil, fmt.Errorf("nil source")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Simulator{source: src, cfg: cfg, logger: logger}, nil
}

// SimulateBattle runs one battle with the default config.
func SimulateBattle(ctx context.Context, src Source, fighterA, fighterB, location, timeOfDay string, emotional bool) (*Result, error) {
	s, err := NewSimulator(src, DefaultConfig(), nil)
	if err != nil {
		return nil, err
	}
	return s.Simulate(ctx, Request{
		FighterA:      fighterA,
		FighterB:      fighterB,
		Location:      location,
		TimeOfDay:     timeOfDay,
		EmotionalMode: emotional,
	})
}

// side bundles a fighter with the machines that follow it.
type side struct {
	f      *duel.Fighter
	mental *mental.Machine
	escal  *escalation.Machine
}

func newSide(f *duel.Fighter, emotional bool) *side {
	return &side{f: f, mental: mental.NewMachine(f, emotional), escal: escalation.NewMachine(f)}
}

// run is everything one battle owns.
type run struct {
	cfg      Config
	logger   *zap.Logger
	state    *duel.BattleState
	a, b     *side
	ai       *ai.Engine
	resolver *resolve.Resolver
	curb     *curbstomp.Engine
	rules    []curbstomp.Rule
	phase    *phaseMachine
	fired    []curbstomp.Result
}

// Simulate looks up the content for req and runs the battle to its single
// terminal result. Lookup failures are returned as errors; failures inside
// the battle loop become an emergency draw.
func (s *Simulator) Simulate(ctx context.Context, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.FighterA == req.FighterB {
		return nil, duel.ErrSameFighter
	}
	ta, err := s.source.Character(ctx, req.FighterA)
	if err != nil {
		return nil, fmt.Errorf("fighter %q: %w", req.FighterA, err)
	}
	tb, err := s.source.Character(ctx, req.FighterB)
	if err != nil {
		return nil, fmt.Errorf("fighter %q: %w", req.FighterB, err)
	}
	for _, t := range []*duel.CharacterTemplate{ta, tb} {
		if err := t.Validate(); err != nil {
			return nil, err
		}
	}
	loc := duel.NeutralLocation()
	if req.Location != "" {
		if loc, err = s.source.Location(ctx, req.Location); err != nil {
			return nil, fmt.Errorf("location %q: %w", req.Location, err)
		}
		if loc == nil {
			loc = duel.NeutralLocation()
		}
	}
	rs, err := s.source.RuleSet(ctx)
	if err != nil {
		return nil, fmt.Errorf("curbstomp rules: %w", err)
	}
	tables, err := s.source.Tables(ctx)
	if err != nil {
		return nil, fmt.Errorf("combat tables: %w", err)
	}

	seed := req.Seed
	if !req.Deterministic {
		if seed, err = duel.NewSeed(); err != nil {
			return nil, err
		}
	}
	tod := duel.ParseTimeOfDay(req.TimeOfDay)
	id := uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%s|%s|%s|%s|%d", ta.ID, tb.ID, loc.ID, tod, seed))).String()

	state := duel.NewBattleState(id, loc, tod, duel.NewRNG(true, seed))
	state.EmotionalMode = req.EmotionalMode
	fa, fb := duel.NewFighter(ta), duel.NewFighter(tb)
	fa.BindOpponent(fb.ID)
	fb.BindOpponent(fa.ID)

	r := &run{
		cfg:      s.cfg,
		logger:   s.logger.With(zap.String("battle_id", id)),
		state:    state,
		a:        newSide(fa, req.EmotionalMode),
		b:        newSide(fb, req.EmotionalMode),
		ai:       ai.NewEngine(ai.RuleBookFromTemplates(ta, tb), s.logger),
		resolver: resolve.NewResolverFromTables(tables),
		curb:     curbstomp.NewEngine(s.cfg.MiracleSurvival, s.logger),
		rules:    rs.For(fa.ID, fb.ID, loc.ID),
		phase:    newPhaseMachine(s.cfg.MaxTurns),
	}

	v, err := r.loop()
	if err != nil {
		r.logger.Error("battle aborted", zap.Int("turn", state.Turn), zap.Error(err))
		v = verdict{done: true, draw: true, reason: ReasonEmergency}
	}
	res := r.result(v, seed)
	if err != nil {
		res.Error = err.Error()
	}
	r.logger.Info("battle finished",
		zap.String("reason", res.Reason),
		zap.String("winner", res.WinnerID),
		zap.Int("turn", res.Turns),
		zap.Int("events", len(res.Log)))
	return res, nil
}

// loop runs the turns. A panic anywhere inside is returned as an error.
func (r *run) loop() (v verdict, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("battle %s: recovered: %v", r.state.ID, p)
		}
	}()

	st := r.state
	st.Emit(duel.Event{
		Type:   duel.EventBattleStart,
		Actor:  r.a.f.ID,
		Target: r.b.f.ID,
		Text:   fmt.Sprintf("%s vs %s at %s (%s)", r.a.f.Name, r.b.f.Name, locationName(st.Location), duel.DisplayName(string(st.TimeOfDay))),
	})
	r.fired = append(r.fired, r.curb.PreBattle(st, r.rules, r.a.f, r.b.f)...)
	if v = r.check(false); v.done {
		return v, nil
	}

	first, second := r.a, r.b
	if st.RNG().Intn(2) == 1 {
		first, second = second, first
	}
	for turn := 1; turn <= r.cfg.MaxTurns; turn++ {
		st.Turn = turn
		st.Segment = 0
		r.phase.update(st, r.a.f, r.b.f)

		for seg, order := range [2][2]*side{{first, second}, {second, first}} {
			st.Segment = seg + 1
			r.segment(order[0], order[1])
			if v = r.check(false); v.done {
				return v, nil
			}
		}

		st.Segment = 0
		r.endOfTurn()
		if v = r.check(turn == r.cfg.MaxTurns); v.done {
			return v, nil
		}
		first, second = second, first
	}
	// Only reachable when a desperation branch is still open at the cap.
	return verdict{done: true, draw: true, reason: ReasonTurnLimit}, nil
}

func locationName(l *duel.Location) string {
	if l.Name != "" {
		return l.Name
	}
	return duel.DisplayName(l.ID)
}

func (r *run) check(exhausted bool) verdict {
	return evaluate(r.cfg, r.state, r.a.f, r.b.f, exhausted)
}

// segment lets actor take its turn against target, or spends it on recovery.
func (r *run) segment(actor, target *side) {
	st := r.state
	f, opp := actor.f, target.f
	switch {
	case f.IsKO():
		r.skip(f, "knocked out", 0)
		return
	case st.IsMarked(f.ID):
		r.skip(f, "marked for defeat", 0)
		return
	case effects.IsStunned(f):
		effects.ConsumeStun(st, f)
		f.AddEnergy(r.cfg.StunnedRecovery)
		r.skip(f, "stunned", r.cfg.StunnedRecovery)
		return
	case f.Energy < r.cfg.EnergyStarved && !f.DesperationPending:
		f.AddEnergy(r.cfg.RecoveryEnergy)
		r.skip(f, "recovering energy", r.cfg.RecoveryEnergy)
		return
	}

	move := r.choose(f, opp)
	out := r.resolver.Resolve(st, move, f, opp)
	resolve.Apply(st, out, f, opp)
	r.ai.Observe(st, f, opp, move, out.Effectiveness)

	if out.Damage > 0 {
		target.mental.OnHitTaken(st, out.Effectiveness)
	}
	switch {
	case out.InterceptSucceeded:
		actor.mental.OnOwnFailure(st, "intercepted")
	case out.WasPunished:
		actor.mental.OnOwnFailure(st, "punished")
	case out.Failed:
		actor.mental.OnOwnFailure(st, "failed "+move.Name)
	}
	r.a.escal.Update(st)
	r.b.escal.Update(st)

	r.fired = append(r.fired, r.curb.Segment(st, r.rules, r.a.f, r.b.f)...)
}

// choose returns the owed desperation move, else the AI's pick. A pick the
// fighter cannot pay for falls back to Struggle.
func (r *run) choose(f, opp *duel.Fighter) duel.Move {
	st := r.state
	if f.DesperationPending && f.Template != nil && f.Template.DesperationMove != nil {
		m := f.Template.DesperationMove.Clone()
		f.DesperationPending = false
		f.DesperationUsed = true
		f.Traces = append(f.Traces, duel.DecisionTrace{
			Turn:   st.Turn,
			Phase:  st.Phase,
			Source: "desperation",
			Move:   m.Name,
		})
		st.Emit(duel.Event{Type: duel.EventDecision, Actor: f.ID, Move: m.Name, Text: "desperation"})
		r.logger.Debug("desperation move", zap.String("fighter", f.ID), zap.Int("turn", st.Turn), zap.String("move", m.Name))
		return m
	}
	m, _ := r.ai.Decide(st, f, opp)
	if m.Cost*resolve.CostMultiplier(m.Element, st.TimeOfDay) > f.Energy {
		r.logger.Debug("unaffordable pick replaced", zap.String("fighter", f.ID), zap.Int("turn", st.Turn), zap.String("move", m.Name))
		return duel.Struggle()
	}
	return m
}

func (r *run) skip(f *duel.Fighter, why string, energy float64) {
	e := duel.Event{Type: duel.EventSkip, Actor: f.ID, Text: why}
	if energy > 0 {
		e.Deltas = map[string]float64{"energy": energy}
	}
	r.state.Emit(e)
}

// endOfTurn ticks effects and tactical slots for both fighters, then adds
// the per-turn situational stress.
func (r *run) endOfTurn() {
	st := r.state
	for _, s := range []*side{r.a, r.b} {
		effects.Tick(st, s.f)
		if gone := s.f.TickTactical(); gone != nil {
			st.Emit(duel.Event{Type: duel.EventTacticalExpired, Target: s.f.ID, Text: gone.Name})
		}
	}
	for _, s := range []*side{r.a, r.b} {
		s.mental.EndOfTurn(st)
		s.escal.Update(st)
	}
}

func (r *run) result(v verdict, seed int64) *Result {
	st := r.state
	term := duel.Event{Type: duel.EventTerminal, Text: v.reason}
	if v.detail != "" {
		term.Text += ": " + v.detail
	}
	res := &Result{
		BattleID: st.ID,
		Seed:     seed,
		IsDraw:   v.draw,
		Reason:   v.reason,
		Detail:   v.detail,
		Turns:    st.Turn,
		Fighters: []FighterSnapshot{snapshot(r.a.f, st), snapshot(r.b.f, st)},
		Environment: EnvironmentState{
			LocationID: st.Location.ID,
			TimeOfDay:  string(st.TimeOfDay),
			Phase:      st.Phase.String(),
			Damage:     st.EnvironmentDamage,
			Marked:     st.Marked(),
		},
		Curbstomps: r.fired,
	}
	if !v.draw && v.winner != nil {
		res.WinnerID = v.winner.ID
		res.LoserID = v.loser.ID
		term.Actor = v.winner.ID
		term.Target = v.loser.ID
	}
	st.Emit(term)
	res.Log = st.Log
	return res
}
