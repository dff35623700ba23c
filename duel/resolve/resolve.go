package resolve

import (
	"duel-lite/duel"
	"duel-lite/duel/effects"
	"duel-lite/duel/escalation"
)

// Outcome is everything one move did. Resolve fills it; Apply writes the
// numeric part onto the fighters.
type Outcome struct {
	Move          string             `json:"move"`
	Effectiveness duel.Effectiveness `json:"effectiveness"`
	Critical      bool               `json:"critical,omitempty"`
	Damage        float64            `json:"damage"`
	EnergyCost    float64            `json:"energyCost"`

	AttackerMomentum float64 `json:"attackerMomentum"`
	DefenderMomentum float64 `json:"defenderMomentum"`
	Collateral       float64 `json:"collateral,omitempty"`

	WasPunished   bool   `json:"wasPunished,omitempty"`
	Payoff        bool   `json:"payoff,omitempty"`
	ConsumedState string `json:"consumedState,omitempty"`

	Intercepted        bool   `json:"intercepted,omitempty"`
	InterceptSucceeded bool   `json:"interceptSucceeded,omitempty"`
	Reposition         string `json:"reposition,omitempty"` // success | exposed | off_balance

	// Failed is set for results the attacker counts as its own failure.
	Failed bool `json:"failed,omitempty"`
}

const (
	favoredCost    = 0.9
	disfavoredCost = 1.1

	stunOpening   = 1.5
	punishFactor  = 0.5
	punishSwingA  = -8
	punishSwingD  = 8
	damageScale   = 0.6
	collateralCap = 10.0

	weakRatio   = 0.7
	strongRatio = 1.1

	critBase = 0.05
	critMin  = 0.01
	critMax  = 0.5

	defenseMomentum = 2
)

var tierFraction = map[duel.Effectiveness]float64{
	duel.EffectivenessWeak:     0.5,
	duel.EffectivenessNormal:   0.8,
	duel.EffectivenessStrong:   1.0,
	duel.EffectivenessCritical: 1.3,
}

var tierMomentum = map[duel.Effectiveness][2]float64{
	duel.EffectivenessWeak:     {-3, 3},
	duel.EffectivenessNormal:   {4, -2},
	duel.EffectivenessStrong:   {8, -5},
	duel.EffectivenessCritical: {12, -8},
}

// timeAffinity: element -> time of day -> power multiplier.
var timeAffinity = map[duel.Element]map[duel.TimeOfDay]float64{
	duel.ElementFire:  {duel.TimeDay: 1.15, duel.TimeNight: 0.9},
	duel.ElementWater: {duel.TimeNight: 1.15, duel.TimeDay: 0.95},
	duel.ElementAir:   {duel.TimeDawn: 1.1},
	duel.ElementEarth: {duel.TimeDusk: 1.1},
}

// TimeAffinity returns the time-of-day power multiplier for an element.
func TimeAffinity(e duel.Element, tod duel.TimeOfDay) float64 {
	if v, ok := timeAffinity[e][tod]; ok {
		return v
	}
	return 1
}

// CostMultiplier makes favored moves cheaper and disfavored ones dearer.
func CostMultiplier(e duel.Element, tod duel.TimeOfDay) float64 {
	a := TimeAffinity(e, tod)
	switch {
	case a > 1:
		return favoredCost
	case a < 1:
		return disfavoredCost
	default:
		return 1
	}
}

// MomentumFactor: 50 is neutral, 100 gives +20%, 0 gives -20%.
func MomentumFactor(m float64) float64 {
	return 1 + (duel.Clamp(m)-50)/250
}

// CritChance for an attacker.
func CritChance(attacker *duel.Fighter) float64 {
	p := critBase + (attacker.Momentum-50)/500 + effects.CritBonus(attacker)
	return duel.ClampRange(p, critMin, critMax)
}

// Classify maps the power ratio onto a tier when no crit landed.
func Classify(ratio float64) duel.Effectiveness {
	switch {
	case ratio < weakRatio:
		return duel.EffectivenessWeak
	case ratio > strongRatio:
		return duel.EffectivenessStrong
	default:
		return duel.EffectivenessNormal
	}
}

// Resolver is the combat math for one move. It holds only content tables and
// is safe to share between battles.
type Resolver struct {
	// Punishable lists moves penalized when thrown without an opening, in
	// addition to anything tagged punishable.
	Punishable map[string]bool
	Defense    *ReactiveDefense
}

func NewResolver(punishable []string, intercepts []Intercept) *Resolver {
	r := &Resolver{Punishable: make(map[string]bool, len(punishable))}
	for _, name := range punishable {
		r.Punishable[name] = true
	}
	if len(intercepts) > 0 {
		r.Defense = &ReactiveDefense{Intercepts: intercepts}
	}
	return r
}

func (r *Resolver) punishable(m duel.Move) bool {
	return m.HasTag(duel.TagPunishable) || (r != nil && r.Punishable[m.Name])
}

// Resolve computes the outcome of attacker using move on defender. Tactical
// slots and status effects are updated here; health, energy and momentum
// are left for Apply. Missing inputs fall back to safe defaults.
func (r *Resolver) Resolve(state *duel.BattleState, move duel.Move, attacker, defender *duel.Fighter) Outcome {
	if state == nil {
		state = duel.NewBattleState("scratch", nil, duel.TimeDay, nil)
	}
	if state.Location == nil {
		state.Location = duel.NeutralLocation()
	}
	if attacker == nil {
		attacker = duel.NewFighter(nil)
	}
	if defender == nil {
		defender = duel.NewFighter(nil)
	}
	if move.Name == "" {
		move = duel.Struggle()
	}
	if move.Power < 0 {
		move.Power = 0
	}
	if move.Cost < 0 {
		move.Cost = 0
	}
	elem := move.Element
	if elem == "" {
		elem = duel.ElementNone
	}

	out := Outcome{
		Move:       move.Name,
		EnergyCost: move.Cost * CostMultiplier(elem, state.TimeOfDay),
	}

	if move.HasTag(duel.TagReposition) {
		r.reposition(state, attacker, &out)
		emitMove(state, attacker, defender, out)
		return out
	}

	if move.Category == duel.CategoryDefense || (move.Category == duel.CategoryUtility && move.Power == 0) {
		if move.Category == duel.CategoryDefense {
			out.AttackerMomentum = defenseMomentum
		}
		applySetup(move, defender)
		applyMoveEffect(state, move, attacker, defender)
		emitMove(state, attacker, defender, out)
		return out
	}

	power := move.Power *
		TimeAffinity(elem, state.TimeOfDay) *
		state.Location.ElementModifier(elem) *
		MomentumFactor(attacker.Momentum) *
		effects.AttackMultiplier(attacker)

	// Reactive defense answers before anything is spent: a clean intercept
	// leaves both tactical slots and the crit roll untouched.
	interceptFailed := false
	var guard *ReactiveDefense
	if r != nil {
		guard = r.Defense
	}
	if ic, ok := guard.Match(move, attacker, defender); ok {
		out.Intercepted = true
		chance := InterceptChance(defender)
		success := duel.Roll(state.RNG(), chance)
		state.Emit(duel.Event{
			Type:   duel.EventIntercept,
			Actor:  defender.ID,
			Target: attacker.ID,
			Move:   move.Name,
			Deltas: map[string]float64{"chance": chance},
			Text:   ic.Name,
		})
		if success {
			out.InterceptSucceeded = true
			out.AttackerMomentum = interceptAttackerMomentum
			out.DefenderMomentum = interceptDefenderMomentum
			effects.Apply(state, attacker, duel.EffectSpec{Type: duel.EffectStun, Duration: 1}, ic.Name)
			emitMove(state, attacker, defender, out)
			return out
		}
		interceptFailed = true
	}

	punishable := r.punishable(move)
	if move.HasTag(duel.TagRequiresOpening) || punishable {
		opening := 0.0
		if effects.IsStunned(defender) {
			opening = stunOpening
		}
		if defender.HasOpening() {
			st := defender.ConsumeTactical()
			out.ConsumedState = st.Name
			if st.Intensity > opening {
				opening = st.Intensity
			}
			if opening < 1 {
				opening = 1
			}
		}
		switch {
		case opening > 0:
			power *= opening
			out.Payoff = true
			state.Emit(duel.Event{
				Type:   duel.EventPayoff,
				Actor:  attacker.ID,
				Target: defender.ID,
				Move:   move.Name,
				Deltas: map[string]float64{"multiplier": opening},
				Text:   out.ConsumedState,
			})
		case punishable:
			power *= punishFactor
			out.WasPunished = true
			out.Failed = true
			state.Emit(duel.Event{
				Type:   duel.EventPunished,
				Actor:  attacker.ID,
				Target: defender.ID,
				Move:   move.Name,
			})
		}
	}

	if (move.Category == duel.CategoryOffense || move.Category == duel.CategoryFinisher) &&
		attacker.Tactical != nil && attacker.Tactical.IsPositive {
		st := attacker.ConsumeTactical()
		if st.Intensity > 0 {
			power *= st.Intensity
		}
	}

	// The crit roll always draws so the sequence does not depend on power.
	if duel.Roll(state.RNG(), CritChance(attacker)) {
		out.Effectiveness = duel.EffectivenessCritical
		out.Critical = true
	} else {
		ratio := 1.0
		if move.Power > 0 {
			ratio = power / move.Power
		}
		out.Effectiveness = Classify(ratio)
	}
	if out.Effectiveness == duel.EffectivenessWeak {
		out.Failed = true
	}

	damage := power * tierFraction[out.Effectiveness] * damageScale
	mom := tierMomentum[out.Effectiveness]
	out.AttackerMomentum, out.DefenderMomentum = mom[0], mom[1]
	if out.WasPunished {
		out.AttackerMomentum += punishSwingA
		out.DefenderMomentum += punishSwingD
	}

	if interceptFailed {
		damage *= interceptFailureFactor
	}

	damage *= effects.DefenseTakenMultiplier(defender)
	if mult := escalation.DamageMultiplier(defender.Escalation); mult != 1 && damage > 0 {
		scaled := damage * mult
		state.Emit(duel.Event{
			Type:   duel.EventEscalationScale,
			Target: defender.ID,
			Move:   move.Name,
			Deltas: map[string]float64{"before": damage, "after": scaled, "multiplier": mult},
			Text:   defender.Escalation.String(),
		})
		damage = scaled
	}
	out.Damage = damage

	if out.Critical {
		effects.Apply(state, defender, duel.EffectSpec{Type: duel.EffectStun, Duration: 1}, "critical")
	}
	applySetup(move, defender)
	applyMoveEffect(state, move, attacker, defender)

	if move.ImpactTier > 0 {
		c := float64(move.ImpactTier) * state.Location.Fragility * state.Location.ElementModifier(elem)
		if c > collateralCap {
			c = collateralCap
		}
		if c > 0 {
			out.Collateral = c
		}
	}

	emitMove(state, attacker, defender, out)
	return out
}

func (r *Resolver) reposition(state *duel.BattleState, attacker *duel.Fighter, out *Outcome) {
	chance := duel.ClampRange(0.35+0.5*attacker.Mobility()*effects.MobilityMultiplier(attacker), 0.1, 0.9)
	if duel.Roll(state.RNG(), chance) {
		out.Reposition = "success"
		out.AttackerMomentum = 8
		attacker.SetTactical(&duel.TacticalState{Name: "Repositioned", Duration: 2, Intensity: 1.25, IsPositive: true})
	} else if duel.Roll(state.RNG(), 0.4) {
		out.Reposition = "exposed"
		out.Failed = true
		out.AttackerMomentum, out.DefenderMomentum = -10, 6
		attacker.SetTactical(&duel.TacticalState{Name: "Exposed", Duration: 2, Intensity: 1.5})
	} else {
		out.Reposition = "off_balance"
		out.Failed = true
		out.AttackerMomentum, out.DefenderMomentum = -5, 3
		attacker.SetTactical(&duel.TacticalState{Name: "Off-Balance", Duration: 1, Intensity: 1.2})
	}
	state.Emit(duel.Event{
		Type:   duel.EventReposition,
		Actor:  attacker.ID,
		Deltas: map[string]float64{"chance": chance},
		Text:   out.Reposition,
	})
}

// applySetup imposes the move's tactical state on the defender.
func applySetup(move duel.Move, defender *duel.Fighter) {
	if move.Setup == nil || move.Setup.Name == "" {
		return
	}
	st := *move.Setup
	if st.Duration <= 0 {
		st.Duration = 1
	}
	defender.SetTactical(&st)
}

func applyMoveEffect(state *duel.BattleState, move duel.Move, attacker, defender *duel.Fighter) {
	spec := move.Effect
	if spec == nil {
		return
	}
	if spec.Chance > 0 && spec.Chance < 1 && !duel.Roll(state.RNG(), spec.Chance) {
		return
	}
	target := defender
	if spec.Target == duel.TargetSelf {
		target = attacker
	}
	effects.Apply(state, target, *spec, move.Name)
}

func emitMove(state *duel.BattleState, attacker, defender *duel.Fighter, out Outcome) {
	state.Emit(duel.Event{
		Type:   duel.EventMove,
		Actor:  attacker.ID,
		Target: defender.ID,
		Move:   out.Move,
		Deltas: map[string]float64{
			"damage":            out.Damage,
			"energy":            -out.EnergyCost,
			"attacker_momentum": out.AttackerMomentum,
			"defender_momentum": out.DefenderMomentum,
		},
		Text: out.Effectiveness.String(),
	})
}

// Apply writes the outcome onto both fighters and the battle state.
func Apply(state *duel.BattleState, out Outcome, attacker, defender *duel.Fighter) {
	attacker.AddEnergy(-out.EnergyCost)
	defender.AddHealth(-out.Damage)
	attacker.AddMomentum(out.AttackerMomentum)
	defender.AddMomentum(out.DefenderMomentum)
	if out.Collateral > 0 && state != nil {
		state.EnvironmentDamage += out.Collateral
		state.Emit(duel.Event{
			Type:   duel.EventCollateral,
			Actor:  attacker.ID,
			Move:   out.Move,
			Deltas: map[string]float64{"environment": out.Collateral, "total": state.EnvironmentDamage},
		})
	}
}
