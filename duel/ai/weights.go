package ai

import (
	"math"

	"duel-lite/duel"
	"duel-lite/duel/effects"
)

// mentalShift bends the personality while a fighter is under pressure.
type mentalShift struct {
	aggression float64 // added
	patience   float64 // multiplied
	utility    float64 // category weight multiplier
	defense    float64 // category weight multiplier
}

var mentalShifts = map[duel.MentalLevel]mentalShift{
	duel.MentalStable:   {0, 1, 1, 1},
	duel.MentalStressed: {0.1, 0.8, 0.9, 1},
	duel.MentalShaken:   {0.2, 0.5, 0.6, 0.8},
	duel.MentalBroken:   {0.35, 0.2, 0.3, 0.5},
}

var phaseFinisher = map[duel.Phase]float64{
	duel.PhaseEarly: 0.2,
	duel.PhaseMid:   0.8,
	duel.PhaseLate:  1.5,
}

const (
	struggleWeight      = 0.05
	costlyMove          = 15.0
	cooldownDamping     = 0.7
	clusterFraction     = 0.9
	predictableAt       = 0.75
	minConfidence       = 0.5
	minSamples          = 2
	lowFinisherTarget   = 25.0
	maxAntiRepeat       = 0.95
	maxRepeatsPenalized = 2
)

// Personality returns the traits actually used this decision: the drifting
// profile shifted by mental level and, in emotional mode, the relationship.
func Personality(self *duel.Fighter, state *duel.BattleState) duel.PersonalityProfile {
	p := self.Personality
	ms := mentalShifts[self.Mental.Level]
	p.Aggression += ms.aggression
	p.Patience *= ms.patience
	if state != nil && state.EmotionalMode && self.Relation != nil {
		p.Aggression += self.Relation.AggressionBias
	}
	p.Aggression = duel.Clamp01(p.Aggression)
	p.Patience = duel.Clamp01(p.Patience)
	return p
}

func categoryBase(c duel.MoveCategory, p duel.PersonalityProfile) float64 {
	switch c {
	case duel.CategoryOffense:
		return 1 + 1.0*p.Aggression + 0.3*p.RiskTolerance
	case duel.CategoryDefense:
		return 1 + 1.0*p.DefensiveBias + 0.5*p.Patience
	case duel.CategoryUtility:
		return 1 + 0.8*p.Creativity + 0.4*p.Patience
	case duel.CategoryFinisher:
		return 0.5 + 0.5*p.Aggression + 0.5*p.RiskTolerance
	default:
		return 1
	}
}

// Weigh scores one move. Zero means the move cannot be chosen.
func Weigh(ctx *Context, m duel.Move, p duel.PersonalityProfile, pred *duel.Prediction) float64 {
	self, opp := ctx.Self, ctx.Opponent
	cost := ctx.Cost(m)
	if cost > self.Energy {
		return 0
	}

	w := categoryBase(m.Category, p)
	if m.HasTag(duel.TagSignature) || (self.Template != nil && self.Template.IsSignature(m.Name)) {
		w += p.SignatureBonus
	}
	if reps := self.RepeatCount(m.Name); reps > 0 {
		if reps > maxRepeatsPenalized {
			reps = maxRepeatsPenalized
		}
		anti := duel.ClampRange(p.AntiRepeat, 0, maxAntiRepeat)
		w *= math.Pow(1-anti, float64(reps))
	}

	ms := mentalShifts[self.Mental.Level]
	switch m.Category {
	case duel.CategoryUtility:
		w *= ms.utility
	case duel.CategoryDefense:
		w *= ms.defense
	}

	switch {
	case self.Momentum > 65:
		if m.Category == duel.CategoryOffense || m.Category == duel.CategoryFinisher {
			w *= 1.2
		}
	case self.Momentum < 35:
		switch m.Category {
		case duel.CategoryDefense:
			w *= 1.25
		case duel.CategoryUtility:
			w *= 1.1
		}
	}

	switch {
	case self.Energy < 15:
		if cost > costlyMove {
			w *= 0.3
		}
	case self.Energy < 30:
		if cost > costlyMove {
			w *= 0.5
		}
		if m.Category == duel.CategoryDefense || m.Category == duel.CategoryUtility {
			w *= 1.3
		}
	}

	if m.Category == duel.CategoryFinisher {
		if ctx.State != nil {
			if f, ok := phaseFinisher[ctx.State.Phase]; ok {
				w *= f
			}
		}
		if opp.Health < lowFinisherTarget {
			w *= 2.5
		}
	}

	if effects.IsStunned(opp) || opp.HasOpening() {
		if m.HasTag(duel.TagRequiresOpening) {
			w *= 2 + 3*p.Opportunism
		}
		if m.Category == duel.CategoryOffense {
			w *= 1.3 + p.Opportunism
		}
	} else if m.HasTag(duel.TagRequiresOpening) {
		w *= 0.4
	}

	if pred != nil && pred.Confidence >= minConfidence && pred.Samples >= minSamples && m.Answers(pred.Move) {
		w *= 1 + 1.5*pred.Confidence
	}

	if self.Memory.SuccessCooldowns[m.Name] > 0 {
		w *= cooldownDamping
	}

	if w < 0 {
		return 0
	}
	return w
}

// Temperature for softmax sampling; predictable fighters run cold.
func Temperature(predictability float64) float64 {
	return 0.15 + 1.35*(1-duel.Clamp01(predictability))
}

// softmax turns weights into probabilities p ∝ w^(1/T). Zero weights stay zero.
func softmax(weights []float64, temp float64) []float64 {
	probs := make([]float64, len(weights))
	maxW := 0.0
	for _, w := range weights {
		if w > maxW {
			maxW = w
		}
	}
	if maxW <= 0 {
		return probs
	}
	total := 0.0
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		// Normalize by the max first so large exponents cannot overflow.
		probs[i] = math.Pow(w/maxW, 1/temp)
		total += probs[i]
	}
	for i := range probs {
		probs[i] /= total
	}
	return probs
}

// topCluster returns the indexes within clusterFraction of the best weight.
func topCluster(weights []float64) []int {
	maxW := 0.0
	for _, w := range weights {
		if w > maxW {
			maxW = w
		}
	}
	var idx []int
	for i, w := range weights {
		if w > 0 && w >= clusterFraction*maxW {
			idx = append(idx, i)
		}
	}
	return idx
}

func sample(rng duel.RNG, probs []float64) int {
	x := rng.Float64()
	last := -1
	for i, p := range probs {
		if p <= 0 {
			continue
		}
		last = i
		if x < p {
			return i
		}
		x -= p
	}
	return last
}
