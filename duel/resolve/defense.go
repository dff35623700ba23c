package resolve

import (
	"duel-lite/duel"
)

// Intercept is one reactive-defense entry: a move tag, the capability a
// defender needs to answer it, and optionally the attackers it applies to.
type Intercept struct {
	Name       string   `json:"name" yaml:"name"`
	MoveTag    string   `json:"moveTag" yaml:"move_tag"`
	Capability string   `json:"capability" yaml:"capability"`
	Attackers  []string `json:"attackers,omitempty" yaml:"attackers,omitempty"`
}

const (
	interceptBase  = 0.75
	interceptFloor = 0.10

	interceptAttackerMomentum = -10
	interceptDefenderMomentum = 12
	interceptFailureFactor    = 0.5
)

var mentalInterceptPenalty = map[duel.MentalLevel]float64{
	duel.MentalStressed: 0.05,
	duel.MentalShaken:   0.15,
	duel.MentalBroken:   0.30,
}

// ReactiveDefense answers specific attacks before damage lands.
type ReactiveDefense struct {
	Intercepts []Intercept
}

// Match returns the first intercept that covers this exchange.
func (d *ReactiveDefense) Match(move duel.Move, attacker, defender *duel.Fighter) (Intercept, bool) {
	if d == nil || attacker == nil || defender == nil {
		return Intercept{}, false
	}
	for _, ic := range d.Intercepts {
		if ic.MoveTag != "" && !move.HasTag(ic.MoveTag) {
			continue
		}
		if !defender.Template.HasCapability(ic.Capability) {
			continue
		}
		if len(ic.Attackers) > 0 && !contains(ic.Attackers, attacker.ID) {
			continue
		}
		return ic, true
	}
	return Intercept{}, false
}

// InterceptChance is the base chance less health and mental penalties.
func InterceptChance(defender *duel.Fighter) float64 {
	p := interceptBase
	switch {
	case defender.Health < 25:
		p -= 0.30
	case defender.Health < 50:
		p -= 0.15
	}
	p -= mentalInterceptPenalty[defender.Mental.Level]
	if p < interceptFloor {
		p = interceptFloor
	}
	return p
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Tables is the combat content a resolver is built from.
type Tables struct {
	Punishable []string    `json:"punishable,omitempty" yaml:"punishable,omitempty"`
	Intercepts []Intercept `json:"intercepts,omitempty" yaml:"intercepts,omitempty"`
}

// NewResolverFromTables builds a resolver from loaded content.
func NewResolverFromTables(t Tables) *Resolver {
	return NewResolver(t.Punishable, t.Intercepts)
}
