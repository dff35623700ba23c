package ai

import (
	"fmt"
	"sort"
	"sync"

	"duel-lite/duel"
	"duel-lite/duel/effects"
	"duel-lite/duel/resolve"
)

// MustReactPriority: rules at or above it short-circuit the weighted pick.
// Rules below it only bias the weights of the move they select.
const MustReactPriority = 80

// Context is the read-only view a rule gets.
type Context struct {
	Self     *duel.Fighter
	Opponent *duel.Fighter
	State    *duel.BattleState
}

// Cost is the energy a move would actually take right now.
func (c *Context) Cost(m duel.Move) float64 {
	tod := duel.TimeDay
	if c.State != nil {
		tod = c.State.TimeOfDay
	}
	return m.Cost * resolve.CostMultiplier(m.Element, tod)
}

func (c *Context) Affordable(m duel.Move) bool {
	return c.Cost(m) <= c.Self.Energy
}

// Rule is a priority rule for one character.
type Rule interface {
	Name() string
	Priority() int
	Applies(ctx *Context) (bool, error)
	Select(ctx *Context) (duel.Move, error)
}

// FuncRule builds a rule from closures.
type FuncRule struct {
	RuleName     string
	RulePriority int
	When         func(ctx *Context) (bool, error)
	Pick         func(ctx *Context) (duel.Move, error)
}

func (r *FuncRule) Name() string  { return r.RuleName }
func (r *FuncRule) Priority() int { return r.RulePriority }

func (r *FuncRule) Applies(ctx *Context) (bool, error) {
	if r.When == nil {
		return true, nil
	}
	return r.When(ctx)
}

func (r *FuncRule) Select(ctx *Context) (duel.Move, error) {
	if r.Pick == nil {
		return duel.Move{}, fmt.Errorf("rule %s has no selector", r.RuleName)
	}
	return r.Pick(ctx)
}

// ConditionRule is a rule loaded from character content.
type ConditionRule struct {
	spec duel.RuleSpec
}

func NewConditionRule(spec duel.RuleSpec) *ConditionRule {
	return &ConditionRule{spec: spec}
}

func (r *ConditionRule) Name() string  { return r.spec.Name }
func (r *ConditionRule) Priority() int { return r.spec.Priority }

func (r *ConditionRule) Applies(ctx *Context) (bool, error) {
	for _, c := range r.spec.When {
		ok, err := holds(c, ctx)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func holds(c duel.RuleCondition, ctx *Context) (bool, error) {
	self, opp := ctx.Self, ctx.Opponent
	switch c.Kind {
	case duel.CondSelfHealthBelow:
		return self.Health < c.Value, nil
	case duel.CondOpponentHealthBelow:
		return opp.Health < c.Value, nil
	case duel.CondSelfEnergyBelow:
		return self.Energy < c.Value, nil
	case duel.CondOpponentStunned:
		return effects.IsStunned(opp), nil
	case duel.CondOpponentTactical:
		return opp.HasOpening(), nil
	case duel.CondSelfMentalAtLeast:
		lvl, ok := duel.ParseMentalLevel(c.Text)
		if !ok {
			return false, fmt.Errorf("unknown mental level %q", c.Text)
		}
		return self.Mental.Level >= lvl, nil
	case duel.CondPhaseIs:
		return ctx.State != nil && ctx.State.Phase.String() == c.Text, nil
	case duel.CondMomentumAbove:
		return self.Momentum > c.Value, nil
	case duel.CondTurnAtLeast:
		return ctx.State != nil && float64(ctx.State.Turn) >= c.Value, nil
	case duel.CondOpponentLastMove:
		return opp.LastMove() == c.Text, nil
	default:
		return false, fmt.Errorf("unknown condition kind %q", c.Kind)
	}
}

func (r *ConditionRule) Select(ctx *Context) (duel.Move, error) {
	if r.spec.Move != "" {
		m, ok := ctx.Self.FindMove(r.spec.Move)
		if !ok {
			return duel.Move{}, fmt.Errorf("rule %s names unknown move %q", r.spec.Name, r.spec.Move)
		}
		return m, nil
	}
	for _, m := range ctx.Self.Moves {
		if m.Category == r.spec.Category && ctx.Affordable(m) {
			return m, nil
		}
	}
	return duel.Move{}, fmt.Errorf("rule %s has no affordable %s move", r.spec.Name, r.spec.Category)
}

// RuleBook maps character ids to their rules, highest priority first.
type RuleBook struct {
	mu    sync.RWMutex
	rules map[string][]Rule
}

func NewRuleBook() *RuleBook {
	return &RuleBook{rules: make(map[string][]Rule)}
}

// RuleBookFromTemplates turns every template's content rules into ConditionRules.
func RuleBookFromTemplates(templates ...*duel.CharacterTemplate) *RuleBook {
	b := NewRuleBook()
	for _, t := range templates {
		if t == nil {
			continue
		}
		for _, spec := range t.Rules {
			b.Add(t.ID, NewConditionRule(spec))
		}
	}
	return b
}

func (b *RuleBook) Add(characterID string, rules ...Rule) {
	b.mu.Lock()
	defer b.mu.Unlock()
	list := append(b.rules[characterID], rules...)
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Priority() != list[j].Priority() {
			return list[i].Priority() > list[j].Priority()
		}
		return list[i].Name() < list[j].Name()
	})
	b.rules[characterID] = list
}

// For returns a copy of a character's rules.
func (b *RuleBook) For(characterID string) []Rule {
	if b == nil {
		return nil
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]Rule(nil), b.rules[characterID]...)
}
