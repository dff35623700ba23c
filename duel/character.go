package duel

// PersonalityProfile tunes the AI weighting. All traits are 0.0–1.0 except
// SignatureBonus, which is an additive weight.
type PersonalityProfile struct {
	Aggression     float64 `json:"aggression" yaml:"aggression"`
	Patience       float64 `json:"patience" yaml:"patience"`
	RiskTolerance  float64 `json:"riskTolerance" yaml:"risk_tolerance"`
	Opportunism    float64 `json:"opportunism" yaml:"opportunism"`
	Creativity     float64 `json:"creativity" yaml:"creativity"`
	DefensiveBias  float64 `json:"defensiveBias" yaml:"defensive_bias"`
	SignatureBonus float64 `json:"signatureBonus" yaml:"signature_bonus"`
	AntiRepeat     float64 `json:"antiRepeat" yaml:"anti_repeat"`
	Predictability float64 `json:"predictability" yaml:"predictability"`
}

// Relationship modifies how a fighter reacts to one specific opponent.
type Relationship struct {
	StressMultiplier float64 `json:"stressMultiplier" yaml:"stress_multiplier"`
	AggressionBias   float64 `json:"aggressionBias" yaml:"aggression_bias"`
	Note             string  `json:"note,omitempty" yaml:"note,omitempty"`
}

// Condition kinds usable in RuleSpec.When.
const (
	CondSelfHealthBelow     = "self_health_below"
	CondOpponentHealthBelow = "opponent_health_below"
	CondSelfEnergyBelow     = "self_energy_below"
	CondOpponentStunned     = "opponent_stunned"
	CondOpponentTactical    = "opponent_has_tactical"
	CondSelfMentalAtLeast   = "self_mental_at_least"
	CondPhaseIs             = "phase_is"
	CondMomentumAbove       = "momentum_above"
	CondTurnAtLeast         = "turn_at_least"
	CondOpponentLastMove    = "opponent_last_move"
)

// RuleCondition is one clause of a data-driven AI rule.
type RuleCondition struct {
	Kind  string  `json:"kind" yaml:"kind"`
	Value float64 `json:"value,omitempty" yaml:"value,omitempty"`
	Text  string  `json:"text,omitempty" yaml:"text,omitempty"`
}

// RuleSpec is the content form of an AI priority rule: every clause in When
// must hold, then Move (by name) or the first affordable move in Category fires.
type RuleSpec struct {
	Name     string          `json:"name" yaml:"name"`
	Priority int             `json:"priority" yaml:"priority"`
	When     []RuleCondition `json:"when" yaml:"when"`
	Move     string          `json:"move,omitempty" yaml:"move,omitempty"`
	Category MoveCategory    `json:"category,omitempty" yaml:"category,omitempty"`
}

// CharacterTemplate is immutable static content. Battles copy it into a Fighter.
type CharacterTemplate struct {
	ID              string                  `json:"id" yaml:"id"`
	Name            string                  `json:"name" yaml:"name"`
	Element         Element                 `json:"element" yaml:"element"`
	Faction         string                  `json:"faction,omitempty" yaml:"faction,omitempty"`
	PowerTier       int                     `json:"powerTier" yaml:"power_tier"`
	Health          float64                 `json:"health,omitempty" yaml:"health,omitempty"` // 0 => 100
	Energy          float64                 `json:"energy,omitempty" yaml:"energy,omitempty"` // 0 => 100
	Mobility        float64                 `json:"mobility" yaml:"mobility"`
	Resilience      float64                 `json:"resilience" yaml:"resilience"`
	Personality     PersonalityProfile      `json:"personality" yaml:"personality"`
	Moves           []Move                  `json:"moves" yaml:"moves"`
	SignatureMoves  []string                `json:"signatureMoves,omitempty" yaml:"signature_moves,omitempty"`
	DesperationMove *Move                   `json:"desperationMove,omitempty" yaml:"desperation_move,omitempty"`
	Traits          []string                `json:"traits,omitempty" yaml:"traits,omitempty"`
	Capabilities    []string                `json:"capabilities,omitempty" yaml:"capabilities,omitempty"`
	Relationships   map[string]Relationship `json:"relationships,omitempty" yaml:"relationships,omitempty"`
	LocationStress  map[string]float64      `json:"locationStress,omitempty" yaml:"location_stress,omitempty"`
	Rules           []RuleSpec              `json:"rules,omitempty" yaml:"rules,omitempty"`
}

// IsBender reports whether the character wields an element.
func (t *CharacterTemplate) IsBender() bool {
	return t != nil && t.Element != "" && t.Element != ElementNone
}

func (t *CharacterTemplate) HasCapability(c string) bool {
	if t == nil {
		return false
	}
	for _, v := range t.Capabilities {
		if v == c {
			return true
		}
	}
	return false
}

func (t *CharacterTemplate) IsSignature(move string) bool {
	if t == nil {
		return false
	}
	for _, v := range t.SignatureMoves {
		if v == move {
			return true
		}
	}
	return false
}

// Validate checks the content invariants a battle relies on.
func (t *CharacterTemplate) Validate() error {
	if t == nil {
		return InvalidContentError("nil character")
	}
	if t.ID == "" {
		return InvalidContentError("character without id")
	}
	if t.Health < 0 || t.Health > StatMax || t.Energy < 0 || t.Energy > StatMax {
		return InvalidContentError("character " + t.ID + " has base stats outside [0,100]")
	}
	seen := make(map[string]struct{}, len(t.Moves))
	for _, m := range t.Moves {
		if m.Name == "" {
			return InvalidContentError("character " + t.ID + " has a move without name")
		}
		if _, dup := seen[m.Name]; dup {
			return InvalidContentError("character " + t.ID + " has duplicate move " + m.Name)
		}
		seen[m.Name] = struct{}{}
	}
	return nil
}

// Location supplies environmental conditions for a battle.
type Location struct {
	ID                       string              `json:"id" yaml:"id"`
	Name                     string              `json:"name" yaml:"name"`
	ElementModifiers         map[Element]float64 `json:"elementModifiers,omitempty" yaml:"element_modifiers,omitempty"`
	Fragility                float64             `json:"fragility" yaml:"fragility"`
	DisabledElements         []Element           `json:"disabledElements,omitempty" yaml:"disabled_elements,omitempty"`
	CollateralThreshold      float64             `json:"collateralThreshold,omitempty" yaml:"collateral_threshold,omitempty"`
	ForbidPreBattleOverrides bool                `json:"forbidPreBattleOverrides,omitempty" yaml:"forbid_pre_battle_overrides,omitempty"`
	Tags                     []string            `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// ElementModifier returns the location multiplier for an element (1 when unset).
func (l *Location) ElementModifier(e Element) float64 {
	if l == nil {
		return 1
	}
	for _, d := range l.DisabledElements {
		if d == e && e != ElementNone {
			return disabledElementModifier
		}
	}
	if v, ok := l.ElementModifiers[e]; ok && v > 0 {
		return v
	}
	return 1
}

const disabledElementModifier = 0.25

// NeutralLocation is used when a caller passes no location data.
func NeutralLocation() *Location {
	return &Location{ID: "neutral", Name: "Neutral Ground", Fragility: 1}
}

// HasTag reports whether the location carries a tag.
func (l *Location) HasTag(tag string) bool {
	if l == nil {
		return false
	}
	return containsString(l.Tags, tag)
}
